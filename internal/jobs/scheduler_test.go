package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"customermind/internal/repositories"
	"customermind/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockHoldbackReleaser struct{ mock.Mock }

func (m *MockHoldbackReleaser) ReleaseDueHoldbacks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockSubscriptionExpirer struct{ mock.Mock }

func (m *MockSubscriptionExpirer) ExpireSubscriptions(ctx context.Context) (repositories.ExpiryResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(repositories.ExpiryResult), args.Error(1)
}

type MockHealthRefresher struct{ mock.Mock }

func (m *MockHealthRefresher) RefreshEligible(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestScheduler(t *testing.T) (*Scheduler, *MockHoldbackReleaser, *MockSubscriptionExpirer, *MockHealthRefresher) {
	t.Helper()
	h, b, r := new(MockHoldbackReleaser), new(MockSubscriptionExpirer), new(MockHealthRefresher)
	s, err := NewScheduler(h, b, r, config.SchedulerConfig{Enabled: true, HoldbackReleaseEvery: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s, h, b, r
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)
	var names []string
	for _, j := range s.scheduler.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{JobHoldbackRelease, JobSubscriptionExpiry, JobHealthRefresh}, names)
}

func TestJobTasksCallServices(t *testing.T) {
	s, h, b, r := newTestScheduler(t)
	ctx := context.Background()

	h.On("ReleaseDueHoldbacks", ctx).Return(3, nil)
	b.On("ExpireSubscriptions", ctx).Return(repositories.ExpiryResult{Expired: 1}, nil)
	r.On("RefreshEligible", ctx).Return(0, errors.New("mongo down"))

	assert.NoError(t, s.releaseHoldbacks(ctx))
	assert.NoError(t, s.expireSubscriptions(ctx))
	assert.EqualError(t, s.refreshHealth(ctx), "mongo down")

	h.AssertExpectations(t)
	b.AssertExpectations(t)
	r.AssertExpectations(t)
}
