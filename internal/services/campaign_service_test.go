package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	"customermind/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockCampaignStore struct {
	mock.Mock
}

func (m *MockCampaignStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCampaignStore) Create(ctx context.Context, c *doc_models.EmailCampaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignStore) FindByID(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doc_models.EmailCampaign), args.Error(1)
}

func (m *MockCampaignStore) List(ctx context.Context, tenantID string, limit, offset int64) ([]doc_models.EmailCampaign, int64, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]doc_models.EmailCampaign), args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignStore) DeleteDraft(ctx context.Context, tenantID, id string) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignStore) MarkSending(ctx context.Context, tenantID string, id primitive.ObjectID, at time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignStore) IncrementCounts(ctx context.Context, id primitive.ObjectID, sent, failed int, provider string) error {
	return m.Called(ctx, id, sent, failed, provider).Error(0)
}

func (m *MockCampaignStore) Complete(ctx context.Context, id primitive.ObjectID, status doc_models.CampaignStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func (m *MockCampaignStore) InsertLog(ctx context.Context, l *doc_models.EmailLog) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockCampaignStore) ListLogs(ctx context.Context, tenantID string, campaignID primitive.ObjectID, limit int64) ([]doc_models.EmailLog, error) {
	args := m.Called(ctx, tenantID, campaignID, limit)
	return args.Get(0).([]doc_models.EmailLog), args.Error(1)
}

// stubProvider fails for every recipient listed in failFor.
type stubProvider struct {
	name    string
	failFor map[string]bool

	mu   sync.Mutex
	sent []string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Send(_ context.Context, msg EmailMessage) (string, error) {
	if p.failFor[msg.To] || p.failFor["*"] {
		return "", errors.New(p.name + " rejected " + msg.To)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg.To)
	return p.name + "-" + msg.To, nil
}

func TestDispatcherFallsBackInOrder(t *testing.T) {
	primary := &stubProvider{name: ProviderSendGrid, failFor: map[string]bool{"*": true}}
	backup := &stubProvider{name: ProviderMailgun}
	d := NewEmailDispatcher([]EmailProvider{primary, backup}, "from@example.com", "Sender", zap.NewNop())

	res, err := d.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ProviderMailgun, res.Provider)
	assert.Equal(t, []string{ProviderSendGrid, ProviderMailgun}, res.Attempted)
	assert.Equal(t, "mailgun-a@example.com", res.MessageID)
}

func TestDispatcherAllProvidersFail(t *testing.T) {
	d := NewEmailDispatcher([]EmailProvider{
		&stubProvider{name: ProviderSendGrid, failFor: map[string]bool{"*": true}},
		&stubProvider{name: ProviderSMTP, failFor: map[string]bool{"*": true}},
	}, "from@example.com", "Sender", zap.NewNop())

	res, err := d.Send(context.Background(), EmailMessage{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sendgrid")
	assert.Contains(t, err.Error(), "smtp")
	assert.Len(t, res.Attempted, 2)
	assert.Empty(t, res.Provider)
}

func TestDispatcherWithoutProviders(t *testing.T) {
	d := NewEmailDispatcher(nil, "from@example.com", "Sender", zap.NewNop())
	_, err := d.Send(context.Background(), EmailMessage{To: "a@example.com"})
	assert.ErrorIs(t, err, utils.ErrNoEmailProvider)
}

func TestNormalizeRecipients(t *testing.T) {
	out := NormalizeRecipients([]request_models.RecipientRequest{
		{Email: " Ada@Example.com ", Name: "Ada"},
		{Email: "ada@example.com", Name: "Duplicate"},
		{Email: "  "},
		{Email: "bob@example.com"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, doc_models.Recipient{Email: "ada@example.com", Name: "Ada"}, out[0])
	assert.Equal(t, "bob@example.com", out[1].Email)
}

func TestPersonalizeEscapesHTML(t *testing.T) {
	r := doc_models.Recipient{Email: "x@example.com", Name: "<b>Eve</b>"}
	assert.Equal(t, "Hi &lt;b&gt;Eve&lt;/b&gt;", personalize("Hi {{name}}", r, true))
	assert.Equal(t, "Hi there", personalize("Hi {{name}}", doc_models.Recipient{}, false))
}

func TestCampaignCreateRespectsTierLimit(t *testing.T) {
	store := new(MockCampaignStore)
	svc := NewCampaignService(store, NewEmailDispatcher(nil, "", "", zap.NewNop()), time.Minute, zap.NewNop())

	free := Tenant{ID: "t1", Role: db_models.RoleUser, Tier: db_models.TierFree}
	recipients := make([]request_models.RecipientRequest, free.ContactLimit()+1)
	for i := range recipients {
		recipients[i] = request_models.RecipientRequest{Email: strings.Repeat("a", i+1) + "@example.com"}
	}

	_, err := svc.Create(context.Background(), free, request_models.CreateCampaignRequest{Name: "Big", Recipients: recipients})
	assert.ErrorIs(t, err, utils.ErrRecipientLimitExceeded)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCampaignSendCountsAndStatus(t *testing.T) {
	ctx := context.Background()
	store := new(MockCampaignStore)
	provider := &stubProvider{name: ProviderSendGrid, failFor: map[string]bool{"bad@example.com": true}}
	svc := NewCampaignService(store, NewEmailDispatcher([]EmailProvider{provider}, "from@example.com", "Sender", zap.NewNop()), time.Minute, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	campaign := &doc_models.EmailCampaign{
		ID:       primitive.NewObjectID(),
		TenantID: "t1",
		Subject:  "Hello {{name}}",
		Status:   doc_models.CampaignDraft,
		Recipients: []doc_models.Recipient{
			{Email: "good@example.com", Name: "Good"},
			{Email: "bad@example.com"},
			{Email: "also@example.com"},
		},
	}
	id := campaign.ID.Hex()
	store.On("FindByID", ctx, "t1", id).Return(campaign, nil)
	store.On("MarkSending", ctx, "t1", campaign.ID, testNow).Return(true, nil)
	store.On("InsertLog", mock.Anything, mock.Anything).Return(nil)
	store.On("IncrementCounts", mock.Anything, campaign.ID, 1, 0, ProviderSendGrid).Return(nil).Twice()
	store.On("IncrementCounts", mock.Anything, campaign.ID, 0, 1, "").Return(nil).Once()
	store.On("Complete", mock.Anything, campaign.ID, doc_models.CampaignPartiallySent, testNow).Return(nil).Once()

	got, err := svc.Send(ctx, "t1", id)
	require.NoError(t, err)
	assert.Equal(t, doc_models.CampaignSending, got.Status)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(waitCtx))

	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "InsertLog", 3)
	assert.ElementsMatch(t, []string{"good@example.com", "also@example.com"}, provider.sent)
}

func TestCampaignSendRejectsNonDraft(t *testing.T) {
	ctx := context.Background()
	store := new(MockCampaignStore)
	svc := NewCampaignService(store, NewEmailDispatcher([]EmailProvider{&stubProvider{name: ProviderSMTP}}, "", "", zap.NewNop()), time.Minute, zap.NewNop())

	sent := &doc_models.EmailCampaign{ID: primitive.NewObjectID(), TenantID: "t1", Status: doc_models.CampaignSent,
		Recipients: []doc_models.Recipient{{Email: "a@example.com"}}}
	store.On("FindByID", ctx, "t1", sent.ID.Hex()).Return(sent, nil)

	_, err := svc.Send(ctx, "t1", sent.ID.Hex())
	assert.ErrorIs(t, err, utils.ErrCampaignNotDraft)
}
