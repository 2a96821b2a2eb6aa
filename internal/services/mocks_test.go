package services

import (
	"context"
	"sync"
	"time"

	"customermind/internal/models/doc_models"
	"customermind/internal/repositories"
	"customermind/pkg/odoo"
	"customermind/pkg/utils"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/mock"
)

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCustomerStore) Create(ctx context.Context, c *doc_models.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerStore) InsertMany(ctx context.Context, customers []doc_models.Customer) error {
	return m.Called(ctx, customers).Error(0)
}

func (m *MockCustomerStore) FindByID(ctx context.Context, tenantID, id string) (*doc_models.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doc_models.Customer), args.Error(1)
}

func (m *MockCustomerStore) List(ctx context.Context, tenantID string, f repositories.CustomerFilter) ([]doc_models.Customer, int64, error) {
	args := m.Called(ctx, tenantID, f)
	return args.Get(0).([]doc_models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerStore) ListAll(ctx context.Context, tenantID string) ([]doc_models.Customer, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]doc_models.Customer), args.Error(1)
}

func (m *MockCustomerStore) Update(ctx context.Context, c *doc_models.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerStore) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerStore) Count(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerStore) UpsertExternal(ctx context.Context, c *doc_models.Customer) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerStore) HasExternal(ctx context.Context, tenantID, externalID string) (bool, error) {
	args := m.Called(ctx, tenantID, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerStore) Tenants(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHealthStore) InsertScore(ctx context.Context, s *doc_models.CustomerHealthScore) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockHealthStore) LatestScores(ctx context.Context, tenantID string, now time.Time) ([]doc_models.CustomerHealthScore, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Get(0).([]doc_models.CustomerHealthScore), args.Error(1)
}

func (m *MockHealthStore) InsertAlert(ctx context.Context, a *doc_models.HealthAlert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockHealthStore) ListAlerts(ctx context.Context, tenantID string, unacknowledgedOnly bool, limit int64) ([]doc_models.HealthAlert, error) {
	args := m.Called(ctx, tenantID, unacknowledgedOnly, limit)
	return args.Get(0).([]doc_models.HealthAlert), args.Error(1)
}

func (m *MockHealthStore) AcknowledgeAlert(ctx context.Context, tenantID, alertID, by string, at time.Time) (*doc_models.HealthAlert, error) {
	args := m.Called(ctx, tenantID, alertID, by, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doc_models.HealthAlert), args.Error(1)
}

type MockAnalysisStore struct {
	mock.Mock
}

func (m *MockAnalysisStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAnalysisStore) Insert(ctx context.Context, a *doc_models.CustomerAnalysis) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnalysisStore) Latest(ctx context.Context, tenantID string, limit int64) ([]doc_models.CustomerAnalysis, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]doc_models.CustomerAnalysis), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, event doc_models.AuditEvent) {
	m.Called(ctx, event)
}

func (m *MockAuditService) Query(ctx context.Context, filter doc_models.AuditFilter) ([]doc_models.AuditEvent, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]doc_models.AuditEvent), args.Get(1).(int64), args.Error(2)
}

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) GetEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(pgvector.Vector), args.Error(1)
}

func (m *MockLLMClient) Provider() string { return "mock" }

func (m *MockLLMClient) EmbeddingSource() string { return "mock" }

func (m *MockLLMClient) Close() error { return nil }

var _ utils.LLMClientInterface = (*MockLLMClient)(nil)

// MockMailer stubs the notification and reset mails; digests are not mocked.
type MockMailer struct {
	IMailService
	mock.Mock
}

func (m *MockMailer) SendMailToNotifyUser(ctx context.Context, to, subject, body, ctaText, ctaURL string) error {
	return m.Called(ctx, to, subject, body, ctaText, ctaURL).Error(0)
}

func (m *MockMailer) SendMailToResetPassword(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

type fakeCRM struct {
	configured bool
	customers  []odoo.Customer
	err        error
}

func (f *fakeCRM) Configured() bool { return f.configured }

func (f *fakeCRM) FetchCustomers(context.Context, int) ([]odoo.Customer, error) {
	return f.customers, f.err
}

type published struct {
	tenantID  string
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(tenantID, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{tenantID, eventType, data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}
