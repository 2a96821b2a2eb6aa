package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/services"
	"customermind/pkg/middleware"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) List(ctx context.Context, tenantID string, q request_models.ListCustomersQuery) (*resp.Page[doc_models.Customer], error) {
	args := m.Called(ctx, tenantID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resp.Page[doc_models.Customer]), args.Error(1)
}

func (m *MockCustomerService) Get(ctx context.Context, tenantID, id string) (*doc_models.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doc_models.Customer), args.Error(1)
}

func (m *MockCustomerService) Create(ctx context.Context, tenant services.Tenant, req request_models.CustomerRequest) (*doc_models.Customer, error) {
	args := m.Called(ctx, tenant, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doc_models.Customer), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, tenantID, id string, req request_models.CustomerRequest) (*doc_models.Customer, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*doc_models.Customer), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCustomerService) SeedDemo(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockCustomerService) SyncOdoo(ctx context.Context, tenant services.Tenant) (*resp.OdooSyncResult, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resp.OdooSyncResult), args.Error(1)
}

func asTenant(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, "user")
		c.Set(middleware.ContextTier, "growth")
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDeleteCustomerStatusCodes(t *testing.T) {
	svc := new(MockCustomerService)
	cc := NewCustomerController(svc)

	r := gin.New()
	r.DELETE("/customers/:id", asTenant("tenant-1"), cc.DeleteCustomer)

	svc.On("Delete", mock.Anything, "tenant-1", "demo").Return(utils.ErrDemoRecordImmutable)
	svc.On("Delete", mock.Anything, "tenant-1", "mine").Return(nil)
	svc.On("Delete", mock.Anything, "tenant-1", "gone").Return(utils.ErrCustomerNotFound)

	cases := []struct {
		id   string
		code int
	}{
		{"demo", http.StatusForbidden},
		{"mine", http.StatusOK},
		{"gone", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/customers/"+tc.id, nil))
		assert.Equal(t, tc.code, w.Code, tc.id)
		assert.Equal(t, tc.code, decode(t, w).Code, tc.id)
	}
	svc.AssertExpectations(t)
}

func TestSyncOdooPassesTenantScope(t *testing.T) {
	svc := new(MockCustomerService)
	cc := NewCustomerController(svc)

	r := gin.New()
	r.POST("/customers/sync-odoo", asTenant("tenant-9"), cc.SyncOdoo)

	svc.On("SyncOdoo", mock.Anything, mock.MatchedBy(func(tn services.Tenant) bool {
		return tn.ID == "tenant-9" && tn.Tier == "growth"
	})).Return(nil, utils.ErrCRMUnavailable)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/customers/sync-odoo", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	svc.AssertExpectations(t)
}

func TestSystemHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all up", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", NewSystemController([]Dependency{{"postgres", up}, {"mongo", up}, {"redis", up}}).Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("one down", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", NewSystemController([]Dependency{{"postgres", up}, {"redis", down}}).Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body struct {
			Data map[string]DependencyStatus `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "up", body.Data["postgres"].Status)
		assert.Equal(t, "down", body.Data["redis"].Status)
		assert.Equal(t, "connection refused", body.Data["redis"].Error)
	})
}
