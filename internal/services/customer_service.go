package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/odoo"
	"customermind/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CRMClient is the read side of the ERP bridge.
type CRMClient interface {
	Configured() bool
	FetchCustomers(ctx context.Context, limit int) ([]odoo.Customer, error)
}

type CustomerServiceInterface interface {
	// List seeds the demo data set on the first call for an empty tenant.
	List(ctx context.Context, tenantID string, q request_models.ListCustomersQuery) (*resp.Page[doc_models.Customer], error)
	Get(ctx context.Context, tenantID, id string) (*doc_models.Customer, error)
	Create(ctx context.Context, tenant Tenant, req request_models.CustomerRequest) (*doc_models.Customer, error)
	Update(ctx context.Context, tenantID, id string, req request_models.CustomerRequest) (*doc_models.Customer, error)
	// Delete removes user-added customers. Demo records are immutable.
	Delete(ctx context.Context, tenantID, id string) error
	SeedDemo(ctx context.Context, tenantID string) (int, error)
	SyncOdoo(ctx context.Context, tenant Tenant) (*resp.OdooSyncResult, error)
}

type CustomerService struct {
	store repositories.CustomerStore
	crm   CRMClient
	audit AuditServiceInterface
	log   *zap.Logger
	now   func() time.Time

	seeding singleflight.Group
}

const crmSyncLimit = 1000

func NewCustomerService(store repositories.CustomerStore, crm CRMClient, audit AuditServiceInterface, log *zap.Logger) CustomerServiceInterface {
	return &CustomerService{
		store: store,
		crm:   crm,
		audit: audit,
		log:   log,
		now:   time.Now,
	}
}

func (s *CustomerService) List(ctx context.Context, tenantID string, q request_models.ListCustomersQuery) (*resp.Page[doc_models.Customer], error) {
	if err := s.seedIfEmpty(ctx, tenantID); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	items, total, err := s.store.List(ctx, tenantID, repositories.CustomerFilter{
		Search: strings.TrimSpace(q.Search),
		Source: doc_models.CustomerSource(q.Source),
		Limit:  limit,
		Offset: q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return &resp.Page[doc_models.Customer]{
		Items:    items,
		Total:    total,
		Page:     int(q.Offset/limit) + 1,
		PageSize: int(limit),
	}, nil
}

// seedIfEmpty collapses concurrent first loads of one tenant into a single
// count-and-seed so the demo set is inserted once.
func (s *CustomerService) seedIfEmpty(ctx context.Context, tenantID string) error {
	_, err, _ := s.seeding.Do(tenantID, func() (interface{}, error) {
		count, err := s.store.Count(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if count > 0 {
			return nil, nil
		}
		if _, err := s.SeedDemo(ctx, tenantID); err != nil {
			s.log.Warn("demo customers not seeded", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return nil, nil
	})
	return err
}

func (s *CustomerService) Get(ctx context.Context, tenantID, id string) (*doc_models.Customer, error) {
	c, err := s.store.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if c == nil {
		return nil, utils.ErrCustomerNotFound
	}
	return c, nil
}

func (s *CustomerService) Create(ctx context.Context, tenant Tenant, req request_models.CustomerRequest) (*doc_models.Customer, error) {
	count, err := s.store.Count(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !tenant.WithinContactLimit(int(count) + 1) {
		return nil, fmt.Errorf("%w: limit %d", utils.ErrContactLimit, tenant.ContactLimit())
	}

	c := &doc_models.Customer{TenantID: tenant.ID, Source: doc_models.SourceManual}
	applyCustomerRequest(c, req)
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, tenantID, id string, req request_models.CustomerRequest) (*doc_models.Customer, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyCustomerRequest(c, req)
	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, tenantID, id string) error {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if c.IsDemo {
		return utils.ErrDemoRecordImmutable
	}

	deleted, err := s.store.Delete(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !deleted {
		return utils.ErrCustomerNotFound
	}
	return nil
}

func (s *CustomerService) SeedDemo(ctx context.Context, tenantID string) (int, error) {
	customers := DemoCustomers(tenantID, s.now().UTC())
	if err := s.store.InsertMany(ctx, customers); err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	s.log.Info("demo customers seeded", zap.String("tenant_id", tenantID), zap.Int("count", len(customers)))
	return len(customers), nil
}

func (s *CustomerService) SyncOdoo(ctx context.Context, tenant Tenant) (*resp.OdooSyncResult, error) {
	if s.crm == nil || !s.crm.Configured() {
		return nil, fmt.Errorf("%w: %v", utils.ErrCRMUnavailable, odoo.ErrNotConfigured)
	}

	fetched, err := s.crm.FetchCustomers(ctx, crmSyncLimit)
	if err != nil {
		s.log.Warn("odoo sync failed", zap.String("tenant_id", tenant.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", utils.ErrCRMUnavailable, err)
	}

	count, err := s.store.Count(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	result := &resp.OdooSyncResult{Fetched: len(fetched)}
	for _, f := range fetched {
		if !tenant.WithinContactLimit(int(count) + 1) {
			known, err := s.store.HasExternal(ctx, tenant.ID, f.ExternalID)
			if err != nil {
				return result, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
			}
			if !known {
				result.Skipped++
				continue
			}
		}
		inserted, err := s.store.UpsertExternal(ctx, &doc_models.Customer{
			TenantID:        tenant.ID,
			ExternalID:      f.ExternalID,
			Name:            f.Name,
			Email:           f.Email,
			Company:         f.Company,
			TotalSpentMinor: f.TotalSpentMinor,
			OrderCount:      f.OrderCount,
			FirstPurchaseAt: f.FirstOrderAt,
			LastPurchaseAt:  f.LastOrderAt,
			Source:          doc_models.SourceOdoo,
		})
		if err != nil {
			return result, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if inserted {
			result.Inserted++
			count++
		} else {
			result.Updated++
		}
	}

	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryData,
		EventType: doc_models.EventCRMSynced,
		ActorID:   tenant.ID,
		SubjectID: tenant.ID,
		Success:   true,
		Details: map[string]string{
			"fetched":  fmt.Sprint(result.Fetched),
			"inserted": fmt.Sprint(result.Inserted),
			"updated":  fmt.Sprint(result.Updated),
			"skipped":  fmt.Sprint(result.Skipped),
		},
	})
	if result.Skipped > 0 {
		s.log.Info("odoo sync hit contact limit", zap.String("tenant_id", tenant.ID), zap.Int("skipped", result.Skipped))
	}
	return result, nil
}

func applyCustomerRequest(c *doc_models.Customer, req request_models.CustomerRequest) {
	c.Name = strings.TrimSpace(req.Name)
	c.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c.Company = strings.TrimSpace(req.Company)
	c.TotalSpentMinor = req.TotalSpentMinor
	c.OrderCount = req.OrderCount
	c.FirstPurchaseAt = req.FirstPurchaseAt
	c.LastPurchaseAt = req.LastPurchaseAt
	c.SupportTickets = req.SupportTickets
	c.EngagementScore = req.EngagementScore
	c.Products = req.Products
}

// DemoCustomers is the sample data set shown to a tenant before they import anything.
// Profiles cover loyal, growing, dormant and new customers.
func DemoCustomers(tenantID string, now time.Time) []doc_models.Customer {
	daysAgo := func(d int) *time.Time {
		t := now.AddDate(0, 0, -d)
		return &t
	}
	type demo struct {
		name, email, company string
		spent                int64
		orders               int
		first, last          int
		tickets              int
		engagement           float64
		products             []string
	}
	rows := []demo{
		{"Sarah Johnson", "sarah.johnson@example.com", "Northwind Traders", 1254000, 24, 720, 6, 1, 92, []string{"Analytics Suite", "Data Connector"}},
		{"Michael Chen", "michael.chen@example.com", "Contoso Retail", 683000, 12, 400, 21, 0, 78, []string{"Analytics Suite"}},
		{"Emma Williams", "emma.williams@example.com", "Fabrikam Inc", 289000, 5, 300, 95, 4, 41, []string{"Email Toolkit"}},
		{"James Rodriguez", "james.rodriguez@example.com", "Adventure Works", 98000, 2, 260, 210, 6, 18, []string{"Starter Pack"}},
		{"Olivia Brown", "olivia.brown@example.com", "Tailspin Toys", 452000, 9, 180, 12, 1, 85, []string{"Email Toolkit", "Analytics Suite"}},
		{"Liam Davis", "liam.davis@example.com", "Wingtip Media", 35000, 1, 14, 14, 0, 60, []string{"Starter Pack"}},
		{"Sophia Martinez", "sophia.martinez@example.com", "Litware Labs", 921000, 17, 540, 48, 2, 66, []string{"Analytics Suite", "Support Plus"}},
		{"Noah Wilson", "noah.wilson@example.com", "Proseware", 157000, 4, 365, 130, 3, 29, []string{"Data Connector"}},
	}

	out := make([]doc_models.Customer, 0, len(rows))
	for _, r := range rows {
		out = append(out, doc_models.Customer{
			TenantID:        tenantID,
			Name:            r.name,
			Email:           r.email,
			Company:         r.company,
			TotalSpentMinor: r.spent,
			OrderCount:      r.orders,
			FirstPurchaseAt: daysAgo(r.first),
			LastPurchaseAt:  daysAgo(r.last),
			SupportTickets:  r.tickets,
			EngagementScore: r.engagement,
			Products:        r.products,
			Source:          doc_models.SourceDemo,
			IsDemo:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return out
}
