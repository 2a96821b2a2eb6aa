package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/permissions"
	"customermind/internal/repositories"
	"customermind/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminServiceInterface interface {
	ListUsers(ctx context.Context, q request_models.ListUsersQuery) (*resp.Page[resp.AccountResponse], error)
	GetUser(ctx context.Context, id string) (*resp.AccountResponse, error)
	// UpdateUser applies the non-nil fields. Only super admins may grant or revoke admin roles.
	UpdateUser(ctx context.Context, actorID string, actorRole db_models.Role, id string, req request_models.UpdateUserRequest) (*resp.AccountResponse, error)
	DeactivateUser(ctx context.Context, actorID string, actorRole db_models.Role, id string) error
	UnlockUser(ctx context.Context, actorID, id string) error
	AuditLogs(ctx context.Context, q request_models.AuditLogQuery) (*resp.Page[doc_models.AuditEvent], error)
}

type AdminService struct {
	accounts repositories.AccountRepository
	audit    AuditServiceInterface
	log      *zap.Logger
}

func NewAdminService(accounts repositories.AccountRepository, audit AuditServiceInterface, log *zap.Logger) AdminServiceInterface {
	return &AdminService{accounts: accounts, audit: audit, log: log}
}

func (s *AdminService) ListUsers(ctx context.Context, q request_models.ListUsersQuery) (*resp.Page[resp.AccountResponse], error) {
	rows, total, err := s.accounts.List(ctx, repositories.AccountFilter{
		Search:   strings.TrimSpace(q.Search),
		Role:     db_models.Role(q.Role),
		Tier:     db_models.Tier(q.Tier),
		Active:   q.Active,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	items := make([]resp.AccountResponse, 0, len(rows))
	for i := range rows {
		items = append(items, ToAccountResponse(&rows[i]))
	}
	return &resp.Page[resp.AccountResponse]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *AdminService) find(ctx context.Context, id string) (*db_models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrAccountNotFound
	}
	account, err := s.accounts.FindById(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return account, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*resp.AccountResponse, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToAccountResponse(account)
	return &out, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, actorID string, actorRole db_models.Role, id string, req request_models.UpdateUserRequest) (*resp.AccountResponse, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role == db_models.RoleSuperAdmin && !canManageAdmins(actorRole) {
		return nil, utils.ErrForbidden
	}

	fields := map[string]interface{}{}
	details := map[string]string{}

	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
		fields["name"] = account.Name
		details["name"] = account.Name
	}
	if req.Role != nil {
		role := db_models.Role(*req.Role)
		if !role.Valid() {
			return nil, utils.ErrInvalidInput
		}
		if (role.IsAdmin() || account.Role.IsAdmin()) && role != account.Role && !canManageAdmins(actorRole) {
			return nil, utils.ErrForbidden
		}
		account.Role = role
		fields["role"] = role
		details["role"] = string(role)
	}
	if req.Tier != nil {
		tier := db_models.Tier(*req.Tier)
		if !tier.Valid() {
			return nil, utils.ErrInvalidInput
		}
		account.Tier = tier
		fields["tier"] = tier
		details["tier"] = string(tier)
	}
	if req.IsActive != nil {
		if !*req.IsActive && actorID == account.ID.String() {
			return nil, utils.ErrForbidden
		}
		if !*req.IsActive && account.Role.IsAdmin() && !canManageAdmins(actorRole) {
			return nil, utils.ErrForbidden
		}
		account.IsActive = *req.IsActive
		fields["is_active"] = account.IsActive
		details["is_active"] = fmt.Sprint(account.IsActive)
	}

	if len(fields) > 0 {
		if err := s.accounts.UpdateFields(ctx, account.ID, fields); err != nil {
			return nil, mapAccountWriteErr(err)
		}
		s.audit.Record(ctx, doc_models.AuditEvent{
			Category:  doc_models.AuditCategoryAdmin,
			EventType: doc_models.EventUserUpdated,
			ActorID:   actorID,
			SubjectID: account.ID.String(),
			Success:   true,
			Details:   details,
		})
	}

	out := ToAccountResponse(account)
	return &out, nil
}

func (s *AdminService) DeactivateUser(ctx context.Context, actorID string, actorRole db_models.Role, id string) error {
	account, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if actorID == account.ID.String() {
		return utils.ErrForbidden
	}
	if account.Role.IsAdmin() && !canManageAdmins(actorRole) {
		return utils.ErrForbidden
	}

	if err := s.accounts.UpdateFields(ctx, account.ID, map[string]interface{}{"is_active": false}); err != nil {
		return mapAccountWriteErr(err)
	}
	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAdmin,
		EventType: doc_models.EventUserDeactivated,
		ActorID:   actorID,
		SubjectID: account.ID.String(),
		Success:   true,
	})
	s.log.Info("account deactivated", zap.String("user_id", account.ID.String()), zap.String("actor_id", actorID))
	return nil
}

func (s *AdminService) UnlockUser(ctx context.Context, actorID, id string) error {
	account, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdateFields(ctx, account.ID, map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}); err != nil {
		return mapAccountWriteErr(err)
	}
	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAdmin,
		EventType: doc_models.EventUserUnlocked,
		ActorID:   actorID,
		SubjectID: account.ID.String(),
		Success:   true,
	})
	return nil
}

func (s *AdminService) AuditLogs(ctx context.Context, q request_models.AuditLogQuery) (*resp.Page[doc_models.AuditEvent], error) {
	filter := doc_models.AuditFilter{
		Category:  q.Category,
		EventType: q.EventType,
		ActorID:   q.ActorID,
		SubjectID: q.SubjectID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.Start > 0 {
		start := utils.FromUnixSeconds(q.Start)
		filter.Start = &start
	}
	if q.End > 0 {
		end := utils.FromUnixSeconds(q.End)
		filter.End = &end
	}

	events, total, err := s.audit.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return &resp.Page[doc_models.AuditEvent]{Items: events, Total: total}, nil
}

// canManageAdmins reports whether the actor may change or disable admin accounts.
func canManageAdmins(actor db_models.Role) bool {
	return permissions.HasPermission(actor, permissions.PermManageRoles)
}

func mapAccountWriteErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrAccountNotFound
	}
	return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
}
