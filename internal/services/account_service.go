package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/permissions"
	"customermind/internal/repositories"
	"customermind/pkg/config"
	mem "customermind/pkg/memcache"
	"customermind/pkg/utils"

	"go.uber.org/zap"
)

const resetTokenBytes = 32

type AccountServiceInterface interface {
	Register(ctx context.Context, request request_models.SignUpRequest) (*resp.AccountResponse, error)
	Login(ctx context.Context, request request_models.LoginRequest, ip string) (*resp.AccountLoginResponse, error)
	Me(ctx context.Context, userID string) (*resp.AccountResponse, error)
	ChangePassword(ctx context.Context, userID string, request request_models.ChangePasswordRequest, ip string) error
	ForgotPassword(ctx context.Context, request request_models.RequestForgotPassword) error
	ResetPassword(ctx context.Context, request request_models.ResetPasswordRequest, ip string) error
	// CurrentTier reads the tier from the database so plan changes apply before the token is reissued.
	CurrentTier(ctx context.Context, userID string) (db_models.Tier, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	affiliates  repositories.AffiliateRepository
	tokens      *utils.TokenManager
	resetTokens mem.ResetTokenStore
	limiter     mem.RateLimiter
	mail        IMailService
	audit       AuditServiceInterface
	auth        config.AuthConfig
	log         *zap.Logger
	now         func() time.Time
}

func NewAccountService(
	accountRepo repositories.AccountRepository,
	affiliates repositories.AffiliateRepository,
	tokens *utils.TokenManager,
	resetTokens mem.ResetTokenStore,
	limiter mem.RateLimiter,
	mail IMailService,
	audit AuditServiceInterface,
	cfg *config.Config,
	log *zap.Logger,
) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		affiliates:  affiliates,
		tokens:      tokens,
		resetTokens: resetTokens,
		limiter:     limiter,
		mail:        mail,
		audit:       audit,
		auth:        cfg.Auth,
		log:         log,
		now:         time.Now,
	}
}

func (a *AccountService) Register(ctx context.Context, request request_models.SignUpRequest) (*resp.AccountResponse, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	existingAccount, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existingAccount != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newAccount := &db_models.Account{
		Name:         strings.TrimSpace(request.DisplayName),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         db_models.RoleUser,
		Tier:         db_models.TierFree,
		IsActive:     true,
	}

	// Unknown referral codes are ignored.
	if code := strings.TrimSpace(request.ReferralCode); code != "" {
		affiliate, err := a.affiliates.FindAffiliateByReferralCode(ctx, code)
		if err != nil {
			a.log.Warn("referral lookup failed", zap.String("referral_code", code), zap.Error(err))
		} else if affiliate != nil {
			newAccount.ReferredByCode = affiliate.ReferralCode
		}
	}

	if err := a.accountRepo.InsertTx(newAccount, ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	a.log.Info("account registered",
		zap.String("user_id", newAccount.ID.String()),
		zap.Bool("referred", newAccount.ReferredByCode != ""))

	out := ToAccountResponse(newAccount)
	return &out, nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest, ip string) (*resp.AccountLoginResponse, error) {
	startTime := a.now()
	now := startTime.Unix()

	allowed, err := a.limiter.Allow(ctx, "login:"+ip, a.auth.IPLoginLimit, a.auth.IPLoginWindow)
	if err != nil {
		a.log.Warn("login rate limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, utils.ErrTooManyAttempts
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	if account == nil {
		a.recordLogin(ctx, "", ip, doc_models.EventLoginFailedUserNotFound, false, map[string]string{"email": email})
		return nil, utils.ErrInvalidCredentials
	}
	subject := account.ID.String()

	if !account.IsActive {
		a.recordLogin(ctx, subject, ip, doc_models.EventLoginFailedUserDisabled, false, nil)
		return nil, utils.ErrAccountInactive
	}
	if account.IsLocked(now) {
		a.recordLogin(ctx, subject, ip, doc_models.EventLoginFailedLocked, false, nil)
		return nil, utils.ErrAccountLocked
	}

	// A lapsed lock starts a fresh attempt window.
	if account.LockedUntil != nil {
		if err := a.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}); err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		account.FailedLoginAttempts = 0
		account.LockedUntil = nil
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		lockUntil := startTime.Add(a.auth.LockDuration).Unix()
		updated, err := a.accountRepo.RecordFailedLogin(ctx, account.ID, a.auth.MaxLoginAttempts, lockUntil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		a.recordLogin(ctx, subject, ip, doc_models.EventLoginFailedWrongPassword, false, map[string]string{
			"attempts": fmt.Sprint(updated.FailedLoginAttempts),
		})
		if updated.IsLocked(now) {
			a.recordLogin(ctx, subject, ip, doc_models.EventAccountLocked, true, map[string]string{
				"locked_until": utils.FormatRFC3339(utils.FromUnixSeconds(lockUntil)),
			})
			a.log.Warn("account locked", zap.String("user_id", subject), zap.String("ip", ip))
			return nil, utils.ErrAccountLocked
		}
		return nil, utils.ErrInvalidCredentials
	}

	if err := a.accountRepo.RecordSuccessfulLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	account.FailedLoginAttempts = 0
	account.LastLoginAt = &now

	token, err := a.tokens.CreateToken(account.ID, string(account.Role), string(account.Tier))
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	a.recordLogin(ctx, subject, ip, doc_models.EventLoginSuccess, true, nil)
	a.log.Debug("login completed", zap.String("user_id", subject), zap.Duration("took", time.Since(startTime)))

	return &resp.AccountLoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(a.tokens.TTL().Seconds()),
		Account:   ToAccountResponse(account),
	}, nil
}

func (a *AccountService) recordLogin(ctx context.Context, subject, ip, event string, success bool, details map[string]string) {
	ev := doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAuth,
		EventType: event,
		ActorID:   subject,
		SubjectID: subject,
		IP:        ip,
		Success:   success,
		Details:   details,
	}
	if !success {
		ev.FailureReason = event
	}
	a.audit.Record(ctx, ev)
}

func (a *AccountService) findAccount(ctx context.Context, userID string) (*db_models.Account, error) {
	account, err := a.accountRepo.FindById(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return account, nil
}

func (a *AccountService) Me(ctx context.Context, userID string) (*resp.AccountResponse, error) {
	account, err := a.findAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := ToAccountResponse(account)
	return &out, nil
}

func (a *AccountService) CurrentTier(ctx context.Context, userID string) (db_models.Tier, error) {
	account, err := a.findAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	if !account.IsActive {
		return "", utils.ErrAccountInactive
	}
	return account.Tier, nil
}

func (a *AccountService) ChangePassword(ctx context.Context, userID string, request request_models.ChangePasswordRequest, ip string) error {
	account, err := a.findAccount(ctx, userID)
	if err != nil {
		return err
	}
	if err := utils.ComparePasswords(account.PasswordHash, request.OldPassword); err != nil {
		return utils.ErrInvalidCredentials
	}
	if err := a.setPassword(ctx, account, request.NewPassword); err != nil {
		return err
	}
	a.recordLogin(ctx, account.ID.String(), ip, doc_models.EventPasswordChanged, true, nil)
	return nil
}

// ForgotPassword never reveals whether the email is registered.
func (a *AccountService) ForgotPassword(ctx context.Context, request request_models.RequestForgotPassword) error {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		a.log.Error("forgot password lookup failed", zap.Error(err))
		return nil
	}
	if account == nil || !account.IsActive {
		return nil
	}

	token, err := utils.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		a.log.Error("reset token generation failed", zap.Error(err))
		return nil
	}
	if err := a.resetTokens.Set(ctx, token, account.Email, a.auth.ResetTokenTTL); err != nil {
		a.log.Error("reset token not stored", zap.Error(err))
		return nil
	}
	if err := a.mail.SendMailToResetPassword(ctx, account.Email, token); err != nil {
		a.log.Error("reset email not sent", zap.String("user_id", account.ID.String()), zap.Error(err))
	}
	return nil
}

func (a *AccountService) ResetPassword(ctx context.Context, request request_models.ResetPasswordRequest, ip string) error {
	email, err := a.resetTokens.Consume(ctx, request.Token)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if email == "" || !strings.EqualFold(email, strings.TrimSpace(request.Email)) {
		return utils.ErrInvalidResetToken
	}

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return utils.ErrInvalidResetToken
	}
	if err := a.setPassword(ctx, account, request.NewPassword); err != nil {
		return err
	}
	a.recordLogin(ctx, account.ID.String(), ip, doc_models.EventPasswordReset, true, nil)
	return nil
}

func (a *AccountService) setPassword(ctx context.Context, account *db_models.Account, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.accountRepo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return nil
}

func ToAccountResponse(account *db_models.Account) resp.AccountResponse {
	features := permissions.Features(account.Tier)
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, string(f))
	}
	return resp.AccountResponse{
		ID:                   account.ID.String(),
		Name:                 account.Name,
		Email:                account.Email,
		Role:                 string(account.Role),
		Tier:                 string(account.Tier),
		IsActive:             account.IsActive,
		Features:             names,
		ContactLimit:         permissions.ContactLimit(account.Tier),
		LockedUntil:          account.LockedUntil,
		LastLoginAt:          account.LastLoginAt,
		CreatedAt:            account.CreatedAt,
		SubscriptionSnapshot: account.SubscriptionSnapshot,
	}
}
