package response_models

import "gorm.io/datatypes"

type AccountLoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresIn int64           `json:"expires_in"`
	Account   AccountResponse `json:"account"`
}

type AccountResponse struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Email                string         `json:"email"`
	Role                 string         `json:"role"`
	Tier                 string         `json:"tier"`
	IsActive             bool           `json:"is_active"`
	Features             []string       `json:"features"`
	ContactLimit         int            `json:"contact_limit"`
	LockedUntil          *int64         `json:"locked_until,omitempty"`
	LastLoginAt          *int64         `json:"last_login_at,omitempty"`
	CreatedAt            int64          `json:"created_at"`
	SubscriptionSnapshot datatypes.JSON `json:"subscription_snapshot,omitempty"`
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page,omitempty"`
	PageSize int   `json:"page_size,omitempty"`
}
