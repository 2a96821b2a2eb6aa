package services

import (
	"context"
	"encoding/json"
	"fmt"

	"customermind/pkg/config"
	"customermind/pkg/utils"

	"github.com/payOSHQ/payos-lib-golang"
	"go.uber.org/zap"
)

type PaymentLinkRequest struct {
	OrderCode   int64
	AmountMinor int64
	ItemName    string
	Description string
}

type PaymentLink struct {
	OrderCode   int64
	CheckoutURL string
	Raw         any
}

// VerifiedPayment is the signed part of a webhook after signature verification.
type VerifiedPayment struct {
	OrderCode   int64
	AmountMinor int64
	Reference   string
}

type PaymentGateway interface {
	Name() string
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	VerifyWebhook(body []byte) (*VerifiedPayment, error)
}

type PayOSGateway struct {
	cfg        config.PaymentConfig
	configured bool
}

func NewPayOSGateway(cfg config.PaymentConfig, log *zap.Logger) *PayOSGateway {
	g := &PayOSGateway{cfg: cfg}
	if cfg.ClientID == "" || cfg.ApiKey == "" || cfg.ChecksumKey == "" {
		log.Warn("payOS credentials missing; checkout disabled")
		return g
	}
	if err := payos.Key(cfg.ClientID, cfg.ApiKey, cfg.ChecksumKey); err != nil {
		log.Error("payOS client init failed", zap.Error(err))
		return g
	}
	g.configured = true
	return g
}

func (g *PayOSGateway) Name() string {
	if g.cfg.ProviderName == "" {
		return "payos"
	}
	return g.cfg.ProviderName
}

func (g *PayOSGateway) CreatePaymentLink(_ context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	if !g.configured {
		return nil, fmt.Errorf("%w: payOS not configured", utils.ErrPaymentProvider)
	}

	body := payos.CheckoutRequestType{
		OrderCode: req.OrderCode,
		Amount:    int(req.AmountMinor),
		Items: []payos.Item{{
			Name:     req.ItemName,
			Price:    int(req.AmountMinor),
			Quantity: 1,
		}},
		Description: req.Description,
		CancelUrl:   g.cfg.CancelURL,
		ReturnUrl:   g.cfg.ReturnURL,
	}

	res, err := payos.CreatePaymentLink(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPaymentProvider, err)
	}
	return &PaymentLink{OrderCode: req.OrderCode, CheckoutURL: res.CheckoutUrl, Raw: res}, nil
}

func (g *PayOSGateway) VerifyWebhook(body []byte) (*VerifiedPayment, error) {
	if !g.configured {
		return nil, fmt.Errorf("%w: payOS not configured", utils.ErrPaymentProvider)
	}

	var hook payos.WebhookType
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidWebhook, err)
	}
	data, err := payos.VerifyPaymentWebhookData(hook)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidWebhook, err)
	}
	return &VerifiedPayment{
		OrderCode:   data.OrderCode,
		AmountMinor: int64(data.Amount),
		Reference:   data.Reference,
	}, nil
}
