package services

import (
	"context"
	"errors"
	"fmt"

	"customermind/pkg/utils"

	"go.uber.org/zap"
)

type DispatchResult struct {
	Provider  string
	MessageID string
	Attempted []string
}

type EmailDispatcherInterface interface {
	// Send tries each provider in order and stops at the first success.
	Send(ctx context.Context, msg EmailMessage) (DispatchResult, error)
	Providers() []string
}

type EmailDispatcher struct {
	providers []EmailProvider
	fromEmail string
	fromName  string
	log       *zap.Logger
}

func NewEmailDispatcher(providers []EmailProvider, fromEmail, fromName string, log *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		providers: providers,
		fromEmail: fromEmail,
		fromName:  fromName,
		log:       log,
	}
}

func (d *EmailDispatcher) Providers() []string {
	names := make([]string, 0, len(d.providers))
	for _, p := range d.providers {
		names = append(names, p.Name())
	}
	return names
}

func (d *EmailDispatcher) Send(ctx context.Context, msg EmailMessage) (DispatchResult, error) {
	var res DispatchResult
	if len(d.providers) == 0 {
		return res, utils.ErrNoEmailProvider
	}
	if msg.FromEmail == "" {
		msg.FromEmail = d.fromEmail
	}
	if msg.FromName == "" {
		msg.FromName = d.fromName
	}

	var errs []error
	for _, p := range d.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Attempted = append(res.Attempted, p.Name())

		id, err := p.Send(ctx, msg)
		if err == nil {
			res.Provider = p.Name()
			res.MessageID = id
			return res, nil
		}
		d.log.Warn("email provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.String("to", msg.To),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return res, fmt.Errorf("all email providers failed: %w", errors.Join(errs...))
}
