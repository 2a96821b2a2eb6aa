package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"customermind/pkg/config"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewEmailProvidersKeepsChainOrderAndSkipsUnconfigured(t *testing.T) {
	providers := NewEmailProviders(config.EmailConfig{
		Providers:     []string{ProviderPostmark, ProviderSendGrid, "carrier-pigeon", ProviderResend, ProviderSMTP},
		ResendAPIKey:  "re_test",
		PostmarkToken: "pm_test",
	}, zap.NewNop())

	var names []string
	for _, p := range providers {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{ProviderPostmark, ProviderResend}, names)
}

func TestResendProviderSendsThroughClient(t *testing.T) {
	var got resend.SendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	client := resend.NewCustomClient(srv.Client(), "re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	p := &resendProvider{client: client}
	id, err := p.Send(context.Background(), EmailMessage{
		To:        "buyer@example.com",
		Subject:   "Your weekly digest",
		HTML:      "<p>hi</p>",
		Text:      "hi",
		FromEmail: "team@example.com",
		FromName:  "Team",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_123", id)
	assert.Equal(t, []string{"buyer@example.com"}, got.To)
	assert.Equal(t, "Team <team@example.com>", got.From)
	assert.Equal(t, "Your weekly digest", got.Subject)
}

func TestResendProviderSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	client := resend.NewCustomClient(srv.Client(), "re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	_, err = (&resendProvider{client: client}).Send(context.Background(), EmailMessage{To: "bad", FromEmail: "team@example.com"})
	assert.Error(t, err)
}
