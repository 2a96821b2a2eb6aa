package odoo

import (
	"context"
	"testing"

	"customermind/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOrders(t *testing.T) {
	partners := []map[string]interface{}{
		{"id": int64(7), "name": "Ada Lovelace", "email": "ADA@example.com", "parent_name": false, "commercial_company_name": "Analytical Ltd"},
		{"id": int64(9), "name": "Grace Hopper", "email": false, "parent_name": "Navy", "commercial_company_name": false},
	}
	orders := []map[string]interface{}{
		{"partner_id": []interface{}{int64(7), "Ada Lovelace"}, "amount_total": 120.5, "date_order": "2024-03-01 10:00:00"},
		{"partner_id": []interface{}{int64(7), "Ada Lovelace"}, "amount_total": 79.5, "date_order": "2024-01-15 08:30:00"},
		{"partner_id": []interface{}{int64(42), "Unknown"}, "amount_total": 10.0, "date_order": "2024-01-01 00:00:00"},
	}

	got := MergeOrders(partners, orders)
	require.Len(t, got, 2)

	ada := got[0]
	assert.Equal(t, "odoo:7", ada.ExternalID)
	assert.Equal(t, "ada@example.com", ada.Email)
	assert.Equal(t, "Analytical Ltd", ada.Company)
	assert.Equal(t, 2, ada.OrderCount)
	assert.Equal(t, int64(20000), ada.TotalSpentMinor)
	require.NotNil(t, ada.FirstOrderAt)
	require.NotNil(t, ada.LastOrderAt)
	assert.Equal(t, 1, int(ada.FirstOrderAt.Month()))
	assert.Equal(t, 3, int(ada.LastOrderAt.Month()))

	grace := got[1]
	assert.Equal(t, "", grace.Email)
	assert.Equal(t, "Navy", grace.Company)
	assert.Zero(t, grace.OrderCount)
	assert.Nil(t, grace.LastOrderAt)
}

func TestFetchCustomersNotConfigured(t *testing.T) {
	c := NewClient(config.OdooConfig{URL: "https://erp.example.com/"})
	assert.False(t, c.Configured())

	_, err := c.FetchCustomers(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
