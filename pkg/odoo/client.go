// Package odoo reads customers and their sales orders from an Odoo instance over XML-RPC.
package odoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"customermind/pkg/config"

	"github.com/kolo/xmlrpc"
)

// ErrNotConfigured is returned when no Odoo URL or credentials are set.
var ErrNotConfigured = errors.New("odoo is not configured")

const (
	dateLayout     = "2006-01-02 15:04:05"
	defaultLimit   = 500
	partnerModel   = "res.partner"
	saleOrderModel = "sale.order"
)

// Customer is a partner merged with the totals of its confirmed sales orders.
type Customer struct {
	ExternalID      string
	Name            string
	Email           string
	Company         string
	TotalSpentMinor int64
	OrderCount      int
	FirstOrderAt    *time.Time
	LastOrderAt     *time.Time
}

type Client struct {
	cfg config.OdooConfig
}

func NewClient(cfg config.OdooConfig) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{cfg: cfg}
}

func (c *Client) Configured() bool {
	return c.cfg.URL != "" && c.cfg.Database != "" && c.cfg.Username != "" && c.cfg.APIKey != ""
}

// FetchCustomers authenticates, reads up to limit customer partners and folds
// their sale orders into spend and order counts.
func (c *Client) FetchCustomers(ctx context.Context, limit int) ([]Customer, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	uid, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	partners, err := c.searchRead(ctx, uid, partnerModel,
		[]interface{}{[]interface{}{"customer_rank", ">", 0}},
		[]string{"id", "name", "email", "parent_name", "commercial_company_name"},
		limit)
	if err != nil {
		return nil, err
	}
	if len(partners) == 0 {
		return nil, nil
	}

	ids := make([]interface{}, 0, len(partners))
	for _, p := range partners {
		if id, ok := asInt(p["id"]); ok {
			ids = append(ids, id)
		}
	}

	orders, err := c.searchRead(ctx, uid, saleOrderModel,
		[]interface{}{
			[]interface{}{"partner_id", "in", ids},
			[]interface{}{"state", "in", []interface{}{"sale", "done"}},
		},
		[]string{"partner_id", "amount_total", "date_order"},
		0)
	if err != nil {
		return nil, err
	}

	return MergeOrders(partners, orders), nil
}

func (c *Client) authenticate(ctx context.Context) (int64, error) {
	var uid interface{}
	err := c.call(ctx, "/xmlrpc/2/common", "authenticate",
		[]interface{}{c.cfg.Database, c.cfg.Username, c.cfg.APIKey, map[string]interface{}{}}, &uid)
	if err != nil {
		return 0, fmt.Errorf("odoo authenticate: %w", err)
	}
	id, ok := asInt(uid)
	if !ok || id == 0 {
		return 0, errors.New("odoo authenticate: credentials rejected")
	}
	return id, nil
}

func (c *Client) searchRead(ctx context.Context, uid int64, model string, domain []interface{}, fields []string, limit int) ([]map[string]interface{}, error) {
	opts := map[string]interface{}{"fields": fields}
	if limit > 0 {
		opts["limit"] = limit
	}

	var rows []map[string]interface{}
	err := c.call(ctx, "/xmlrpc/2/object", "execute_kw", []interface{}{
		c.cfg.Database, uid, c.cfg.APIKey,
		model, "search_read",
		[]interface{}{domain},
		opts,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("odoo %s search_read: %w", model, err)
	}
	return rows, nil
}

// call runs one XML-RPC request. The library has no context support, so the
// request is abandoned (not aborted) when ctx ends first.
func (c *Client) call(ctx context.Context, path, method string, args []interface{}, reply interface{}) error {
	client, err := xmlrpc.NewClient(c.cfg.URL+path, nil)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer client.Close()
		done <- client.Call(method, args, reply)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MergeOrders builds customers from partner rows and sums the order rows onto them.
// Odoo returns false for empty fields, which is treated as unset.
func MergeOrders(partners, orders []map[string]interface{}) []Customer {
	ids := make([]int64, 0, len(partners))
	out := make([]Customer, 0, len(partners))
	for _, p := range partners {
		id, ok := asInt(p["id"])
		if !ok {
			continue
		}
		ids = append(ids, id)
		out = append(out, Customer{
			ExternalID: fmt.Sprintf("odoo:%d", id),
			Name:       asString(p["name"]),
			Email:      strings.ToLower(asString(p["email"])),
			Company:    firstString(p["commercial_company_name"], p["parent_name"]),
		})
	}
	byID := make(map[int64]*Customer, len(out))
	for i := range out {
		byID[ids[i]] = &out[i]
	}

	for _, o := range orders {
		pid, ok := relationID(o["partner_id"])
		if !ok {
			continue
		}
		cust := byID[pid]
		if cust == nil {
			continue
		}
		cust.OrderCount++
		cust.TotalSpentMinor += int64(math.Round(asFloat(o["amount_total"]) * 100))

		if at, err := time.Parse(dateLayout, asString(o["date_order"])); err == nil {
			at = at.UTC()
			if cust.FirstOrderAt == nil || at.Before(*cust.FirstOrderAt) {
				first := at
				cust.FirstOrderAt = &first
			}
			if cust.LastOrderAt == nil || at.After(*cust.LastOrderAt) {
				last := at
				cust.LastOrderAt = &last
			}
		}
	}
	return out
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

// relationID reads a many2one value, which Odoo sends as [id, display_name].
func relationID(v interface{}) (int64, bool) {
	if pair, ok := v.([]interface{}); ok && len(pair) > 0 {
		return asInt(pair[0])
	}
	return asInt(v)
}
