package services

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"customermind/internal/models/doc_models"
	"customermind/pkg/config"
)

const (
	SegmentChampion   = "champion"
	SegmentLoyal      = "loyal"
	SegmentAtRisk     = "at_risk"
	SegmentNew        = "new"
	SegmentDeveloping = "developing"
)

// atRiskChurn is the churn probability from which a customer counts as at risk.
const atRiskChurn = 0.6

// CustomerFingerprint changes whenever a fact used by the analysis prompt changes.
func CustomerFingerprint(c *doc_models.Customer) string {
	h := fnv.New64a()
	last := int64(0)
	if c.LastPurchaseAt != nil {
		last = c.LastPurchaseAt.Unix()
	}
	products := append([]string(nil), c.Products...)
	sort.Strings(products)
	fmt.Fprintf(h, "%d|%d|%d|%d|%.1f|%s", c.TotalSpentMinor, c.OrderCount, last, c.SupportTickets, c.EngagementScore, strings.Join(products, ","))
	return fmt.Sprintf("%x", h.Sum64())
}

// HeuristicChurn estimates churn probability from recency, engagement and support load.
func HeuristicChurn(c *doc_models.Customer, now time.Time) float64 {
	days := c.DaysSinceLastPurchase(now)
	var churn float64
	switch {
	case days < 0:
		churn = 0.5
	case days > 180:
		churn = 0.85
	case days > 90:
		churn = 0.65
	case days > 30:
		churn = 0.35
	default:
		churn = 0.15
	}
	churn += (50 - c.EngagementScore) / 250
	if c.SupportTickets > 3 {
		churn += 0.1
	}
	return round2(clamp(churn, 0, 1))
}

func HeuristicSegment(c *doc_models.Customer, churn float64) string {
	switch {
	case churn >= atRiskChurn:
		return SegmentAtRisk
	case c.TotalSpentMinor >= 500000:
		return SegmentChampion
	case c.OrderCount >= 5:
		return SegmentLoyal
	case c.OrderCount <= 1:
		return SegmentNew
	default:
		return SegmentDeveloping
	}
}

// HeuristicAnalysis is the deterministic analysis used when the model is unavailable.
func HeuristicAnalysis(c *doc_models.Customer, now time.Time) doc_models.CustomerAnalysis {
	churn := HeuristicChurn(c, now)
	segment := HeuristicSegment(c, churn)

	ltv := c.TotalSpentMinor + int64(math.Round(float64(c.TotalSpentMinor)*(1-churn)))

	a := doc_models.CustomerAnalysis{
		TenantID:          c.TenantID,
		CustomerID:        c.ID.Hex(),
		Segment:           segment,
		PurchasePattern:   purchasePattern(c),
		ChurnRisk:         churn,
		PredictedLTVMinor: ltv,
		Source:            doc_models.SourceFallback,
		CreatedAt:         now,
	}

	switch segment {
	case SegmentChampion:
		a.NextBestAction = "Invite to a loyalty or referral program"
		a.Recommendations = []string{"Offer early access to new products", "Ask for a review or case study"}
	case SegmentLoyal:
		a.NextBestAction = "Offer a volume or bundle discount"
		a.Recommendations = []string{"Recommend complementary products", "Send a personalised thank-you"}
	case SegmentAtRisk:
		a.NextBestAction = "Start a win-back campaign"
		a.Recommendations = []string{"Reach out personally to understand concerns", "Offer a time-limited incentive"}
	case SegmentNew:
		a.NextBestAction = "Send an onboarding sequence"
		a.Recommendations = []string{"Share getting-started content", "Offer a second-purchase discount"}
	default:
		a.NextBestAction = "Nurture with targeted content"
		a.Recommendations = []string{"Highlight popular products", "Encourage a repeat purchase"}
	}
	if c.SupportTickets > 3 {
		a.Recommendations = append(a.Recommendations, "Review open support issues")
	}
	return a
}

func purchasePattern(c *doc_models.Customer) string {
	switch {
	case c.OrderCount == 0:
		return "no purchases yet"
	case c.OrderCount == 1:
		return "single purchase"
	case c.FirstPurchaseAt == nil || c.LastPurchaseAt == nil:
		return fmt.Sprintf("%d purchases", c.OrderCount)
	}
	span := c.LastPurchaseAt.Sub(*c.FirstPurchaseAt).Hours() / 24
	every := int(math.Round(span / float64(c.OrderCount-1)))
	if every < 1 {
		every = 1
	}
	return fmt.Sprintf("buys roughly every %d days", every)
}

// HeuristicHealth scores a customer 0..100 from recency, frequency, spend, tickets and engagement.
func HeuristicHealth(c *doc_models.Customer, now time.Time) (int, []string, []string) {
	score := 50.0
	var factors, recs []string

	days := c.DaysSinceLastPurchase(now)
	switch {
	case days < 0:
		score -= 10
		factors = append(factors, "no purchase history")
		recs = append(recs, "Encourage a first purchase")
	case days <= 30:
		score += 20
		factors = append(factors, "purchased in the last 30 days")
	case days <= 90:
		score += 5
		factors = append(factors, fmt.Sprintf("last purchase %d days ago", days))
	case days <= 180:
		score -= 10
		factors = append(factors, fmt.Sprintf("no purchase for %d days", days))
		recs = append(recs, "Send a re-engagement offer")
	default:
		score -= 25
		factors = append(factors, fmt.Sprintf("inactive for %d days", days))
		recs = append(recs, "Start a win-back campaign")
	}

	switch {
	case c.OrderCount >= 10:
		score += 10
		factors = append(factors, "frequent buyer")
	case c.OrderCount >= 4:
		score += 5
	case c.OrderCount <= 1:
		score -= 5
		factors = append(factors, "few orders")
	}

	switch {
	case c.TotalSpentMinor >= 500000:
		score += 10
		factors = append(factors, "high lifetime spend")
	case c.TotalSpentMinor >= 100000:
		score += 5
	}

	if c.SupportTickets > 0 {
		score -= math.Min(float64(c.SupportTickets)*4, 20)
		factors = append(factors, fmt.Sprintf("%d support tickets", c.SupportTickets))
		if c.SupportTickets > 3 {
			recs = append(recs, "Review open support issues")
		}
	}

	score += (c.EngagementScore - 50) / 2.5
	if c.EngagementScore < 30 {
		factors = append(factors, "low engagement")
		recs = append(recs, "Send personalised content")
	}

	if len(recs) == 0 {
		recs = append(recs, "Keep the relationship warm with regular check-ins")
	}
	return int(math.Round(clamp(score, 0, 100))), factors, recs
}

// HealthStatusFor maps a score onto healthy/at_risk/critical.
func HealthStatusFor(score int, cfg config.HealthConfig) doc_models.HealthStatus {
	switch {
	case score >= cfg.HealthyThreshold:
		return doc_models.HealthHealthy
	case score >= cfg.CriticalThreshold:
		return doc_models.HealthAtRisk
	default:
		return doc_models.HealthCritical
	}
}

// AlertSeverityFor returns false when the score needs no alert.
func AlertSeverityFor(score int, cfg config.HealthConfig) (doc_models.AlertSeverity, bool) {
	switch {
	case score < cfg.CriticalThreshold:
		return doc_models.AlertCritical, true
	case score < cfg.WarningThreshold:
		return doc_models.AlertWarning, true
	default:
		return "", false
	}
}

// customerFacts renders the facts the model sees about a customer.
func customerFacts(c *doc_models.Customer, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	if c.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", c.Company)
	}
	fmt.Fprintf(&b, "Total spent (minor units): %d\n", c.TotalSpentMinor)
	fmt.Fprintf(&b, "Orders: %d\n", c.OrderCount)
	if days := c.DaysSinceLastPurchase(now); days >= 0 {
		fmt.Fprintf(&b, "Days since last purchase: %d\n", days)
	} else {
		b.WriteString("Days since last purchase: never purchased\n")
	}
	if c.FirstPurchaseAt != nil {
		fmt.Fprintf(&b, "Customer since: %s\n", c.FirstPurchaseAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Support tickets: %d\n", c.SupportTickets)
	fmt.Fprintf(&b, "Engagement score (0-100): %.0f\n", c.EngagementScore)
	if len(c.Products) > 0 {
		fmt.Fprintf(&b, "Products owned: %s\n", strings.Join(c.Products, ", "))
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
