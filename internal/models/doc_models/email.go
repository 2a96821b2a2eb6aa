package doc_models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CampaignStatus string

const (
	CampaignDraft         CampaignStatus = "draft"
	CampaignSending       CampaignStatus = "sending"
	CampaignSent          CampaignStatus = "sent"
	CampaignPartiallySent CampaignStatus = "partially_sent"
	CampaignFailed        CampaignStatus = "failed"
)

type Recipient struct {
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
}

type EmailCampaign struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    string             `bson:"tenant_id" json:"tenant_id"`
	Name        string             `bson:"name" json:"name"`
	Subject     string             `bson:"subject" json:"subject"`
	HTMLContent string             `bson:"html_content" json:"html_content"`
	TextContent string             `bson:"text_content,omitempty" json:"text_content,omitempty"`
	Recipients  []Recipient        `bson:"recipients" json:"recipients"`

	Status          CampaignStatus `bson:"status" json:"status"`
	TotalRecipients int            `bson:"total_recipients" json:"total_recipients"`
	SentCount       int            `bson:"sent_count" json:"sent_count"`
	FailedCount     int            `bson:"failed_count" json:"failed_count"`
	ProviderUsed    string         `bson:"provider_used,omitempty" json:"provider_used,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// FinalStatus derives the terminal status from the recipient outcomes.
func FinalStatus(sent, failed int) CampaignStatus {
	switch {
	case sent > 0 && failed == 0:
		return CampaignSent
	case sent == 0:
		return CampaignFailed
	default:
		return CampaignPartiallySent
	}
}

type EmailLogStatus string

const (
	EmailLogSent   EmailLogStatus = "sent"
	EmailLogFailed EmailLogStatus = "failed"
)

type EmailLog struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CampaignID *primitive.ObjectID `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	TenantID   string              `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Recipient  string              `bson:"recipient" json:"recipient"`
	Subject    string              `bson:"subject" json:"subject"`
	Kind       string              `bson:"kind" json:"kind"` // campaign, password_reset, health_alert

	Provider           string         `bson:"provider,omitempty" json:"provider,omitempty"`
	AttemptedProviders []string       `bson:"attempted_providers,omitempty" json:"attempted_providers,omitempty"`
	ProviderMessageID  string         `bson:"provider_message_id,omitempty" json:"provider_message_id,omitempty"`
	Status             EmailLogStatus `bson:"status" json:"status"`
	Error              string         `bson:"error,omitempty" json:"error,omitempty"`
	SentAt             time.Time      `bson:"sent_at" json:"sent_at"`
}
