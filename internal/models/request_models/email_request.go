package request_models

type RecipientRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=120"`
}

type CreateCampaignRequest struct {
	Name        string             `json:"name" binding:"required,max=200"`
	Subject     string             `json:"subject" binding:"required,max=300"`
	HTMLContent string             `json:"html_content" binding:"required"`
	TextContent string             `json:"text_content"`
	Recipients  []RecipientRequest `json:"recipients" binding:"required,min=1,dive"`
}
