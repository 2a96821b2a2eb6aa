package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/api/option"
)

// GeminiClient implements LLMClientInterface using Google's Gemini models
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-1.5-flash" // Free tier model
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }

func (c *GeminiClient) EmbeddingSource() string { return EmbeddingSourceHashed }

func (c *GeminiClient) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	m.SetTemperature(0.2)
	m.SetTopP(0.5)
	m.SetMaxOutputTokens(2048)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w: no content", ErrUnexpectedBehaviorOfAI)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: %w: no text parts", ErrUnexpectedBehaviorOfAI)
	}
	return CleanJSONResponse(sb.String()), nil
}

// GetEmbedding uses the hashed fallback since the free tier has no embedding model.
func (c *GeminiClient) GetEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	return HashedEmbedding(text), nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
