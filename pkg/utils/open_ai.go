package utils

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
}

func NewOpenAIClient(apiKey, chatModel, embeddingModel string) *OpenAIClient {
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	return &OpenAIClient{
		client:         openai.NewClient(apiKey),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

func (c *OpenAIClient) Provider() string { return "openai" }

func (c *OpenAIClient) EmbeddingSource() string { return "openai:" + c.embeddingModel }

func (c *OpenAIClient) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: %w: no choices", ErrUnexpectedBehaviorOfAI)
	}
	return CleanJSONResponse(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) GetEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return pgvector.Vector{}, fmt.Errorf("openai embeddings: %w: empty data", ErrUnexpectedBehaviorOfAI)
	}
	return pgvector.NewVector(resp.Data[0].Embedding), nil
}

func (c *OpenAIClient) Close() error { return nil }
