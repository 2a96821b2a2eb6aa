package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions matches the vector(1536) column.
const EmbeddingDimensions = 1536

// EmbeddingSourceHashed labels vectors built by HashedEmbedding.
const EmbeddingSourceHashed = "hashed"

// LLMClientInterface is the chat + embedding surface used by the analytics services.
type LLMClientInterface interface {
	// CompleteJSON asks the model for a JSON object and returns the cleaned JSON text.
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
	GetEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
	// EmbeddingSource names the vector space GetEmbedding writes into.
	EmbeddingSource() string
	Provider() string
	Close() error
}

// NewLLMClient Factory function to create either OpenAI or Gemini client based on config
func NewLLMClient(provider, apiKey, chatModel, embeddingModel string) (LLMClientInterface, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for provider %s", provider)
	}
	switch strings.ToLower(provider) {
	case "openai":
		return NewOpenAIClient(apiKey, chatModel, embeddingModel), nil
	case "gemini":
		return NewGeminiClient(apiKey, chatModel)
	default:
		return nil, fmt.Errorf("unsupported provider: %s. Use 'openai' or 'gemini'", provider)
	}
}

// DecodeJSONAnswer extracts the first JSON object from an LLM answer and decodes it into v.
func DecodeJSONAnswer(answer string, v any) error {
	cleaned := CleanJSONResponse(answer)
	if !json.Valid([]byte(cleaned)) {
		return fmt.Errorf("%w: answer is not valid json", ErrUnexpectedBehaviorOfAI)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedBehaviorOfAI, err)
	}
	return nil
}

// CleanJSONResponse removes markdown fences and any prose around the first JSON value.
func CleanJSONResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```JSON", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	objStart := strings.Index(response, "{")
	arrStart := strings.Index(response, "[")

	if objStart != -1 && (arrStart == -1 || objStart < arrStart) {
		if end := findMatching(response, objStart, '{', '}'); end != -1 {
			response = response[objStart : end+1]
		}
	} else if arrStart != -1 {
		if end := findMatching(response, arrStart, '[', ']'); end != -1 {
			response = response[arrStart : end+1]
		}
	}

	return strings.TrimSpace(response)
}

// findMatching returns the index of the delimiter closing s[start], skipping string literals.
func findMatching(s string, start int, open, close byte) int {
	if start >= len(s) || s[start] != open {
		return -1
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' && inString {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch char {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// HashedEmbedding is a deterministic bag-of-words vector for providers without an embedding endpoint.
func HashedEmbedding(text string) pgvector.Vector {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	vector := make([]float32, EmbeddingDimensions)

	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		hash := h.Sum32()
		for i := 0; i < EmbeddingDimensions; i++ {
			vector[i] += float32(math.Sin(float64(hash+uint32(i))) * 0.1)
		}
	}

	var magnitude float64
	for _, val := range vector {
		magnitude += float64(val * val)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / magnitude)
		}
	}

	return pgvector.NewVector(vector)
}
