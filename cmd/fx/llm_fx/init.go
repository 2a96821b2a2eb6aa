package llm_fx

import (
	"context"

	"customermind/pkg/config"
	"customermind/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(ProvideLLMClient)

// ProvideLLMClient returns a nil client when no API key is set; the
// analytics services then answer with their heuristics.
func ProvideLLMClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) utils.LLMClientInterface {
	if cfg.LLM.APIKey == "" {
		log.Warn("LLM API key missing; AI features use heuristic fallbacks", zap.String("provider", cfg.LLM.Provider))
		return nil
	}

	client, err := utils.NewLLMClient(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.ChatModel, cfg.LLM.EmbeddingModel)
	if err != nil {
		log.Error("LLM client init failed; AI features use heuristic fallbacks", zap.Error(err))
		return nil
	}
	log.Info("LLM client initialized",
		zap.String("provider", client.Provider()),
		zap.String("chat_model", cfg.LLM.ChatModel))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
