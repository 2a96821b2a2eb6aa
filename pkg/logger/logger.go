package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"customermind/pkg/config"
)

// New builds the process logger. Development mode switches to the console encoder.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}
