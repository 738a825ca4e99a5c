package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/config"
)

// NewZapLogger builds the process logger at the level from config.
// Levels follow zapcore: -1 debug, 0 info, 1 warn, 2 error.
func NewZapLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.Level(cfg.LogLevel))
	return zcfg.Build()
}
