package logger

import (
	"crm-support/internal/config"
	"crm-support/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the zap logger. Besides the console encoder, log entries
// are teed into an async writer that persists them to the app_logs
// collection, so notification failures and other operational events stay
// observable after the fact.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}
