package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"todoapi/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DotEnvFile is loaded into the process environment before configuration is read
const DotEnvFile = ".env"

// InitLogger initializes the zap logger with colored console output.
func InitLogger() (*zap.Logger, *zap.SugaredLogger, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapcore.DebugLevel,
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, logger.Sugar(), nil
}

// LoadDotEnv loads variables from path into the environment. Variables that are
// already set win. A missing file is not an error.
func LoadDotEnv(path string, sugar *zap.SugaredLogger) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			sugar.Debugw("No .env file found, using process environment", "path", path)
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	sugar.Infow("Loaded environment file", "path", path)
	return nil
}

// InitConfig loads .env, then the application configuration.
func InitConfig(sugar *zap.SugaredLogger) (*config.Config, error) {
	if err := LoadDotEnv(DotEnvFile, sugar); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load config: %v\n", err)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	sugar.Infow("Configuration loaded",
		"port", cfg.API.Port,
		"collection", cfg.MongoDB.Collection,
		"secrets_provider", cfg.Secrets.Provider,
		"rate_limit", cfg.API.RateLimit.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)
	return cfg, nil
}
