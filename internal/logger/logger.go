package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quran-tui/internal/config"
)

// New builds the logger for the command line commands. Production uses JSON
// output, everything else the development console encoder. When cfg.Log.File
// is set output goes there instead of stderr.
func New(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, err
		}
		zc.OutputPaths = []string{cfg.Log.File}
		zc.ErrorOutputPaths = []string{cfg.Log.File}
	}

	return zc.Build()
}

// ForTUI returns a logger that never writes to the terminal: the configured
// file if any, otherwise a no-op logger.
func ForTUI(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	if cfg.Log.File == "" {
		return zap.NewNop(), nil
	}
	return New(cfg, verbose)
}
