// Package logging builds the zap logger used at the CLI boundary. The
// compiler packages (lexer, parser, translate) stay pure and take no
// logger, matching the pipeline's stated purity.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a stderr logger at the given level, structured the way
// the pack's own LSP server builds its startup logger.
func New(debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}
