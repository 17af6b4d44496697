// Package utils provides shared logging setup.
package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger writing to stderr, or to logFile when it is set.
// When debug is true, uses development config (human-readable, debug level);
// otherwise uses production config (JSON, info level). stdout is left to the
// menu output.
func NewLogger(debug bool, logFile ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	out := "stderr"
	if len(logFile) > 0 && logFile[0] != "" {
		out = logFile[0]
	}
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
