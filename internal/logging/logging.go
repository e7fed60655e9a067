// Package logging builds the structured logger used by the command line.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr. Reports go to stdout and
// files, so log lines never mix with rendered output.
func New(verbose bool) (*zap.Logger, error) {
	return Config(verbose).Build()
}

// Config is the logger configuration New builds from
func Config(verbose bool) zap.Config {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "console",
		EncoderConfig:     encoder,
		DisableStacktrace: !verbose,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}
