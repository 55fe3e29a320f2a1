// Package logger holds the process-wide zap logger.
//
// Logger starts as a no-op so packages can log before Initialize runs,
// and tests never need to set it up.
package logger

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured log entries.
const (
	FieldRunID    = "run_id"
	FieldFile     = "file"
	FieldOutput   = "output"
	FieldFormat   = "format"
	FieldLine     = "line"
	FieldKind     = "kind"
	FieldRows     = "rows"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldWorkers  = "workers"
)

var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize replaces Logger. Console output goes to stderr so converted
// data written to stdout stays clean.
func Initialize(level string, jsonOutput bool) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		if level != "" {
			return errors.Wrapf(err, "invalid log level %q", level)
		}
		lvl = zapcore.InfoLevel
	}

	var zl *zap.Logger
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.OutputPaths = []string{"stderr"}
		zl, err = cfg.Build()
		if err != nil {
			return errors.Wrap(err, "build json logger")
		}
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zl = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stderr),
			lvl,
		))
	}

	Logger = zl.Sugar()
	return nil
}

// Named returns a child logger for one component.
func Named(component string) *zap.SugaredLogger {
	return Logger.Named(component)
}

// Cleanup flushes buffered entries.
func Cleanup() {
	_ = Logger.Sync()
}
