// Package logging builds the process-wide zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON sugared logger at level ("debug", "info", "warn",
// "error") writing to stdout and, when file is set, to a rotated log file.
// Unknown levels mean info. The logger also replaces zap's globals so
// packages without an injected logger report through it.
func New(level, file string) *zap.SugaredLogger {
	logger := zap.New(newCore(level, file, os.Stdout),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	zap.ReplaceGlobals(logger)
	return logger.Sugar()
}

func newCore(level, file string, console zapcore.WriteSyncer) zapcore.Core {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{zapcore.NewCore(encoder, console, lvl)}
	if file != "" {
		rotation := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxAge:     7,   // days
			MaxBackups: 5,
			Compress:   true,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotation), lvl))
	}
	return zapcore.NewTee(cores...)
}
