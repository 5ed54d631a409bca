package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig describes a rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// TeeFile returns a logger that also writes JSON lines to a rotating file at
// the same level as l. The closer releases the file. An empty Path returns l unchanged.
func TeeFile(l *zap.Logger, fc FileConfig) (*zap.Logger, io.Closer) {
	if fc.Path == "" {
		return l, io.NopCloser(nil)
	}
	rotator := &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	tee := l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), c)
		return zapcore.NewTee(c, fileCore)
	}))
	return tee, rotator
}
