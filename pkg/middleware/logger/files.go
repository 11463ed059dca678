package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func logDir() string {
	dir := strings.TrimSpace(os.Getenv("LOG_DIR"))
	if dir == "" {
		dir = "log"
	}
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// NewLog tees JSON logs to log/<n> (rotated) and stdout.
func NewLog(n string) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.InfoLevel
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = zap.DebugLevel
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir(), n),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stdout), level),
	)
	return zap.New(core)
}

var (
	accessOnce       sync.Once
	accessMu         sync.RWMutex
	httpAccessLogger *zap.Logger
)

func accessLogger() *zap.Logger {
	accessOnce.Do(func() {
		accessMu.Lock()
		if httpAccessLogger == nil {
			httpAccessLogger = NewLog("http-access.log")
		}
		accessMu.Unlock()
	})
	accessMu.RLock()
	defer accessMu.RUnlock()
	return httpAccessLogger
}

// SetAccessLogger lets tests/CLIs override the access logger.
func SetAccessLogger(l *zap.Logger) {
	if l != nil {
		accessMu.Lock()
		httpAccessLogger = l
		accessMu.Unlock()
	}
}
