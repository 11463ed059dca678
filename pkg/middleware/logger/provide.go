package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Middleware writes one access-log line per request.
type Middleware struct{}

func ProvideLoggerMiddleware() *Middleware { return &Middleware{} }
func ProvideLogger() *zap.Logger           { return NewLog("system.log") }

// Module provides the system logger and the access-log middleware.
var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)
