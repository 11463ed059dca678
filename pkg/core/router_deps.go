package core

import (
	"net/http"
	"time"

	"github.com/joeydtaylor/steeze-dq/pkg/dq"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-dq/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-dq/pkg/session"
	httpx "github.com/joeydtaylor/steeze-dq/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  http.Handler
	Router   httpx.Router
	Loader   *dq.Loader
	Sessions *session.Store // required
	Log      *zap.Logger
	Now      func() time.Time
}
