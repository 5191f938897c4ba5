package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
)

type (
	// Authenticator exchanges credentials for a token.
	Authenticator interface {
		Login(ctx context.Context, username, password string) (string, error)
	}

	Options struct {
		Address        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		AppName        string

		Session    *session.Session
		Dashboard  *dashboard.Controller
		Auth       Authenticator
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		// SignalShutdown is called when a handler reports a core shutdown error.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := s.opts.SignalShutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = s.opts.Debug

	registerSessionAPI(s.app.Group(""), s.opts.Session, s.opts.Auth, s.opts.Validate, s.opts.Translator, s.opts.AppName)
	registerDashboardAPI(
		s.app.Group("/dashboard", guardMiddleware(s.opts.Session, session.RoleTeacher)),
		s.opts.Dashboard,
	)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
