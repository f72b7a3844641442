package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/schedule"
	"github.com/trezcool/ekklesia/core/song"
	"github.com/trezcool/ekklesia/core/user"
	metricsvc "github.com/trezcool/ekklesia/services/metrics"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Metrics        *metricsvc.Metrics // optional
		DisableReqLogs bool
		UserSvc        *user.Service
		MemberSvc      *member.Service
		SongSvc        *song.Service
		ScheduleSvc    *schedule.Service
		FinanceSvc     *finance.Service
		Validate       *validator.Validate
		Translator     ut.Translator
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		auth:       newAuthenticator(deps.Conf, deps.UserSvc),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.Conf.Debug
	s.app.Logger.SetLevel(log.INFO)
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if s.Metrics != nil {
		s.app.Use(metricsMiddleware(s.Metrics))
	}
	if !s.DisableReqLogs {
		s.app.Use(requestLoggerMiddleware(s.Logger))
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", s.home)
	if s.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()
	limiter := newRateLimiter(s.Conf.Server.LoginRateLimit, s.Conf.Server.LoginRateBurst)

	registerUserAPI(v1, jwt, limiter, s.auth, s.UserSvc, s.Validate)
	registerSongAPI(v1, jwt, s.SongSvc, s.Validate)
	registerDepartmentAPI(v1, jwt, s.MemberSvc, s.ScheduleSvc, s.Validate)
	registerFinanceAPI(v1, jwt, s.FinanceSvc, s.Validate)
}

// Start blocks until the server stops; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.Conf.AppName+" API!")
}
