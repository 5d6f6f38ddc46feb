package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
	backendapi "github.com/gcl-lms/web/services/backend"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Backend    *backendapi.Client
		Sessions   *session.Manager
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		render   *renderer
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		render:     newRenderer(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Server.ReadTimeout = s.Conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = s.Conf.Server.WriteTimeout
	s.app.Renderer = s.render

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		ContextKey:     csrfContextKey,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   s.Conf.Session.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	s.app.Use(s.refreshExpired, session.GuardMiddleware(s.Sessions))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Conf.AppName, s.Logger, s.Sessions)
	s.app.Debug = s.Conf.Debug

	s.app.StaticFS("/static", echo.MustSubFS(staticFS, "static"))
	s.app.GET("/healthz", healthz)

	registerAuthRoutes(s)
	registerAccountRoutes(s)
	registerAdminRoutes(s.app.Group("/admin", requireRole(s.Sessions, user.RoleAdmin)), s)
	registerTeacherRoutes(s.app.Group("/teacher", requireRole(s.Sessions, user.RoleTeacher)), s)
	registerStudentRoutes(s.app.Group("/student", requireRole(s.Sessions, user.RoleStudent)), s)
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// refreshExpired exchanges the refresh token when the access token has expired,
// before the guard looks at the session.
func (s *server) refreshExpired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		auth := s.Sessions.For(ctx)
		if auth.ValidateToken() != session.StateAuthenticated {
			return next(ctx)
		}
		usr, _ := auth.User()
		if !usr.Expired(time.Now()) {
			return next(ctx)
		}
		if err := auth.Refresh(ctx.Request().Context()); err != nil {
			if errors.Is(err, backendapi.ErrUnauthorized) || session.IsDecodeError(err) {
				auth.Logout()
			} else if !errors.Is(err, session.ErrNoRefreshToken) {
				s.Logger.Warn("refreshing session", err, usr)
			}
		}
		return next(ctx)
	}
}

func healthz(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}
