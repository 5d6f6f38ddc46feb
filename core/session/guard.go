package session

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var (
	// publicPaths are the paths of anonymous users; authenticated users are sent to the dashboard.
	publicPaths = map[string]bool{
		LoginPath: true,
		"/":       true,
	}

	// openPaths may be visited in any state.
	openPaths = map[string]bool{
		"/register":      true,
		"/login/recover": true,
		"/healthz":       true,
	}
	openPrefixes = []string{
		"/login/recover/reset-password/",
		"/static/",
	}
)

// Decision of the guard for a navigation.
type Decision struct {
	Redirect bool
	Target   string
}

func IsPublic(path string) bool {
	return publicPaths[cleanPath(path)]
}

func isOpen(path string) bool {
	path = cleanPath(path)
	if openPaths[path] {
		return true
	}
	for _, prefix := range openPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Guard decides whether a navigation to path must be redirected.
// Nothing is redirected until the state is known.
func Guard(state State, path string) Decision {
	switch state {
	case StateAnonymous:
		if !IsPublic(path) && !isOpen(path) {
			return Decision{Redirect: true, Target: LoginPath}
		}
	case StateAuthenticated:
		if IsPublic(path) {
			return Decision{Redirect: true, Target: DashboardPath}
		}
	}
	return Decision{}
}

func cleanPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

// GuardMiddleware validates the session of every request and applies Guard to it.
func GuardMiddleware(m *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := m.For(ctx)
			state := auth.ValidateToken()
			if d := Guard(state, ctx.Request().URL.Path); d.Redirect {
				return ctx.Redirect(http.StatusSeeOther, d.Target)
			}
			return next(ctx)
		}
	}
}
