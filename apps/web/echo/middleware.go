package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
	backendapi "github.com/gcl-lms/web/services/backend"
)

const (
	csrfField      = "_csrf"
	csrfContextKey = "csrf"
)

var errNoSession = errors.New("no authenticated user in session")

// requireRole lets through the users whose token carries role, in any of its spellings.
// Everyone else is sent to their dashboard, which is never role-gated.
func requireRole(sessions *session.Manager, role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := sessions.For(ctx).User()
			if !ok {
				return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
			}
			if usr.Role != role {
				setFlash(ctx, flashWarning, msgForbidden)
				return ctx.Redirect(http.StatusSeeOther, session.DashboardPath)
			}
			return next(ctx)
		}
	}
}

// currentUser is the user of the guarded request.
func (s *server) currentUser(ctx echo.Context) (session.AuthenticatedUser, error) {
	usr, ok := s.Sessions.For(ctx).User()
	if !ok {
		return session.AuthenticatedUser{}, errNoSession
	}
	return usr, nil
}

// api is the backend client acting on behalf of the request's session.
func (s *server) api(ctx echo.Context) *backendapi.Client {
	return s.Backend.As(s.Sessions.For(ctx))
}

// formErrors returns the messages to show next to the fields of a rejected form.
// Validation errors and backend rejections (400) qualify; any other error does not.
func (s *server) formErrors(err error) (map[string]string, bool) {
	err = core.TranslateValidationError(err, s.Translator)

	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		flds := vErr.FieldMap()
		if len(flds) == 0 {
			flds[""] = vErr.Error()
		}
		return flds, true
	}
	var apiErr *backendapi.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		return map[string]string{"": apiErr.Detail()}, true
	}
	return nil, false
}

// bind fills form from the request, reporting binding failures as a field-less validation error.
func bind(ctx echo.Context, form interface{}) error {
	if err := ctx.Bind(form); err != nil {
		return core.NewValidationError(errors.New("the submitted data could not be read"))
	}
	return nil
}

func pathID(ctx echo.Context, name string) core.ID {
	return core.NormalizeID(ctx.Param(name))
}

func queryID(ctx echo.Context, name string) core.ID {
	return core.NormalizeID(ctx.QueryParam(name))
}
