package echoweb

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/session"
	backendapi "github.com/gcl-lms/web/services/backend"
)

const (
	msgSessionExpired = "Your session has expired, please sign in again"
	msgForbidden      = "You do not have access to that page"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(appName string, logger core.Logger, sessions *session.Manager) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		if errors.Is(err, context.Canceled) { // the browser went away
			return
		}

		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		case *backendapi.Error:
			if origErr.StatusCode == http.StatusUnauthorized {
				sessions.For(ctx).Logout()
				setFlash(ctx, flashWarning, msgSessionExpired)
				redirect(ctx, session.LoginPath)
				return
			}
			if ctx.Request().Method != http.MethodGet {
				setFlash(ctx, flashError, origErr.Detail())
				redirect(ctx, backPath(ctx))
				return
			}
			// a failed page load is shown in place, so it cannot redirect to itself
			code = origErr.StatusCode
			if code < http.StatusBadRequest || code >= http.StatusInternalServerError {
				code = http.StatusBadGateway
			}
			message = origErr.Detail()
			if code == http.StatusForbidden {
				message = msgForbidden
			}
		case validator.ValidationErrors, *core.ValidationError:
			// forms render their own errors; this only catches the ones left unhandled
			setFlash(ctx, flashError, "The submitted data is invalid")
			redirect(ctx, backPath(ctx))
			return
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(code)

			if usr, ok := sessions.For(ctx).User(); ok {
				logger.Error(message, errors.Wrap(err, message), usr)
			} else {
				logger.Error(message, errors.Wrap(err, message))
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.Render(code, "error", errorPage(ctx, appName, sessions, code, message))
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func errorPage(ctx echo.Context, appName string, sessions *session.Manager, code int, message string) *page {
	p := &page{AppName: appName, Title: http.StatusText(code), Path: ctx.Request().URL.Path}
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		p.CSRF = token
	}
	if usr, ok := sessions.For(ctx).User(); ok {
		p.User = &usr
	}
	p.Data = struct {
		Code    int
		Message string
	}{code, message}
	return p
}

func redirect(ctx echo.Context, target string) {
	if err := ctx.Redirect(http.StatusSeeOther, target); err != nil {
		ctx.Echo().Logger.Error(err)
	}
}

// backPath is the same-origin page the request came from, or the dashboard.
func backPath(ctx echo.Context) string {
	req := ctx.Request()
	if ref, err := url.Parse(req.Referer()); err == nil && ref.Path != "" {
		if ref.Host == "" || ref.Host == req.Host {
			if ref.Path != req.URL.Path || req.Method != http.MethodGet {
				return ref.RequestURI()
			}
		}
	}
	return session.DashboardPath
}
