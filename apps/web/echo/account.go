package echoweb

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
)

const profilePath = "/profile"

type accountHandlers struct {
	*server
}

func registerAccountRoutes(s *server) {
	h := accountHandlers{s}

	s.app.GET(session.DashboardPath, h.dashboard)
	s.app.GET(profilePath, h.profile)
	s.app.POST(profilePath+"/password", h.changePassword)
}

func (h accountHandlers) dashboard(ctx echo.Context) error {
	p := h.newPage(ctx, "Dashboard")
	return ctx.Render(http.StatusOK, "dashboard", p)
}

type profileData struct {
	Account user.User
	// PasswordPath receives the password change form.
	PasswordPath string
}

func (h accountHandlers) profile(ctx echo.Context) error {
	usr, err := h.api(ctx).Users().CurrentUser(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading current user")
	}
	p := h.newPage(ctx, "Profile")
	p.Form = user.ChangePassword{}
	p.Data = profileData{Account: usr, PasswordPath: passwordPath(ctx)}
	return ctx.Render(http.StatusOK, "profile", p)
}

func (h accountHandlers) changePassword(ctx echo.Context) error {
	authUsr, err := h.currentUser(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	back := strings.TrimSuffix(ctx.Request().URL.Path, "/password")

	var data user.ChangePassword
	err = bind(ctx, &data)
	if err == nil {
		err = data.Validate(h.Validate)
	}
	if err == nil {
		err = h.api(ctx).Users().ChangePassword(rctx, authUsr.ID, data)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Your password was changed")
		return ctx.Redirect(http.StatusSeeOther, back)
	}

	flds, ok := h.formErrors(err)
	if !ok {
		return errors.Wrap(err, "changing password")
	}
	usr, err := h.api(ctx).Users().CurrentUser(rctx)
	if err != nil {
		return errors.Wrap(err, "loading current user")
	}
	p := h.newPage(ctx, "Profile")
	p.Path = back
	p.Form = user.ChangePassword{}
	p.Errors = flds
	p.Data = profileData{Account: usr, PasswordPath: ctx.Request().URL.Path}
	return ctx.Render(http.StatusBadRequest, "profile", p)
}

func passwordPath(ctx echo.Context) string {
	return strings.TrimRight(ctx.Request().URL.Path, "/") + "/password"
}
