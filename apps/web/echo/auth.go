package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
)

const (
	registerPath = "/register"
	recoverPath  = "/login/recover"
)

type authHandlers struct {
	*server
}

func registerAuthRoutes(s *server) {
	h := authHandlers{s}

	s.app.GET("/", h.home)
	s.app.GET(session.LoginPath, h.loginForm)
	s.app.POST(session.LoginPath, h.login)
	s.app.POST("/logout", h.logout)
	s.app.GET(registerPath, h.registerForm)
	s.app.POST(registerPath, h.register)
	s.app.GET(recoverPath, h.recoverForm)
	s.app.POST(recoverPath, h.recoverPassword)
	s.app.GET(recoverPath+"/reset-password/:token", h.resetForm)
	s.app.POST(recoverPath+"/reset-password/:token", h.resetPassword)
}

// home only ever sees anonymous users; the guard sends the others to their dashboard.
func (h authHandlers) home(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (h authHandlers) loginForm(ctx echo.Context) error {
	p := h.newPage(ctx, "Sign in")
	p.Form = session.Credentials{}
	return ctx.Render(http.StatusOK, "auth_login", p)
}

func (h authHandlers) login(ctx echo.Context) error {
	var creds session.Credentials
	err := bind(ctx, &creds)
	if err == nil {
		err = h.Validate.Struct(creds)
	}
	if err == nil {
		err = h.Sessions.For(ctx).Login(ctx.Request().Context(), creds)
	}
	if err == nil {
		return ctx.Redirect(http.StatusSeeOther, session.DashboardPath)
	}

	p := h.newPage(ctx, "Sign in")
	p.Form = session.Credentials{Username: creds.Username}
	var loginErr *session.LoginError
	if errors.As(err, &loginErr) {
		p.Errors = map[string]string{"": loginErr.Message}
		return ctx.Render(http.StatusUnauthorized, "auth_login", p)
	}
	if flds, ok := h.formErrors(err); ok {
		p.Errors = flds
		return ctx.Render(http.StatusBadRequest, "auth_login", p)
	}
	return errors.Wrap(err, "signing in")
}

func (h authHandlers) logout(ctx echo.Context) error {
	h.Sessions.For(ctx).Logout()
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}

func (h authHandlers) registerForm(ctx echo.Context) error {
	p := h.newPage(ctx, "Create an account")
	p.Form = user.NewUser{Role: user.RoleStudent.String()}
	return ctx.Render(http.StatusOK, "auth_register", p)
}

func (h authHandlers) register(ctx echo.Context) error {
	var data user.Registration
	err := bind(ctx, &data.NewUser)
	if err == nil {
		err = data.Validate(h.Validate)
	}
	if err == nil {
		_, err = h.Backend.Users().CreateUser(ctx.Request().Context(), data.NewUser)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Your account was created, you can now sign in")
		return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
	}

	if flds, ok := h.formErrors(err); ok {
		p := h.newPage(ctx, "Create an account")
		data.Password = ""
		p.Form = data.NewUser
		p.Errors = flds
		return ctx.Render(http.StatusBadRequest, "auth_register", p)
	}
	return errors.Wrap(err, "registering user")
}

func (h authHandlers) recoverForm(ctx echo.Context) error {
	p := h.newPage(ctx, "Recover your password")
	p.Form = user.RecoverPassword{}
	return ctx.Render(http.StatusOK, "auth_recover", p)
}

func (h authHandlers) recoverPassword(ctx echo.Context) error {
	var data user.RecoverPassword
	err := bind(ctx, &data)
	if err == nil {
		err = data.Validate(h.Validate)
	}
	if err == nil {
		err = h.Backend.RequestPasswordReset(ctx.Request().Context(), data.Email)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "If the address belongs to an account, a reset link is on its way")
		return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
	}

	if flds, ok := h.formErrors(err); ok {
		p := h.newPage(ctx, "Recover your password")
		p.Form = data
		p.Errors = flds
		return ctx.Render(http.StatusBadRequest, "auth_recover", p)
	}
	return errors.Wrap(err, "requesting password reset")
}

func (h authHandlers) resetForm(ctx echo.Context) error {
	p := h.newPage(ctx, "Choose a new password")
	p.Form = user.ResetPassword{Token: ctx.Param("token")}
	return ctx.Render(http.StatusOK, "auth_reset", p)
}

func (h authHandlers) resetPassword(ctx echo.Context) error {
	var data user.ResetPassword
	err := bind(ctx, &data)
	data.Token = ctx.Param("token")
	if err == nil {
		err = data.Validate(h.Validate)
	}
	if err == nil {
		err = h.Backend.ResetPassword(ctx.Request().Context(), data.Token, data.Password)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Your password was changed, you can now sign in")
		return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
	}

	if flds, ok := h.formErrors(err); ok {
		p := h.newPage(ctx, "Choose a new password")
		p.Form = user.ResetPassword{Token: data.Token}
		p.Errors = flds
		return ctx.Render(http.StatusBadRequest, "auth_reset", p)
	}
	return errors.Wrap(err, "resetting password")
}
