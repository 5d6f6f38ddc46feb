package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core/user"
)

const usersPath = "/admin/manage/users"

// userKinds maps the list segments of the admin screens to the role they manage.
var userKinds = map[string]user.Role{
	"teachers": user.RoleTeacher,
	"students": user.RoleStudent,
	"admins":   user.RoleAdmin,
}

type adminHandlers struct {
	*server
}

func registerAdminRoutes(g *echo.Group, s *server) {
	h := adminHandlers{s}
	acc := accountHandlers{s}

	g.GET("/manage/profile", acc.profile)
	g.POST("/manage/profile/password", acc.changePassword)

	g.GET("/manage/users", h.usersHome)
	ug := g.Group("/manage/users/:kind", h.userKindMiddleware)
	ug.GET("", h.userQuery)
	ug.GET("/new", h.userNew)
	ug.POST("", h.userCreate)
	ug.GET("/:id/edit", h.userEdit)
	ug.POST("/:id", h.userUpdate)
	ug.POST("/:id/delete", h.userDelete)
	ug.POST("/:id/deactivate", h.userDeactivate)

	registerAdminCourseRoutes(g, h)
}

func (h adminHandlers) usersHome(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, usersPath+"/teachers")
}

const kindRoleKey = "kindRole"

func (h adminHandlers) userKindMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		role, ok := userKinds[ctx.Param("kind")]
		if !ok {
			return echo.ErrNotFound
		}
		ctx.Set(kindRoleKey, role)
		return next(ctx)
	}
}

type userListData struct {
	Kind   string
	Role   user.Role
	Search string
	Users  []user.User
}

type userFormData struct {
	Kind   string
	Role   user.Role
	Action string
	Edit   bool
}

func kindOf(ctx echo.Context) (string, user.Role) {
	role, _ := ctx.Get(kindRoleKey).(user.Role)
	return ctx.Param("kind"), role
}

func (h adminHandlers) userQuery(ctx echo.Context) error {
	kind, role := kindOf(ctx)
	filter := user.Filter{Role: role, Search: ctx.QueryParam("q")}

	usrs, err := h.api(ctx).Users().QueryUsers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	p := h.newPage(ctx, role.Label()+"s")
	p.Data = userListData{Kind: kind, Role: role, Search: filter.Search, Users: usrs}
	return ctx.Render(http.StatusOK, "users", p)
}

func (h adminHandlers) userNew(ctx echo.Context) error {
	kind, role := kindOf(ctx)
	return h.renderUserForm(ctx, http.StatusOK, user.NewUser{Role: role.String()}, nil,
		userFormData{Kind: kind, Role: role, Action: usersPath + "/" + kind})
}

func (h adminHandlers) userCreate(ctx echo.Context) error {
	kind, role := kindOf(ctx)

	var data user.NewUser
	err := bind(ctx, &data)
	data.Role = role.String()
	if err == nil {
		err = data.Validate(h.Validate)
	}
	if err == nil {
		_, err = h.api(ctx).Users().CreateUser(ctx.Request().Context(), data)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, role.Label()+" created")
		return ctx.Redirect(http.StatusSeeOther, usersPath+"/"+kind)
	}

	if flds, ok := h.formErrors(err); ok {
		data.Password = ""
		return h.renderUserForm(ctx, http.StatusBadRequest, data, flds,
			userFormData{Kind: kind, Role: role, Action: usersPath + "/" + kind})
	}
	return errors.Wrap(err, "creating user")
}

func (h adminHandlers) userEdit(ctx echo.Context) error {
	kind, role := kindOf(ctx)
	id := pathID(ctx, "id")

	usr, err := h.api(ctx).Users().GetUser(ctx.Request().Context(), id)
	if err != nil {
		return h.notFoundOr(err, user.ErrNotFound, "getting user")
	}
	form := user.UpdateUser{Username: usr.Username, Name: usr.Name, Email: usr.Email, Role: usr.RawRole}
	return h.renderUserForm(ctx, http.StatusOK, form, nil,
		userFormData{Kind: kind, Role: role, Action: usersPath + "/" + kind + "/" + id.String(), Edit: true})
}

func (h adminHandlers) userUpdate(ctx echo.Context) error {
	kind, role := kindOf(ctx)
	id := pathID(ctx, "id")
	rctx := ctx.Request().Context()
	repo := h.api(ctx).Users()

	origUsr, err := repo.GetUser(rctx, id)
	if err != nil {
		return h.notFoundOr(err, user.ErrNotFound, "getting user")
	}

	var data user.UpdateUser
	err = bind(ctx, &data)
	if err == nil {
		err = data.Validate(origUsr, h.Validate)
	}
	if err == nil {
		err = repo.UpdateUser(rctx, id, data)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, role.Label()+" updated")
		return ctx.Redirect(http.StatusSeeOther, usersPath+"/"+kind)
	}

	if flds, ok := h.formErrors(err); ok {
		data.Password = ""
		return h.renderUserForm(ctx, http.StatusBadRequest, data, flds,
			userFormData{Kind: kind, Role: role, Action: usersPath + "/" + kind + "/" + id.String(), Edit: true})
	}
	return errors.Wrap(err, "updating user")
}

func (h adminHandlers) userDelete(ctx echo.Context) error {
	kind, role := kindOf(ctx)
	if err := h.api(ctx).Users().DeleteUser(ctx.Request().Context(), pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	setFlash(ctx, flashSuccess, role.Label()+" deleted")
	return ctx.Redirect(http.StatusSeeOther, usersPath+"/"+kind)
}

func (h adminHandlers) userDeactivate(ctx echo.Context) error {
	kind, role := kindOf(ctx)
	if err := h.api(ctx).Users().DeactivateUser(ctx.Request().Context(), pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "deactivating user")
	}
	setFlash(ctx, flashSuccess, role.Label()+" deactivated")
	return ctx.Redirect(http.StatusSeeOther, usersPath+"/"+kind)
}

func (h adminHandlers) renderUserForm(ctx echo.Context, code int, form interface{}, flds map[string]string, data userFormData) error {
	title := "New " + data.Role.Label()
	if data.Edit {
		title = "Edit " + data.Role.Label()
	}
	p := h.newPage(ctx, title)
	p.Form = form
	p.Errors = flds
	p.Data = data
	return ctx.Render(code, "user_form", p)
}

// notFoundOr turns a repository's not-found error into a 404 page and wraps anything else.
func (s *server) notFoundOr(err, notFound error, msg string) error {
	if errors.Is(err, notFound) {
		return echo.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
