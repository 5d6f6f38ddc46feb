package user

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID        core.ID   `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"nombre_completo"`
	Email     string    `json:"email"`
	RawRole   string    `json:"rol"`
	IsActive  *bool     `json:"is_active,omitempty"`
	CreatedAt core.Date `json:"fecha_creacion"`
}

// Role returns the canonical role of the user, or "" when the backend sent an unknown one.
func (u User) Role() Role {
	role, _ := ParseRole(u.RawRole)
	return role
}

// Active treats a missing flag as active; the backend only sends it once a user was deactivated.
func (u User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// NewUser contains information needed to create a new User, either by an admin or through registration.
type NewUser struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Name     string `json:"nombre_completo" form:"nombre_completo" validate:"required,notblank,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email,max=100"`
	Role     string `json:"rol" form:"rol" validate:"required,role"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = canonicalRole(nu.Role)
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep the original values.
type UpdateUser struct {
	Username string `json:"username,omitempty" form:"username" validate:"omitempty,min=3,max=50"`
	Name     string `json:"nombre_completo,omitempty" form:"nombre_completo" validate:"omitempty,max=100"`
	Email    string `json:"email,omitempty" form:"email" validate:"omitempty,email,max=100"`
	Role     string `json:"rol,omitempty" form:"rol" validate:"omitempty,role"`
	Password string `json:"password,omitempty" form:"password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	if uname := core.CleanString(uu.Username); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if role := canonicalRole(uu.Role); role != "" {
		uu.Role = role
	} else {
		uu.Role = origUsr.RawRole
	}
	return validate.Struct(uu)
}

// ChangePassword is submitted from the profile screen.
type ChangePassword struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	Password        string `json:"new_password" form:"password" validate:"required"`
	PasswordConfirm string `json:"-" form:"password_confirm" validate:"required,eqfield=Password"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error { return validate.Struct(cp) }

// RecoverPassword asks the backend to mail a password reset link.
type RecoverPassword struct {
	Email string `form:"email" validate:"required,email"`
}

func (rp *RecoverPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	return validate.Struct(rp)
}

// ResetPassword sets a new password using the token from a reset link.
type ResetPassword struct {
	Token           string `form:"token" validate:"required"`
	Password        string `form:"password" validate:"required"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp ResetPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// Filter narrows a user listing. Zero values match everything.
type Filter struct {
	Role     Role
	Search   string
	IsActive *bool
}

func (f Filter) Match(u User) bool {
	if f.Role != "" && !f.Role.Matches(u.RawRole) {
		return false
	}
	if f.IsActive != nil && *f.IsActive != u.Active() {
		return false
	}
	if q := core.CleanString(f.Search, true /* lower */); q != "" {
		if !strings.Contains(strings.ToLower(u.Username), q) &&
			!strings.Contains(strings.ToLower(u.Name), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			return false
		}
	}
	return true
}

type Repository interface {
	QueryUsers(ctx context.Context, filter Filter) ([]User, error)
	GetUser(ctx context.Context, id core.ID) (User, error)
	CurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, nu NewUser) (core.ID, error)
	UpdateUser(ctx context.Context, id core.ID, uu UpdateUser) error
	DeleteUser(ctx context.Context, id core.ID) error
	DeactivateUser(ctx context.Context, id core.ID) error
	ChangePassword(ctx context.Context, id core.ID, cp ChangePassword) error
}

// RecoveryService sends and redeems password reset links. It needs no session.
type RecoveryService interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, pwd string) error
}

func canonicalRole(s string) string {
	if role, ok := ParseRole(s); ok {
		return role.String()
	}
	return core.CleanString(s)
}
