package backendapi

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/user"
)

type userRepository struct {
	c *Client
}

var _ user.Repository = (*userRepository)(nil)

func (c *Client) Users() user.Repository {
	return &userRepository{c: c}
}

// QueryUsers lists the users and filters them here; the backend spells roles in several ways.
func (r *userRepository) QueryUsers(ctx context.Context, filter user.Filter) ([]user.User, error) {
	var all []user.User
	if err := r.c.do(ctx, rest.Get, "usuarios/", nil, &all); err != nil {
		return nil, err
	}
	usrs := make([]user.User, 0, len(all))
	for _, usr := range all {
		if filter.Match(usr) {
			usrs = append(usrs, usr)
		}
	}
	return usrs, nil
}

func (r *userRepository) GetUser(ctx context.Context, id core.ID) (user.User, error) {
	var usr user.User
	err := r.c.do(ctx, rest.Get, core.JoinPath("usuarios/uuid", core.NormalizeID(id.String()).String()), nil, &usr)
	if errors.Is(err, ErrNotFound) {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (r *userRepository) CurrentUser(ctx context.Context) (user.User, error) {
	var usr user.User
	err := r.c.do(ctx, rest.Get, "usuarios/usuario-actual/", nil, &usr)
	return usr, err
}

func (r *userRepository) CreateUser(ctx context.Context, nu user.NewUser) (core.ID, error) {
	var res created
	err := r.c.do(ctx, rest.Post, "usuarios/registrar/", nu, &res)
	return res.ID, err
}

func (r *userRepository) UpdateUser(ctx context.Context, id core.ID, uu user.UpdateUser) error {
	return r.c.do(ctx, rest.Put, userPath("actualizar", id), uu, nil)
}

func (r *userRepository) DeleteUser(ctx context.Context, id core.ID) error {
	return r.c.do(ctx, rest.Delete, userPath("eliminar", id), nil, nil)
}

func (r *userRepository) DeactivateUser(ctx context.Context, id core.ID) error {
	return r.c.do(ctx, rest.Put, userPath("desactivar", id), nil, nil)
}

func (r *userRepository) ChangePassword(ctx context.Context, id core.ID, cp user.ChangePassword) error {
	return r.c.do(ctx, rest.Put, userPath("cambiar-password", id), cp, nil)
}

func userPath(action string, id core.ID) string {
	return core.JoinPath("usuarios", action, core.NormalizeID(id.String()).String())
}
