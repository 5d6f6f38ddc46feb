package session

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/user"
)

// State of the authorization.
type State int

const (
	StateUnknown State = iota // not checked yet
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	ErrNoRefreshToken = errors.New("no refresh token")

	defaultLoginErrMsg = "Unable to sign in, please try again later"
)

// AuthenticatedUser is derived from the current access token, and from nothing else.
type AuthenticatedUser struct {
	ID        core.ID
	Username  string
	Email     string
	Role      user.Role // "" if the token carries an unknown role
	RawRole   string
	ExpiresAt time.Time // informational; the backend enforces it
}

func newAuthenticatedUser(c Claims) AuthenticatedUser {
	role, _ := user.ParseRole(c.Role)
	return AuthenticatedUser{
		ID:        c.UserID,
		Username:  c.Username,
		Email:     c.Email,
		Role:      role,
		RawRole:   c.Role,
		ExpiresAt: c.Expiry(),
	}
}

func (u AuthenticatedUser) Expired(now time.Time) bool {
	return !u.ExpiresAt.IsZero() && now.After(u.ExpiresAt)
}

type Credentials struct {
	Username string `json:"username" form:"username" validate:"required,notblank"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// TokenIssuer exchanges credentials or a refresh token for tokens.
type TokenIssuer interface {
	ObtainToken(ctx context.Context, creds Credentials) (TokenPair, error)
	RefreshToken(ctx context.Context, refresh string) (TokenPair, error)
}

// LoginError is a failed login, with a message fit for the login screen.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Authorizer is the single owner of a session Store. It is not safe for concurrent use.
type Authorizer struct {
	store  Store
	issuer TokenIssuer
	state  State
	user   *AuthenticatedUser
}

func NewAuthorizer(store Store, issuer TokenIssuer) *Authorizer {
	return &Authorizer{store: store, issuer: issuer}
}

func (a *Authorizer) State() State { return a.state }

func (a *Authorizer) User() (AuthenticatedUser, bool) {
	if a.user == nil {
		return AuthenticatedUser{}, false
	}
	return *a.user, true
}

// Token returns the stored access token, or "".
func (a *Authorizer) Token() string {
	token, _ := a.store.Get(AccessTokenName)
	return token
}

// ValidateToken derives the state from the stored access token.
// An unreadable token ends the session.
func (a *Authorizer) ValidateToken() State {
	raw, ok := a.store.Get(AccessTokenName)
	if !ok {
		a.setAnonymous()
		return a.state
	}
	claims, err := DecodeToken(raw)
	if err != nil {
		a.Logout()
		return a.state
	}
	a.setUser(claims)
	return a.state
}

// Login obtains tokens for the credentials. Nothing is stored unless the backend accepts them
// and the access token is readable.
func (a *Authorizer) Login(ctx context.Context, creds Credentials) error {
	pair, err := a.issuer.ObtainToken(ctx, creds)
	if err != nil {
		a.setAnonymous()
		return &LoginError{Message: loginErrorMessage(err), Err: err}
	}
	claims, err := DecodeToken(pair.Access)
	if err != nil {
		a.setAnonymous()
		return &LoginError{Message: defaultLoginErrMsg, Err: err}
	}
	if err = a.store.Set(pair.Access, pair.Refresh); err != nil {
		a.setAnonymous()
		return &LoginError{Message: defaultLoginErrMsg, Err: err}
	}
	a.setUser(claims)
	return nil
}

// Logout clears the tokens and everything derived from them.
func (a *Authorizer) Logout() {
	a.store.Remove(AccessTokenName)
	a.store.Remove(RefreshTokenName)
	a.setAnonymous()
}

// Refresh exchanges the refresh token for a new access token.
// The session is left untouched if the backend cannot be reached.
func (a *Authorizer) Refresh(ctx context.Context) error {
	refresh, ok := a.store.Get(RefreshTokenName)
	if !ok {
		a.Logout()
		return ErrNoRefreshToken
	}
	pair, err := a.issuer.RefreshToken(ctx, refresh)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	if _, err = DecodeToken(pair.Access); err != nil {
		a.Logout()
		return err
	}
	if pair.Refresh == "" { // rotation disabled
		pair.Refresh = refresh
	}
	if err = a.store.Set(pair.Access, pair.Refresh); err != nil {
		return errors.Wrap(err, "storing tokens")
	}
	a.ValidateToken()
	return nil
}

func (a *Authorizer) setAnonymous() {
	a.state = StateAnonymous
	a.user = nil
}

func (a *Authorizer) setUser(claims Claims) {
	usr := newAuthenticatedUser(claims)
	a.state = StateAuthenticated
	a.user = &usr
}

// detailer is implemented by backend errors carrying a user-facing message.
type detailer interface {
	Detail() string
}

func loginErrorMessage(err error) string {
	var d detailer
	if errors.As(err, &d) && d.Detail() != "" {
		return d.Detail()
	}
	return defaultLoginErrMsg
}

const contextKey = "session.authorizer"

// Manager hands out one Authorizer per request, backed by the request cookies.
type Manager struct {
	issuer     TokenIssuer
	cookieOpts CookieOptions
}

func NewManager(issuer TokenIssuer, cookieOpts CookieOptions) *Manager {
	return &Manager{issuer: issuer, cookieOpts: cookieOpts}
}

func (m *Manager) For(ctx echo.Context) *Authorizer {
	if a, ok := ctx.Get(contextKey).(*Authorizer); ok {
		return a
	}
	a := NewAuthorizer(NewCookieStore(ctx, m.cookieOpts), m.issuer)
	ctx.Set(contextKey, a)
	return a
}
