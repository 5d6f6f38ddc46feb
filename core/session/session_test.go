package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/user"
	"github.com/gcl-lms/web/tests"
)

type detailedErr struct{ detail string }

func (e detailedErr) Error() string  { return "backend: " + e.detail }
func (e detailedErr) Detail() string { return e.detail }

// issuerStub hands out fixed tokens.
type issuerStub struct {
	pair       TokenPair
	err        error
	refreshErr error
	calls      int
	lastCreds  Credentials
}

func (s *issuerStub) ObtainToken(_ context.Context, creds Credentials) (TokenPair, error) {
	s.calls++
	s.lastCreds = creds
	if s.err != nil {
		return TokenPair{}, s.err
	}
	return s.pair, nil
}

func (s *issuerStub) RefreshToken(_ context.Context, _ string) (TokenPair, error) {
	if s.refreshErr != nil {
		return TokenPair{}, s.refreshErr
	}
	return TokenPair{Access: s.pair.Access}, nil
}

func TestDecodeToken(t *testing.T) {
	valid := testutil.MintToken(t, 5, "ana", "profesor")

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: valid},
		{name: "empty", raw: "", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "garbage", raw: "not-a-token", wantErr: true},
		{name: "bad segments", raw: "a.b", wantErr: true},
		{name: "bad base64", raw: "@@@.###.$$$", wantErr: true},
		{name: "missing role", raw: testutil.MintToken(t, 5, "ana", ""), wantErr: true},
		{name: "missing username", raw: testutil.MintToken(t, 5, "", "admin"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := DecodeToken(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsDecodeError(err), "want a DecodeError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ana", claims.Username)
			assert.Equal(t, "profesor", claims.Role)
			assert.Equal(t, core.ID("5"), claims.UserID)
			assert.Equal(t, "access", claims.TokenType)
			assert.False(t, claims.Expiry().IsZero())
		})
	}
}

func TestAuthorizer_ValidateToken(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		wantRole  user.Role
		wantState State
	}{
		{name: "admin", role: "admin", wantRole: user.RoleAdmin, wantState: StateAuthenticated},
		{name: "teacher alias", role: "profesor", wantRole: user.RoleTeacher, wantState: StateAuthenticated},
		{name: "student alias", role: "estudiante", wantRole: user.RoleStudent, wantState: StateAuthenticated},
		{name: "unknown role", role: "usuario", wantState: StateAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Set(testutil.MintToken(t, 1, "u", tt.role), "refresh"))

			auth := NewAuthorizer(store, &issuerStub{})
			assert.Equal(t, StateUnknown, auth.State())
			assert.Equal(t, tt.wantState, auth.ValidateToken())

			usr, ok := auth.User()
			require.True(t, ok)
			assert.Equal(t, tt.role, usr.RawRole)
			assert.Equal(t, tt.wantRole, usr.Role)
		})
	}
}

func TestAuthorizer_ValidateToken_anonymous(t *testing.T) {
	tests := []struct {
		name   string
		access string
	}{
		{name: "absent"},
		{name: "malformed", access: "not.a.token"},
		{name: "garbage", access: "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			if tt.access != "" {
				require.NoError(t, store.Set(tt.access, "refresh"))
			}
			auth := NewAuthorizer(store, &issuerStub{})

			assert.NotPanics(t, func() { auth.ValidateToken() })
			assert.Equal(t, StateAnonymous, auth.State())
			_, ok := auth.User()
			assert.False(t, ok)

			// an unreadable token ends the session
			_, hasAccess := store.Get(AccessTokenName)
			_, hasRefresh := store.Get(RefreshTokenName)
			assert.False(t, hasAccess)
			assert.False(t, hasRefresh)
		})
	}
}

func TestAuthorizer_Login(t *testing.T) {
	access := testutil.MintToken(t, "3f1c2b9e-6d7a-4c1e-9f2a-5b8d7e6c4a10", "ana", "admin")
	refresh := testutil.MintRefreshToken(t, 1)

	t.Run("success", func(t *testing.T) {
		store := NewMemoryStore()
		issuer := &issuerStub{pair: TokenPair{Access: access, Refresh: refresh}}
		auth := NewAuthorizer(store, issuer)

		require.NoError(t, auth.Login(context.Background(), Credentials{Username: "ana", Password: "pwd"}))
		assert.Equal(t, Credentials{Username: "ana", Password: "pwd"}, issuer.lastCreds)
		assert.Equal(t, StateAuthenticated, auth.State())

		got, _ := store.Get(AccessTokenName)
		assert.Equal(t, access, got)
		got, _ = store.Get(RefreshTokenName)
		assert.Equal(t, refresh, got)

		usr, _ := auth.User()
		assert.Equal(t, core.ID("3f1c2b9e6d7a4c1e9f2a5b8d7e6c4a10"), usr.ID)
		assert.Equal(t, user.RoleAdmin, usr.Role)
		assert.False(t, Guard(auth.State(), DashboardPath).Redirect)
	})

	tests := []struct {
		name    string
		issuer  *issuerStub
		wantMsg string
	}{
		{
			name:    "rejected credentials",
			issuer:  &issuerStub{err: detailedErr{"No active account found with the given credentials"}},
			wantMsg: "No active account found with the given credentials",
		},
		{
			name:    "backend unreachable",
			issuer:  &issuerStub{err: errors.New("dial tcp: connection refused")},
			wantMsg: defaultLoginErrMsg,
		},
		{
			name:    "unreadable access token",
			issuer:  &issuerStub{pair: TokenPair{Access: "garbage", Refresh: refresh}},
			wantMsg: defaultLoginErrMsg,
		},
		{
			name:    "missing refresh token",
			issuer:  &issuerStub{pair: TokenPair{Access: access}},
			wantMsg: defaultLoginErrMsg,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			auth := NewAuthorizer(store, tt.issuer)

			err := auth.Login(context.Background(), Credentials{Username: "ana", Password: "bad"})
			var loginErr *LoginError
			require.True(t, errors.As(err, &loginErr), "got %v", err)
			assert.Contains(t, loginErr.Message, tt.wantMsg)
			assert.Equal(t, StateAnonymous, auth.State())

			_, hasAccess := store.Get(AccessTokenName)
			_, hasRefresh := store.Get(RefreshTokenName)
			assert.False(t, hasAccess, "no token may be stored after a failed login")
			assert.False(t, hasRefresh, "no token may be stored after a failed login")
		})
	}
}

func TestAuthorizer_Logout(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(testutil.MintToken(t, 1, "ana", "student"), "refresh"))
	auth := NewAuthorizer(store, &issuerStub{})
	require.Equal(t, StateAuthenticated, auth.ValidateToken())

	auth.Logout()
	assert.Equal(t, StateAnonymous, auth.State())
	_, ok := auth.User()
	assert.False(t, ok)
	_, hasAccess := store.Get(AccessTokenName)
	_, hasRefresh := store.Get(RefreshTokenName)
	assert.False(t, hasAccess)
	assert.False(t, hasRefresh)
	assert.Equal(t, StateAnonymous, auth.ValidateToken())
}

func TestAuthorizer_Refresh(t *testing.T) {
	newAccess := testutil.MintToken(t, 1, "ana", "teacher")

	t.Run("new access token", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(testutil.MintToken(t, 1, "ana", "student"), "refresh-1"))
		auth := NewAuthorizer(store, &issuerStub{pair: TokenPair{Access: newAccess}})
		auth.ValidateToken()

		require.NoError(t, auth.Refresh(context.Background()))
		assert.Equal(t, newAccess, auth.Token())
		refresh, _ := store.Get(RefreshTokenName)
		assert.Equal(t, "refresh-1", refresh)
		usr, _ := auth.User()
		assert.Equal(t, user.RoleTeacher, usr.Role)
	})

	t.Run("backend error keeps the session", func(t *testing.T) {
		store := NewMemoryStore()
		old := testutil.MintToken(t, 1, "ana", "student")
		require.NoError(t, store.Set(old, "refresh-1"))
		auth := NewAuthorizer(store, &issuerStub{refreshErr: errors.New("boom")})
		auth.ValidateToken()

		assert.Error(t, auth.Refresh(context.Background()))
		assert.Equal(t, old, auth.Token())
		assert.Equal(t, StateAuthenticated, auth.State())
	})

	t.Run("no refresh token", func(t *testing.T) {
		auth := NewAuthorizer(NewMemoryStore(), &issuerStub{})
		assert.Equal(t, ErrNoRefreshToken, auth.Refresh(context.Background()))
		assert.Equal(t, StateAnonymous, auth.State())
	})
}

func TestGuard(t *testing.T) {
	tests := []struct {
		state State
		path  string
		want  Decision
	}{
		{state: StateUnknown, path: "/admin/manage/users"},
		{state: StateUnknown, path: "/login"},
		{state: StateAnonymous, path: "/dashboard", want: Decision{Redirect: true, Target: "/login"}},
		{state: StateAnonymous, path: "/student/courses?x=1", want: Decision{Redirect: true, Target: "/login"}},
		{state: StateAnonymous, path: "/login"},
		{state: StateAnonymous, path: "/login/"},
		{state: StateAnonymous, path: "/"},
		{state: StateAnonymous, path: "/register"},
		{state: StateAnonymous, path: "/login/recover"},
		{state: StateAnonymous, path: "/login/recover/reset-password/abc"},
		{state: StateAnonymous, path: "/static/app.css"},
		{state: StateAuthenticated, path: "/login", want: Decision{Redirect: true, Target: "/dashboard"}},
		{state: StateAuthenticated, path: "/", want: Decision{Redirect: true, Target: "/dashboard"}},
		{state: StateAuthenticated, path: "/dashboard"},
		{state: StateAuthenticated, path: "/register"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String()+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.state, tt.path))
		})
	}
}

func TestGuard_idempotent(t *testing.T) {
	path := "/admin/manage/courses"
	first := Guard(StateAnonymous, path)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Guard(StateAnonymous, path))
	}
	require.True(t, first.Redirect)
	// the target is never redirected again for the same state
	assert.False(t, Guard(StateAnonymous, first.Target).Redirect)
	assert.False(t, Guard(StateAuthenticated, Guard(StateAuthenticated, "/").Target).Redirect)
}

func TestClearedAccessTokenEndsSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(testutil.MintToken(t, 1, "ana", "student"), "refresh"))
	auth := NewAuthorizer(store, &issuerStub{})
	require.Equal(t, StateAuthenticated, auth.ValidateToken())
	require.False(t, Guard(auth.State(), "/student/courses").Redirect)

	store.Remove(AccessTokenName)
	assert.Equal(t, StateAnonymous, auth.ValidateToken())
	assert.Equal(t, Decision{Redirect: true, Target: LoginPath}, Guard(auth.State(), "/student/courses"))
}

func TestCookieStore(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenName, Value: "old-access"})
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	store := NewCookieStore(ctx, CookieOptions{Secure: true, MaxAge: 3600e9})
	got, ok := store.Get(AccessTokenName)
	require.True(t, ok)
	assert.Equal(t, "old-access", got)
	_, ok = store.Get(RefreshTokenName)
	assert.False(t, ok)

	assert.Equal(t, ErrEmptyToken, store.Set("", "r"))
	require.NoError(t, store.Set("new-access", "new-refresh"))
	got, _ = store.Get(AccessTokenName)
	assert.Equal(t, "new-access", got)

	store.Remove(AccessTokenName)
	_, ok = store.Get(AccessTokenName)
	assert.False(t, ok)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)
	assert.Equal(t, "new-access", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.Equal(t, RefreshTokenName, cookies[1].Name)
	assert.Equal(t, AccessTokenName, cookies[2].Name)
	assert.Equal(t, -1, cookies[2].MaxAge)
}

func TestGuardMiddleware(t *testing.T) {
	e := echo.New()
	mgr := NewManager(&issuerStub{}, CookieOptions{})
	e.Use(GuardMiddleware(mgr))
	ok := func(ctx echo.Context) error { return ctx.String(http.StatusOK, mgr.For(ctx).State().String()) }
	e.GET("/", ok)
	e.GET("/login", ok)
	e.GET("/dashboard", ok)

	tests := []struct {
		name         string
		path         string
		access       string
		wantCode     int
		wantLocation string
		wantBody     string
	}{
		{name: "anonymous private", path: "/dashboard", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "anonymous public", path: "/login", wantCode: http.StatusOK, wantBody: "anonymous"},
		{name: "bad token private", path: "/dashboard", access: "bad", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "authenticated public", path: "/", access: testutil.MintToken(t, 1, "a", "admin"), wantCode: http.StatusSeeOther, wantLocation: "/dashboard"},
		{name: "authenticated private", path: "/dashboard", access: testutil.MintToken(t, 1, "a", "admin"), wantCode: http.StatusOK, wantBody: "authenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.access != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenName, Value: tt.access})
				req.AddCookie(&http.Cookie{Name: RefreshTokenName, Value: "r"})
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
