package tests

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcl-lms/web/tests"
)

func Test_account_profile(t *testing.T) {
	app, backend := setup(t)
	backend.on("GET /usuarios/usuario-actual/", http.StatusOK, `{
		"id": 7, "username": "sue", "nombre_completo": "Sue Mbuyi", "email": "sue@test.cd",
		"rol": "estudiante", "fecha_creacion": "2024-01-15"
	}`)
	backend.on("PUT /usuarios/cambiar-password/7/", http.StatusOK, `{}`)
	cookies := studentCookies(t)

	changed := url.Values{
		"current_password": {"Old2024pass"},
		"password":         {"New2024Pass"},
		"password_confirm": {"New2024Pass"},
	}

	tests := []httpTest{
		{
			name: "profile", path: "/profile", cookies: cookies,
			wantCode: http.StatusOK,
			wantBody: []string{"Sue Mbuyi", "Student", "Jan 15, 2024", `action="/profile/password"`},
		},
		{
			name: "change password: mismatch", method: http.MethodPost, path: "/profile/password", cookies: cookies,
			form: url.Values{
				"current_password": {"Old2024pass"},
				"password":         {"New2024Pass"},
				"password_confirm": {"Other2024Pass"},
			},
			wantCode: http.StatusBadRequest, wantBody: []string{"field-error", "Sue Mbuyi"},
		},
		{
			name: "change password", method: http.MethodPost, path: "/profile/password", cookies: cookies,
			form: changed, wantCode: http.StatusSeeOther, wantLocation: "/profile",
		},
		{name: "anonymous", path: "/profile", wantCode: http.StatusSeeOther, wantLocation: "/login"},
	}
	runHTTPTests(t, app, tests)

	calls := backend.callsTo("PUT /usuarios/cambiar-password/7/")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"current_password": "Old2024pass", "new_password": "New2024Pass"}`, calls[0].body)
}

func Test_account_adminProfile(t *testing.T) {
	app, backend := setup(t)
	backend.on("GET /usuarios/usuario-actual/", http.StatusOK, `{"id": 4, "username": "root", "nombre_completo": "Root", "email": "root@test.cd", "rol": "admin"}`)
	backend.on("PUT /usuarios/cambiar-password/4/", http.StatusBadRequest, `{"error": "La contraseña actual es incorrecta"}`)
	cookies := sessionCookies(testutil.MintToken(t, 4, "root", "admin"), testutil.MintRefreshToken(t, 4))

	req, rec := newRequest(http.MethodGet, "/admin/manage/profile", nil, cookies...)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/admin/manage/profile/password"`)

	req, rec = newRequest(http.MethodPost, "/admin/manage/profile/password", url.Values{
		"current_password": {"wrong"},
		"password":         {"New2024Pass"},
		"password_confirm": {"New2024Pass"},
	}, cookies...)
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "La contraseña actual es incorrecta")
}
