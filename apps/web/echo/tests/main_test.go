package tests

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/gcl-lms/web/apps/web/echo"
	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
	backendapi "github.com/gcl-lms/web/services/backend"
	logsvc "github.com/gcl-lms/web/services/logger"
)

const csrfToken = "test-csrf-token"

type call struct {
	auth string
	body string
}

// fakeBackend answers the routes it was given, keyed by "METHOD /path", and 404s the rest.
type fakeBackend struct {
	mu     sync.Mutex
	srv    *httptest.Server
	routes map[string]func(w http.ResponseWriter)
	calls  map[string][]call
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		routes: make(map[string]func(w http.ResponseWriter)),
		calls:  make(map[string][]call),
	}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		route := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.calls[route] = append(b.calls[route], call{auth: r.Header.Get("Authorization"), body: string(body)})
		h, ok := b.routes[route]
		b.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "Not found."}`))
			return
		}
		h(w)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) on(route string, code int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func (b *fakeBackend) callsTo(route string) []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls[route]...)
}

func setup(t *testing.T) (Server, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(t)

	conf := &core.Config{TestMode: true, AppName: "GCL"}
	conf.API.BaseURL = backend.srv.URL

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	client := backendapi.NewClient(backendapi.Options{BaseURL: conf.API.BaseURL, Logger: logger})

	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Backend:    client,
		Sessions:   session.NewManager(client, session.CookieOptions{}),
		Validate:   validate,
		Translator: translator,
	})
	return app, backend
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	cookies      []*http.Cookie
	wantCode     int
	wantLocation string
	wantBody     []string
}

// newRequest builds a browser-like request. Forms are posted with a valid CSRF token
// unless they set "_csrf" themselves; a nil value leaves the field out.
func newRequest(method, path string, form url.Values, cookies ...*http.Cookie) (*http.Request, *httptest.ResponseRecorder) {
	var body io.Reader
	if method == http.MethodPost {
		if form == nil {
			form = make(url.Values)
		}
		if _, ok := form["_csrf"]; !ok {
			form.Set("_csrf", csrfToken)
		}
		body = strings.NewReader(form.Encode())
		cookies = append(cookies, &http.Cookie{Name: "_csrf", Value: csrfToken})
	}
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req, httptest.NewRecorder()
}

func sessionCookies(access, refresh string) []*http.Cookie {
	var cookies []*http.Cookie
	if access != "" {
		cookies = append(cookies, &http.Cookie{Name: session.AccessTokenName, Value: access})
	}
	if refresh != "" {
		cookies = append(cookies, &http.Cookie{Name: session.RefreshTokenName, Value: refresh})
	}
	return cookies
}

// responseCookie returns the last cookie named name set by the response.
func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// follow replays the cookies set by rec onto a GET of its redirect target.
func follow(t *testing.T, app Server, rec *httptest.ResponseRecorder, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	jar := make(map[string]*http.Cookie)
	for _, c := range cookies {
		jar[c.Name] = c
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(jar, c.Name)
			continue
		}
		jar[c.Name] = c
	}
	next := make([]*http.Cookie, 0, len(jar))
	for _, c := range jar {
		next = append(next, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	req, nextRec := newRequest(http.MethodGet, rec.Header().Get("Location"), nil, next...)
	app.ServeHTTP(nextRec, req)
	return nextRec
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newRequest(method, tt.path, tt.form, tt.cookies...)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}
