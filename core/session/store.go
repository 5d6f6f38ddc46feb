package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Token names, shared with the browser cookies.
const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

var ErrEmptyToken = errors.New("tokens cannot be empty")

// Store holds the session tokens. A missing token means "logged out".
type Store interface {
	Set(access, refresh string) error
	Get(name string) (string, bool)
	Remove(name string)
}

type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// CookieStore keeps the tokens in browser cookies.
// It lives for a single request and sees its own writes.
type CookieStore struct {
	ctx     echo.Context
	opts    CookieOptions
	pending map[string]*string // nil value: removed
}

var _ Store = (*CookieStore)(nil)

func NewCookieStore(ctx echo.Context, opts CookieOptions) *CookieStore {
	return &CookieStore{
		ctx:     ctx,
		opts:    opts,
		pending: make(map[string]*string, 2),
	}
}

func (s *CookieStore) Set(access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrEmptyToken
	}
	s.write(AccessTokenName, access)
	s.write(RefreshTokenName, refresh)
	return nil
}

func (s *CookieStore) Get(name string) (string, bool) {
	if val, ok := s.pending[name]; ok {
		if val == nil {
			return "", false
		}
		return *val, true
	}
	cookie, err := s.ctx.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *CookieStore) Remove(name string) {
	if _, ok := s.Get(name); !ok {
		return
	}
	s.pending[name] = nil
	s.ctx.SetCookie(s.newCookie(name, "", -1))
}

func (s *CookieStore) write(name, val string) {
	s.pending[name] = &val
	s.ctx.SetCookie(s.newCookie(name, val, int(s.opts.MaxAge.Seconds())))
}

func (s *CookieStore) newCookie(name, val string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    val,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// MemoryStore keeps the tokens in memory, for tools and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string, 2)}
}

func (s *MemoryStore) Set(access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[AccessTokenName] = access
	s.tokens[RefreshTokenName] = refresh
	return nil
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.tokens[name]
	return val, ok
}

func (s *MemoryStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, name)
}
