package echoweb

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Notification severities
const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
	flashInfo    = "info"
)

const (
	flashCookie     = "flash"
	flashContextKey = "flash"
)

var flashTitles = map[string]string{
	flashSuccess: "Success",
	flashError:   "Error",
	flashWarning: "Warning",
	flashInfo:    "Information",
}

// flash is a one-shot notification, shown by the next rendered page.
type flash struct {
	Kind    string `json:"k"`
	Title   string `json:"t"`
	Message string `json:"m"`
}

func setFlash(ctx echo.Context, kind, msg string, title ...string) {
	f := &flash{Kind: kind, Title: flashTitles[kind], Message: msg}
	if len(title) > 0 && title[0] != "" {
		f.Title = title[0]
	}
	ctx.Set(flashContextKey, f)

	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(ctx echo.Context) *flash {
	f, _ := ctx.Get(flashContextKey).(*flash)
	if f == nil {
		f = readFlashCookie(ctx)
	}
	if f != nil {
		ctx.Set(flashContextKey, nil)
		ctx.SetCookie(&http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	}
	return f
}

func readFlashCookie(ctx echo.Context) *flash {
	cookie, err := ctx.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err = json.Unmarshal(data, &f); err != nil || flashTitles[f.Kind] == "" {
		return nil
	}
	return &f
}
