package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/menu"
	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
)

var (
	//go:embed templates
	templatesFS embed.FS

	//go:embed static
	staticFS embed.FS
)

const (
	layoutTmpl     = "layout"
	authLayoutTmpl = "auth_layout"
	authPrefix     = "auth_" // pages rendered without the navigation
)

// renderer keeps one template set per page: the layouts and partials, plus the page's "content".
type renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

var funcs = template.FuncMap{
	"date": func(d core.Date) string {
		if d.IsZero() {
			return "-"
		}
		return d.Format("Jan 2, 2006")
	},
	"roleLabel": func(raw string) string {
		if role, ok := user.ParseRole(raw); ok {
			return role.Label()
		}
		return raw
	},
	"pct": func(p core.Percent) int { return p.Rounded() },
}

func newRenderer() *renderer {
	base := template.Must(
		template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/layouts/*.gohtml"),
	)
	files, err := fs.Glob(templatesFS, "templates/*.gohtml")
	if err != nil {
		panic(fmt.Sprintf("listing templates: %v", err))
	}

	r := &renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".gohtml")
		r.pages[name] = template.Must(template.Must(base.Clone()).ParseFS(templatesFS, file))
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	layout := layoutTmpl
	if strings.HasPrefix(name, authPrefix) {
		layout = authLayoutTmpl
	}
	return tmpl.ExecuteTemplate(w, layout, data)
}

// page is the data every template receives.
type page struct {
	AppName string
	Title   string
	Path    string
	CSRF    string
	User    *session.AuthenticatedUser
	Menu    []menu.Item
	Flash   *flash
	Errors  map[string]string
	Form    interface{}
	Data    interface{}
}

func (s *server) newPage(ctx echo.Context, title string) *page {
	p := &page{
		AppName: s.Conf.AppName,
		Title:   title,
		Path:    ctx.Request().URL.Path,
		Flash:   popFlash(ctx),
	}
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		p.CSRF = token
	}
	if usr, ok := s.Sessions.For(ctx).User(); ok {
		p.User = &usr
		p.Menu = menu.ForRole(usr.RawRole)
	}
	return p
}
