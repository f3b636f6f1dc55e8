package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/smysle/dramabox-web/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "search", "drama", "watch", "notice"}

var funcs = template.FuncMap{
	"clock": utils.FormatClock,
	"add":   func(a, b int) int { return a + b },
}

// views 每个页面一份 layout 的副本
var views = mustParseViews()

func mustParseViews() map[string]*template.Template {
	base := template.Must(template.New("layout.html").Funcs(funcs).
		ParseFS(templateFS, "templates/layout.html", "templates/partials.html"))

	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t := template.Must(base.Clone())
		out[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
	return out
}

// page 传给 layout 的公共数据
type page struct {
	Site   string
	Title  string
	Active string
	Query  string
	Data   any
}

// render 渲染页面
func (s *Server) render(c *fiber.Ctx, status int, name, title string, data any) error {
	t, ok := views[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}

	p := page{Site: s.cfg.SiteName, Title: title, Data: data}
	switch name {
	case "home":
		p.Active = "home"
	case "search":
		p.Active = "search"
		if v, ok := data.(searchView); ok {
			p.Query = v.Query
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
