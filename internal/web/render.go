package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/desertthunder/discover/internal/models"
	"github.com/desertthunder/discover/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

const baseTemplate = "base.html"

// pageData is the value every page template is executed with.
type pageData struct {
	Authenticated bool
	Notice        string
	TimeRange     services.TimeRange
	Tracks        []models.Track
	Artists       []models.Artist
	Playlist      *models.Playlist
	Error         *errorView
}

// TimeRanges lists the selectable ranges for the top items pages.
func (pageData) TimeRanges() []services.TimeRange {
	return []services.TimeRange{services.ShortTerm, services.MediumTerm, services.LongTerm}
}

type errorView struct {
	Status   int
	Title    string
	Message  string
	Retry    string // link offered to try again
	Playlist *models.Playlist
}

var funcs = template.FuncMap{
	"mmss": func(d time.Duration) string {
		d = d.Round(time.Second)
		return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
	},
	"inc": func(i int) int { return i + 1 },
	"rangeLabel": func(r services.TimeRange) string {
		switch r {
		case services.ShortTerm:
			return "Last 4 weeks"
		case services.LongTerm:
			return "All time"
		default:
			return "Last 6 months"
		}
	},
}

// parseTemplates builds one template set per page, each sharing the base layout.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := page[len("templates/"):]
		if name == baseTemplate {
			continue
		}

		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/"+baseTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// render executes the named page into a buffer so a template error never leaves a half-written response.
func (a *App) render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := a.templates[name]
	if !ok {
		a.logger.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		a.logger.Error("failed to render template", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (a *App) renderError(w http.ResponseWriter, status int, view errorView) {
	view.Status = status
	a.render(w, status, "error.html", pageData{Error: &view})
}
