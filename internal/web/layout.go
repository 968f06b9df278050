// Package web implements the portal's page layer: layout composition,
// the static route table, tab navigation, and page handlers.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

//go:embed templates
var templatesFS embed.FS

// Layout names a page-chrome variant. Variants are selected by the caller,
// never computed from content.
type Layout string

const (
	// LayoutDefault wraps content in sidebar, header, main and footer.
	LayoutDefault Layout = "default"
	// LayoutDashboard adds the quick-actions bar above the content area.
	LayoutDashboard Layout = "dashboard"
	// LayoutFilter adds the filter panel beside the content area.
	LayoutFilter Layout = "filter"
)

var layouts = []Layout{LayoutDefault, LayoutDashboard, LayoutFilter}

// Registered reports whether l names a known layout variant.
func (l Layout) Registered() bool {
	for _, known := range layouts {
		if l == known {
			return true
		}
	}
	return false
}

// Renderer renders pages wrapped in their layout chrome. Template sets are
// parsed once at construction; rendering is read-only and safe for
// concurrent use.
type Renderer struct {
	sets map[string]*template.Template
}

// NewRenderer parses all embedded layout, partial and page templates.
// Every page is combined with every layout so the caller picks the variant
// per request.
func NewRenderer() (*Renderer, error) {
	pages, err := fs.Glob(templatesFS, "templates/pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates embedded")
	}

	r := &Renderer{sets: make(map[string]*template.Template)}
	for _, layout := range layouts {
		layoutFile := fmt.Sprintf("templates/layouts/%s.tmpl", layout)
		for _, pageFile := range pages {
			page := strings.TrimSuffix(strings.TrimPrefix(pageFile, "templates/pages/"), ".tmpl")
			set, err := template.ParseFS(templatesFS,
				"templates/partials/*.tmpl",
				layoutFile,
				pageFile,
			)
			if err != nil {
				return nil, fmt.Errorf("parse %s/%s: %w", layout, page, err)
			}
			r.sets[string(layout)+"/"+page] = set
		}
	}
	return r, nil
}

// Render writes the page wrapped in the given layout variant.
func (r *Renderer) Render(w io.Writer, layout Layout, page string, data *PageData) error {
	set, ok := r.sets[string(layout)+"/"+page]
	if !ok {
		return fmt.Errorf("render: unknown layout/page %s/%s", layout, page)
	}
	return set.ExecuteTemplate(w, "layout", data)
}

// PageData is the data passed to every template set.
type PageData struct {
	Title       string
	ActivePath  string
	Nav         []NavItem
	Tabs        []TabItem
	Environment string
	Version     string
	// User is the authenticated user's identifier, empty when anonymous.
	User string

	// Page-specific content.
	Project    any
	Projects   any
	Section    string
	Message    string
	RetryPath  string
	RedirectTo string
	// Meta-refresh delay in seconds for notice pages; 0 disables.
	RedirectAfter int
}
