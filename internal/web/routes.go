package web

import (
	"fmt"
)

// RouteConfig is static metadata associating a path with a layout variant
// and display title. The tree is defined at build time and read-only at
// runtime; the sidebar renders from it.
type RouteConfig struct {
	Path     string
	Layout   Layout
	Title    string
	Icon     string
	Hidden   bool // excluded from navigation, still validated
	Children []RouteConfig
}

// NavItem is a flattened, renderable navigation entry.
type NavItem struct {
	Path   string
	Title  string
	Icon   string
	Active bool
}

// Routes returns the portal's route tree.
func Routes() []RouteConfig {
	return []RouteConfig{
		{Path: "/", Layout: LayoutDashboard, Title: "Dashboard", Icon: "home"},
		{
			Path: "/projects", Layout: LayoutFilter, Title: "Projects", Icon: "folder",
			Children: []RouteConfig{
				{Path: "/projects/{id}", Layout: LayoutDashboard, Title: "Project", Hidden: true},
				{Path: "/projects/{id}/{section}", Layout: LayoutDashboard, Title: "Cost Control", Hidden: true},
			},
		},
		{Path: "/login", Layout: LayoutDefault, Title: "Sign in", Hidden: true},
		{Path: "/login/notice", Layout: LayoutDefault, Title: "Sign in required", Hidden: true},
	}
}

// ValidateRoutes checks the invariants of a route tree: paths unique
// across the whole tree, every layout registered.
func ValidateRoutes(routes []RouteConfig) error {
	seen := make(map[string]bool)
	var walk func([]RouteConfig) error
	walk = func(rs []RouteConfig) error {
		for _, r := range rs {
			if r.Path == "" {
				return fmt.Errorf("route %q: empty path", r.Title)
			}
			if seen[r.Path] {
				return fmt.Errorf("route %s: duplicate path", r.Path)
			}
			seen[r.Path] = true
			if !r.Layout.Registered() {
				return fmt.Errorf("route %s: unknown layout %q", r.Path, r.Layout)
			}
			if err := walk(r.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(routes)
}

// Nav flattens the visible top-level routes for sidebar rendering, marking
// the entry matching activePath.
func Nav(routes []RouteConfig, activePath string) []NavItem {
	items := make([]NavItem, 0, len(routes))
	for _, r := range routes {
		if r.Hidden {
			continue
		}
		items = append(items, NavItem{
			Path:   r.Path,
			Title:  r.Title,
			Icon:   r.Icon,
			Active: r.Path == activePath,
		})
	}
	return items
}

// LayoutFor returns the layout variant configured for path, searching the
// whole tree. Unknown paths get the default layout.
func LayoutFor(routes []RouteConfig, path string) Layout {
	var find func([]RouteConfig) (Layout, bool)
	find = func(rs []RouteConfig) (Layout, bool) {
		for _, r := range rs {
			if r.Path == path {
				return r.Layout, true
			}
			if l, ok := find(r.Children); ok {
				return l, true
			}
		}
		return "", false
	}
	if l, ok := find(routes); ok {
		return l
	}
	return LayoutDefault
}
