package web

import (
	"testing"
)

func TestDefaultRoutesAreValid(t *testing.T) {
	if err := ValidateRoutes(Routes()); err != nil {
		t.Fatalf("default route tree invalid: %v", err)
	}
}

func TestValidateRejectsDuplicatePaths(t *testing.T) {
	routes := []RouteConfig{
		{Path: "/a", Layout: LayoutDefault, Title: "A"},
		{Path: "/b", Layout: LayoutDefault, Title: "B", Children: []RouteConfig{
			{Path: "/a", Layout: LayoutDefault, Title: "A again"},
		}},
	}
	if err := ValidateRoutes(routes); err == nil {
		t.Fatal("expected duplicate path error")
	}
}

func TestValidateRejectsUnknownLayout(t *testing.T) {
	routes := []RouteConfig{{Path: "/a", Layout: Layout("sidebar-v2"), Title: "A"}}
	if err := ValidateRoutes(routes); err == nil {
		t.Fatal("expected unknown layout error")
	}
}

func TestValidateRejectsEmptyPath(t *testing.T) {
	routes := []RouteConfig{{Path: "", Layout: LayoutDefault, Title: "A"}}
	if err := ValidateRoutes(routes); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestNavMarksActiveAndSkipsHidden(t *testing.T) {
	routes := []RouteConfig{
		{Path: "/", Layout: LayoutDashboard, Title: "Dashboard"},
		{Path: "/projects", Layout: LayoutFilter, Title: "Projects"},
		{Path: "/login", Layout: LayoutDefault, Title: "Sign in", Hidden: true},
	}

	items := Nav(routes, "/projects")
	if len(items) != 2 {
		t.Fatalf("expected hidden route excluded, got %d items", len(items))
	}
	for _, it := range items {
		if it.Active != (it.Path == "/projects") {
			t.Fatalf("wrong active flag on %q", it.Path)
		}
	}
}

func TestLayoutFor(t *testing.T) {
	routes := Routes()
	if got := LayoutFor(routes, "/"); got != LayoutDashboard {
		t.Fatalf("expected dashboard layout for /, got %q", got)
	}
	if got := LayoutFor(routes, "/projects/{id}/{section}"); got != LayoutDashboard {
		t.Fatalf("expected dashboard layout for section route, got %q", got)
	}
	if got := LayoutFor(routes, "/nope"); got != LayoutDefault {
		t.Fatalf("expected default layout fallback, got %q", got)
	}
}
