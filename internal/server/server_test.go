package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdanAlnoor/costportal/internal/config"
	"github.com/AdanAlnoor/costportal/internal/middleware"
)

func testServer(t *testing.T, backendURL string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.Supabase.URL = backendURL
	cfg.Supabase.APIKey = "test-key"
	cfg.Supabase.Realtime = false
	cfg.Auth.JWTSecret = "test-secret"

	s, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { s.close() })
	return s
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/rest/v1/projects"):
			if r.Header.Get("Accept") == "application/vnd.pgrst.object+json" {
				w.Write([]byte(`{"id":"p1","name":"Harbour Tower","project_number":"PRJ-001","client":"Acme","status":"active"}`))
				return
			}
			w.Write([]byte(`[{"id":"p1","name":"Harbour Tower","project_number":"PRJ-001","client":"Acme","status":"active"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	auth := middleware.NewAuth("test-secret", time.Hour, zerolog.Nop(), nil)
	token, err := auth.IssueToken("u1", "qs@example.com", "authenticated")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func TestAnonymousPageRedirectsToNotice(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login/notice" {
		t.Fatalf("expected redirect to notice page, got %q", got)
	}
}

func TestAuthenticatedDashboard(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="layout-dashboard"`) {
		t.Fatal("expected dashboard layout")
	}
}

func TestProjectRouteRedirectsToDefaultSection(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/projects/p1", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/projects/p1/bq" {
		t.Fatalf("expected /projects/p1/bq, got %q", got)
	}
}

func TestProjectSectionServed(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/projects/p1/summary", nil)
	req.AddCookie(sessionCookie(t))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Harbour Tower") || !strings.Contains(body, `data-section="summary"`) {
		t.Fatalf("expected project workspace on summary tab:\n%s", body)
	}
}

func TestHealthServedWithoutSession(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	for _, path := range []string{"/api/health", "/api/health/cache"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Fatalf("%s: expected JSON, got %q", path, got)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	// Generate one observed request first.
	warm := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.Handler().ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "portal_http_requests_total") {
		t.Fatal("expected request counter in metrics output")
	}
}

func TestStaticAssetServedWithoutSession(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/static/portal.css", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".sidebar") {
		t.Fatal("expected stylesheet body")
	}
}

func TestUnknownPathRenders404Page(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/no/such/page", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "does not exist") {
		t.Fatal("expected the not-found page body")
	}
}

func TestLoginFormServedWithoutSession(t *testing.T) {
	s := testServer(t, fakeBackend(t).URL)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/login"`) {
		t.Fatal("expected login form")
	}
}
