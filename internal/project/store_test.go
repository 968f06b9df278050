package project

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdanAlnoor/costportal/internal/supabase"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *SupabaseStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{URL: srv.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewSupabaseStore(client)
}

func TestSupabaseStoreFetchByID(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/projects" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p1" {
			t.Errorf("unexpected id filter %q", got)
		}
		w.Write([]byte(`{"id":"p1","name":"Tower A","project_number":"PRJ-001","status":"active"}`))
	})

	p, err := store.FetchByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Name != "Tower A" || p.ProjectNumber != "PRJ-001" {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestSupabaseStoreFetchByIDNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"no rows"}`))
	})

	_, err := store.FetchByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSupabaseStoreList(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("order"); got != "created_at.desc" {
			t.Errorf("unexpected order %q", got)
		}
		w.Write([]byte(`[{"id":"p2","name":"B"},{"id":"p1","name":"A"}]`))
	})

	projects, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != "p2" {
		t.Fatalf("unexpected projects %+v", projects)
	}
}

func TestRecordIDExtraction(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"insert", map[string]any{"record": map[string]any{"id": "p1"}}, "p1"},
		{"delete", map[string]any{"old_record": map[string]any{"id": "p2"}}, "p2"},
		{"empty", map[string]any{}, ""},
		{"malformed", map[string]any{"record": "not-a-map"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := recordID(tc.payload); got != tc.want {
				t.Fatalf("recordID = %q, want %q", got, tc.want)
			}
		})
	}
}
