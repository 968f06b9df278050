package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdanAlnoor/costportal/internal/supabase"
)

// Store fetches project records from the backend.
type Store interface {
	FetchByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
}

const projectsTable = "projects"

// SupabaseStore reads projects from the hosted backend via PostgREST.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore creates a store backed by the given client.
func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

// FetchByID fetches a single project. Absence is ErrNotFound.
func (s *SupabaseStore) FetchByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := s.client.From(projectsTable).
		Select("*").
		Eq("id", id).
		Single().
		Execute(ctx, &p)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch project %s: %w", id, err)
	}
	return &p, nil
}

// List returns all projects, newest first.
func (s *SupabaseStore) List(ctx context.Context) ([]Project, error) {
	var projects []Project
	err := s.client.From(projectsTable).
		Select("*").
		Order("created_at", false).
		Execute(ctx, &projects)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}
