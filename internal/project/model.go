// Package project holds the project domain: the record shape, the backend
// store, and the load/caching state machine used by project pages.
package project

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no project exists for an identifier.
var ErrNotFound = errors.New("project: not found")

// Project is a cost-control project record. Beyond ID, the layout and
// navigation layers treat it as display data only.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ProjectNumber string    `json:"project_number"`
	Client        string    `json:"client"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
