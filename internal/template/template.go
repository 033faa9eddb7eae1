// Package template caches confirmed column mappings keyed by the header
// layout of a bank export, so a known layout is mapped without detection.
package template

import (
	"context"
	"errors"
	"time"

	"fjacquet/rent-recon/internal/models"
)

// ErrNotFound is returned by repositories for an absent template.
var ErrNotFound = errors.New("template not found")

// Template is a saved mapping. An empty Owner denotes the shared namespace.
type Template struct {
	HeaderHash string               `json:"header_hash" yaml:"header_hash"`
	Owner      string               `json:"owner,omitempty" yaml:"owner,omitempty"`
	Label      string               `json:"label,omitempty" yaml:"label,omitempty"`
	Columns    []string             `json:"columns" yaml:"columns"`
	Mapping    models.ColumnMapping `json:"mapping" yaml:"mapping"`
	SavedAt    time.Time            `json:"saved_at" yaml:"saved_at"`
}

// Shared reports whether the template belongs to the shared namespace.
func (t Template) Shared() bool {
	return t.Owner == ""
}

// Repository persists templates. Implementations must be safe for
// concurrent readers; concurrent saves are last-writer-wins.
type Repository interface {
	GetTemplate(ctx context.Context, owner, headerHash string) (Template, error)
	PutTemplate(ctx context.Context, t Template) error
	DeleteTemplate(ctx context.Context, owner, headerHash string) error
	ListTemplates(ctx context.Context, owner string) ([]Template, error)
}
