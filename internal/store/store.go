package store

import (
	"context"
	"errors"

	"github.com/dgallion1/reportdoc/internal/revision"
)

// ErrNotFound is returned by Load when no snapshot exists for a document.
var ErrNotFound = errors.New("document not found")

// Store persists document session snapshots keyed by document id.
type Store interface {
	Save(ctx context.Context, snap revision.Snapshot) error
	Load(ctx context.Context, docID string) (*revision.Snapshot, error)
	Delete(ctx context.Context, docID string) error
}

// Lister is implemented by stores that can enumerate their documents.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
