// Package storage defines the persistence boundary for the calc service.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a resource document was not found.
var ErrNotFound = errors.New("resource document not found")

// ResourceDocument is one opaque resource payload owned by a user. The
// calc service stores accounts, goals, and scenarios as JSON documents;
// their schema belongs to the surrounding application.
type ResourceDocument struct {
	Kind        string
	ID          string
	OwnerUserID string
	DataJSON    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentStore persists resource documents per kind.
type DocumentStore interface {
	PutDocument(ctx context.Context, doc ResourceDocument) error
	GetDocument(ctx context.Context, kind string, id string) (ResourceDocument, error)
	DeleteDocument(ctx context.Context, kind string, id string) error
}
