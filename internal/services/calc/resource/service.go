// Package resource applies batch operations to stored resource documents.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/id"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/storage"
)

// Service executes a single batch operation against the document store.
// It owns validation, resource-kind dispatch, and not-found mapping; the
// batch runner treats it as one opaque unit of work.
type Service struct {
	store storage.DocumentStore
	clock func() time.Time
	newID func() (string, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides the resource id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService creates a resource service backed by store.
func NewService(store storage.DocumentStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	s := &Service{
		store: store,
		clock: time.Now,
		newID: id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func supportedKind(kind domain.ResourceKind) bool {
	switch kind {
	case domain.ResourceAccount, domain.ResourceGoal, domain.ResourceScenario:
		return true
	}
	return false
}

// Apply runs one operation for userID and returns the result payload for
// reads and writes that produce one. Errors carry platform codes so the
// batch runner can classify them without string inspection.
func (s *Service) Apply(ctx context.Context, userID string, op domain.Operation) (json.RawMessage, error) {
	if s == nil || s.store == nil {
		return nil, platformerrors.New(platformerrors.CodeStorageUnavailable, "resource service not initialized")
	}
	if err := domain.ValidateOperation(op); err != nil {
		return nil, err
	}
	if !supportedKind(op.Resource) {
		return nil, platformerrors.WithMetadata(
			platformerrors.CodeUnsupportedResource,
			"unknown resource kind",
			map[string]string{"resource": string(op.Resource)},
		)
	}

	switch op.Type {
	case domain.OpCreate:
		return s.create(ctx, userID, op)
	case domain.OpUpdate:
		return s.update(ctx, userID, op)
	case domain.OpDelete:
		return nil, s.delete(ctx, op)
	case domain.OpRead:
		return s.read(ctx, op)
	}
	return nil, platformerrors.WithMetadata(
		platformerrors.CodeUnsupportedOperation,
		"unknown operation type",
		map[string]string{"type": string(op.Type)},
	)
}

// documentPayload is the caller-facing shape of a stored document.
type documentPayload struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func marshalDocument(doc storage.ResourceDocument) (json.RawMessage, error) {
	payload := documentPayload{
		Kind:      doc.Kind,
		ID:        doc.ID,
		Data:      json.RawMessage(doc.DataJSON),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeUnknown, "encode resource document", err)
	}
	return raw, nil
}

func (s *Service) create(ctx context.Context, userID string, op domain.Operation) (json.RawMessage, error) {
	resourceID, err := s.newID()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeUnknown, "generate resource id", err)
	}
	now := s.clock().UTC()
	doc := storage.ResourceDocument{
		Kind:        string(op.Resource),
		ID:          resourceID,
		OwnerUserID: userID,
		DataJSON:    string(op.Data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutDocument(ctx, doc); err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeStorageUnavailable, "persist resource document", err)
	}
	return marshalDocument(doc)
}

func (s *Service) update(ctx context.Context, userID string, op domain.Operation) (json.RawMessage, error) {
	existing, err := s.store.GetDocument(ctx, string(op.Resource), op.ResourceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, platformerrors.WithMetadata(
				platformerrors.CodeResourceNotFound,
				"resource not found",
				map[string]string{"resource": string(op.Resource), "id": op.ResourceID},
			)
		}
		return nil, platformerrors.Wrap(platformerrors.CodeStorageUnavailable, "load resource document", err)
	}

	existing.DataJSON = string(op.Data)
	existing.UpdatedAt = s.clock().UTC()
	if existing.OwnerUserID == "" {
		existing.OwnerUserID = userID
	}
	if err := s.store.PutDocument(ctx, existing); err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeStorageUnavailable, "persist resource document", err)
	}
	return marshalDocument(existing)
}

func (s *Service) delete(ctx context.Context, op domain.Operation) error {
	err := s.store.DeleteDocument(ctx, string(op.Resource), op.ResourceID)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return platformerrors.WithMetadata(
			platformerrors.CodeResourceNotFound,
			"resource not found",
			map[string]string{"resource": string(op.Resource), "id": op.ResourceID},
		)
	}
	return platformerrors.Wrap(platformerrors.CodeStorageUnavailable, "delete resource document", err)
}

func (s *Service) read(ctx context.Context, op domain.Operation) (json.RawMessage, error) {
	doc, err := s.store.GetDocument(ctx, string(op.Resource), op.ResourceID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, platformerrors.WithMetadata(
				platformerrors.CodeResourceNotFound,
				"resource not found",
				map[string]string{"resource": string(op.Resource), "id": op.ResourceID},
			)
		}
		return nil, platformerrors.Wrap(platformerrors.CodeStorageUnavailable, "load resource document", err)
	}
	return marshalDocument(doc)
}
