package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	platformerrors "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/errors"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/storage"
)

type memoryStore struct {
	docs    map[string]storage.ResourceDocument
	failPut error
	failGet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string]storage.ResourceDocument)}
}

func docKey(kind, id string) string {
	return kind + "/" + id
}

func (m *memoryStore) PutDocument(_ context.Context, doc storage.ResourceDocument) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.docs[docKey(doc.Kind, doc.ID)] = doc
	return nil
}

func (m *memoryStore) GetDocument(_ context.Context, kind, id string) (storage.ResourceDocument, error) {
	if m.failGet != nil {
		return storage.ResourceDocument{}, m.failGet
	}
	doc, ok := m.docs[docKey(kind, id)]
	if !ok {
		return storage.ResourceDocument{}, storage.ErrNotFound
	}
	return doc, nil
}

func (m *memoryStore) DeleteDocument(_ context.Context, kind, id string) error {
	if _, ok := m.docs[docKey(kind, id)]; !ok {
		return storage.ErrNotFound
	}
	delete(m.docs, docKey(kind, id))
	return nil
}

func newTestService(t *testing.T, store storage.DocumentStore) *Service {
	t.Helper()
	counter := 0
	svc, err := NewService(store,
		WithClock(func() time.Time {
			return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		}),
		WithIDGenerator(func() (string, error) {
			counter++
			return fmt.Sprintf("id-%d", counter), nil
		}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestApplyCreate(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store)

	raw, err := svc.Apply(context.Background(), "user-1", domain.Operation{
		ID:       "op-1",
		Type:     domain.OpCreate,
		Resource: domain.ResourceAccount,
		Data:     json.RawMessage(`{"name":"Savings"}`),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	var payload struct {
		Kind string          `json:"kind"`
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if payload.Kind != "account" || payload.ID != "id-1" {
		t.Fatalf("payload = %+v", payload)
	}

	stored, ok := store.docs[docKey("account", "id-1")]
	if !ok {
		t.Fatal("document not persisted")
	}
	if stored.OwnerUserID != "user-1" {
		t.Fatalf("owner = %q", stored.OwnerUserID)
	}
}

func TestApplyUpdate(t *testing.T) {
	store := newMemoryStore()
	store.docs[docKey("goal", "g-1")] = storage.ResourceDocument{
		Kind:        "goal",
		ID:          "g-1",
		OwnerUserID: "user-1",
		DataJSON:    `{"target":1000}`,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := newTestService(t, store)

	raw, err := svc.Apply(context.Background(), "user-1", domain.Operation{
		ID:         "op-1",
		Type:       domain.OpUpdate,
		Resource:   domain.ResourceGoal,
		ResourceID: "g-1",
		Data:       json.RawMessage(`{"target":2000}`),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if raw == nil {
		t.Fatal("expected result payload")
	}

	stored := store.docs[docKey("goal", "g-1")]
	if stored.DataJSON != `{"target":2000}` {
		t.Fatalf("data = %q", stored.DataJSON)
	}
	if !stored.CreatedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created at changed: %v", stored.CreatedAt)
	}
}

func TestApplyUpdateNotFound(t *testing.T) {
	svc := newTestService(t, newMemoryStore())

	_, err := svc.Apply(context.Background(), "user-1", domain.Operation{
		ID:         "op-1",
		Type:       domain.OpUpdate,
		Resource:   domain.ResourceGoal,
		ResourceID: "missing",
		Data:       json.RawMessage(`{}`),
	})
	if got := platformerrors.CodeOf(err); got != platformerrors.CodeResourceNotFound {
		t.Fatalf("code = %s, want %s", got, platformerrors.CodeResourceNotFound)
	}
}

func TestApplyDelete(t *testing.T) {
	store := newMemoryStore()
	store.docs[docKey("scenario", "s-1")] = storage.ResourceDocument{Kind: "scenario", ID: "s-1"}
	svc := newTestService(t, store)

	raw, err := svc.Apply(context.Background(), "user-1", domain.Operation{
		ID:         "op-1",
		Type:       domain.OpDelete,
		Resource:   domain.ResourceScenario,
		ResourceID: "s-1",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if raw != nil {
		t.Fatalf("delete returned payload: %s", raw)
	}
	if _, ok := store.docs[docKey("scenario", "s-1")]; ok {
		t.Fatal("document still present")
	}
}

func TestApplyRead(t *testing.T) {
	store := newMemoryStore()
	store.docs[docKey("account", "a-1")] = storage.ResourceDocument{
		Kind:     "account",
		ID:       "a-1",
		DataJSON: `{"balance":500}`,
	}
	svc := newTestService(t, store)

	raw, err := svc.Apply(context.Background(), "user-1", domain.Operation{
		ID:         "op-1",
		Type:       domain.OpRead,
		Resource:   domain.ResourceAccount,
		ResourceID: "a-1",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if string(payload.Data) != `{"balance":500}` {
		t.Fatalf("data = %s", payload.Data)
	}
}

func TestApplyValidationErrors(t *testing.T) {
	svc := newTestService(t, newMemoryStore())
	ctx := context.Background()

	cases := []struct {
		name string
		op   domain.Operation
		code platformerrors.Code
	}{
		{
			name: "missing id",
			op:   domain.Operation{Type: domain.OpRead, Resource: domain.ResourceAccount, ResourceID: "a-1"},
			code: platformerrors.CodeOperationIDMissing,
		},
		{
			name: "create without data",
			op:   domain.Operation{ID: "op-1", Type: domain.OpCreate, Resource: domain.ResourceAccount},
			code: platformerrors.CodeOperationDataMissing,
		},
		{
			name: "delete without resource id",
			op:   domain.Operation{ID: "op-1", Type: domain.OpDelete, Resource: domain.ResourceAccount},
			code: platformerrors.CodeResourceIDMissing,
		},
		{
			name: "unknown type",
			op:   domain.Operation{ID: "op-1", Type: "merge", Resource: domain.ResourceAccount},
			code: platformerrors.CodeUnsupportedOperation,
		},
		{
			name: "unknown resource",
			op:   domain.Operation{ID: "op-1", Type: domain.OpRead, Resource: "budget", ResourceID: "b-1"},
			code: platformerrors.CodeUnsupportedResource,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, "user-1", tc.op)
			if got := platformerrors.CodeOf(err); got != tc.code {
				t.Fatalf("code = %s, want %s", got, tc.code)
			}
		})
	}
}

func TestApplyStorageFailureIsTransient(t *testing.T) {
	store := newMemoryStore()
	store.failGet = errors.New("disk offline")
	svc := newTestService(t, store)

	_, err := svc.Apply(context.Background(), "user-1", domain.Operation{
		ID:         "op-1",
		Type:       domain.OpRead,
		Resource:   domain.ResourceAccount,
		ResourceID: "a-1",
	})
	if !platformerrors.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
