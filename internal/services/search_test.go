package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"autodiag-backend/internal/models"
)

type fakeSearchStore struct {
	saved   []*models.SearchEntry
	saveErr error
	listErr error
}

func (f *fakeSearchStore) Save(ctx context.Context, entry *models.SearchEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, entry)
	return nil
}

func (f *fakeSearchStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SearchEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.saved, nil
}

func TestRecordSubmission_WaitsForFeedbackDelay(t *testing.T) {
	store := &fakeSearchStore{}
	svc := NewSearchService(store, 20, 80*time.Millisecond)

	start := time.Now()
	svc.RecordSubmission(context.Background(), uuid.New(), models.VehicleQuery{Brand: "Fiat", Model: "Uno", Year: "2015"})
	elapsed := time.Since(start)

	if elapsed < 80*time.Millisecond {
		t.Errorf("returned after %v, before the feedback delay elapsed", elapsed)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 recorded search, got %d", len(store.saved))
	}
	if store.saved[0].Query.Brand != "Fiat" {
		t.Errorf("unexpected recorded query: %+v", store.saved[0].Query)
	}
}

func TestRecordSubmission_AnonymousSkipsWrite(t *testing.T) {
	store := &fakeSearchStore{}
	svc := NewSearchService(store, 20, time.Millisecond)

	svc.RecordSubmission(context.Background(), uuid.Nil, models.VehicleQuery{Brand: "Fiat"})

	if len(store.saved) != 0 {
		t.Errorf("anonymous submission must not write history, got %d entries", len(store.saved))
	}
}

func TestRecordSubmission_SaveFailureDoesNotBlockSubmission(t *testing.T) {
	store := &fakeSearchStore{saveErr: errors.New("write timeout")}
	svc := NewSearchService(store, 20, time.Millisecond)

	// must return normally despite the failed write
	svc.RecordSubmission(context.Background(), uuid.New(), models.VehicleQuery{Brand: "VW"})
}

func TestListSearches_RequiresUser(t *testing.T) {
	svc := NewSearchService(&fakeSearchStore{}, 20, time.Millisecond)

	_, err := svc.ListSearches(context.Background(), uuid.Nil)

	var authErr *AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthRequiredError, got %v", err)
	}
}

func TestListSearches_WrapsStoreError(t *testing.T) {
	svc := NewSearchService(&fakeSearchStore{listErr: errors.New("timeout")}, 20, time.Millisecond)

	_, err := svc.ListSearches(context.Background(), uuid.New())

	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
