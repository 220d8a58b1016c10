package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"autodiag-backend/internal/models"
)

type searchStore interface {
	Save(ctx context.Context, entry *models.SearchEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SearchEntry, error)
}

// SearchService records vehicle search submissions.
type SearchService struct {
	store         searchStore
	limit         int
	feedbackDelay time.Duration
}

func NewSearchService(store searchStore, limit int, feedbackDelay time.Duration) *SearchService {
	return &SearchService{store: store, limit: limit, feedbackDelay: feedbackDelay}
}

// RecordSubmission writes the search entry while a fixed feedback delay runs
// alongside; both are awaited before returning, so the caller always sees a
// minimum processing duration and the write has been attempted. The write's
// outcome does not gate the submission.
func (s *SearchService) RecordSubmission(ctx context.Context, userID uuid.UUID, query models.VehicleQuery) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if userID == uuid.Nil {
			return nil
		}
		entry := &models.SearchEntry{UserID: userID, Query: query}
		if err := s.store.Save(gctx, entry); err != nil {
			log.Printf("Failed to record search for user %s: %v", userID, err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-time.After(s.feedbackDelay):
		case <-gctx.Done():
		}
		return nil
	})

	g.Wait()
}

func (s *SearchService) ListSearches(ctx context.Context, userID uuid.UUID) ([]*models.SearchEntry, error) {
	if userID == uuid.Nil {
		return nil, &AuthRequiredError{Message: "Você precisa estar logado para ver o histórico"}
	}

	entries, err := s.store.ListByUser(ctx, userID, s.limit)
	if err != nil {
		return nil, &PersistenceError{Message: "Não foi possível carregar as buscas recentes", Err: err}
	}
	return entries, nil
}
