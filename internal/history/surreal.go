package history

import (
	"context"

	"github.com/raphaelgruber/uniassist/internal/models"
)

// HistoryRecords is the subset of the SurrealDB client used for history storage.
type HistoryRecords interface {
	GetChatHistory(ctx context.Context, userID string) ([]models.Turn, error)
	PutChatHistory(ctx context.Context, userID string, turns []models.Turn) error
	DeleteChatHistory(ctx context.Context, userID string) error
}

// SurrealStore keeps each user's history as one chat_history record keyed by user id.
// The database connection is owned by the caller, so Close is a no-op.
type SurrealStore struct {
	records HistoryRecords
}

// NewSurrealStore creates a store over an open SurrealDB client.
func NewSurrealStore(records HistoryRecords) *SurrealStore {
	return &SurrealStore{records: records}
}

func (s *SurrealStore) Load(ctx context.Context, userID string) ([]models.Turn, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	turns, err := s.records.GetChatHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return normalize(turns), nil
}

func (s *SurrealStore) Save(ctx context.Context, userID string, turns []models.Turn) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	return s.records.PutChatHistory(ctx, userID, normalize(turns))
}

func (s *SurrealStore) Delete(ctx context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	return s.records.DeleteChatHistory(ctx, userID)
}

func (s *SurrealStore) Close() error { return nil }
