// Package history persists each user's conversation with the admission assistant.
//
// A history is the ordered list of turns exchanged by one identified user.
// Guests never reach this package. Every backend follows the same contract:
// loading a user with nothing stored yields an empty history, and saving
// replaces the whole history for that user in one atomic write.
package history

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/raphaelgruber/uniassist/internal/models"
)

// ErrInvalidUserID is returned for identifiers that cannot name a history.
var ErrInvalidUserID = errors.New("invalid user id")

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Store is durable per-user conversation history.
type Store interface {
	// Load returns the stored turns for userID, or an empty slice if none exist.
	Load(ctx context.Context, userID string) ([]models.Turn, error)
	// Save replaces the stored turns for userID.
	Save(ctx context.Context, userID string, turns []models.Turn) error
	// Delete removes any stored turns for userID. Deleting nothing is not an error.
	Delete(ctx context.Context, userID string) error
	// Close releases resources held by the store.
	Close() error
}

// ValidateUserID checks that id is non-empty and limited to letters, digits,
// '-' and '_', so it is safe as a file name or key.
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}

// normalize returns a non-nil slice so empty histories encode as [] rather than null.
func normalize(turns []models.Turn) []models.Turn {
	if turns == nil {
		return []models.Turn{}
	}
	return turns
}
