package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raphaelgruber/uniassist/internal/models"
	bolt "go.etcd.io/bbolt"
)

var historyBucket = []byte("conversation_history")

// BoltStore keeps every user's history under one key in an embedded bbolt file.
// Each save is a single write transaction.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the bbolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(_ context.Context, userID string) ([]models.Turn, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	var turns []models.Turn
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(historyBucket).Get([]byte(userID))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &turns)
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return normalize(turns), nil
}

func (s *BoltStore) Save(_ context.Context, userID string, turns []models.Turn) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	b, err := json.Marshal(normalize(turns))
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Put([]byte(userID), b)
	})
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *BoltStore) Delete(_ context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Delete([]byte(userID))
	})
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
