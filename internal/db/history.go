package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

type chatHistoryRow struct {
	Turns []models.Turn `json:"turns"`
}

// GetChatHistory returns the stored turns for userID, or an empty slice.
func (c *Client) GetChatHistory(ctx context.Context, userID string) (_ []models.Turn, err error) {
	defer c.observe(time.Now(), &err)

	results, err := surrealdb.Query[[]chatHistoryRow](ctx, c.db,
		`SELECT turns FROM type::record("chat_history", $id)`,
		map[string]any{"id": userID})
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}
	row := firstResult(results)
	if row == nil || row.Turns == nil {
		return []models.Turn{}, nil
	}
	return row.Turns, nil
}

// PutChatHistory replaces the stored turns for userID in a single UPSERT.
func (c *Client) PutChatHistory(ctx context.Context, userID string, turns []models.Turn) (err error) {
	defer c.observe(time.Now(), &err)

	encoded := make([]map[string]any, 0, len(turns))
	for _, t := range turns {
		encoded = append(encoded, map[string]any{"role": string(t.Role), "message": t.Message})
	}

	_, err = surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("chat_history", $id) CONTENT {
			turns: $turns,
			updated_at: time::now()
		}
	`, map[string]any{"id": userID, "turns": encoded})
	if err != nil {
		return fmt.Errorf("put chat history: %w", wrapQueryError(err))
	}
	return nil
}

// DeleteChatHistory removes the history record for userID, if any.
func (c *Client) DeleteChatHistory(ctx context.Context, userID string) (err error) {
	defer c.observe(time.Now(), &err)

	_, err = surrealdb.Query[any](ctx, c.db,
		`DELETE type::record("chat_history", $id)`,
		map[string]any{"id": userID})
	if err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}
