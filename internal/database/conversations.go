package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SaveConversation upserts the serialized conversation state.
func (d *DB) SaveConversation(id string, stateJSON []byte, updatedAt time.Time) error {
	_, err := d.Exec(`
		INSERT INTO conversations (id, state_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, id, string(stateJSON), updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", id, err)
	}
	return nil
}

// LoadConversation returns the serialized state for id, or ok=false when the
// conversation is unknown.
func (d *DB) LoadConversation(id string) ([]byte, bool, error) {
	var stateJSON string
	err := d.QueryRow(`SELECT state_json FROM conversations WHERE id = ?`, id).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	return []byte(stateJSON), true, nil
}

// DeleteConversation removes a terminated negotiation's state.
func (d *DB) DeleteConversation(id string) error {
	if _, err := d.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

// DeleteConversationsBefore clears states untouched since cutoff. Used to
// enforce the inactivity ceiling on abandoned negotiations.
func (d *DB) DeleteConversationsBefore(cutoff time.Time) (int64, error) {
	res, err := d.Exec(`DELETE FROM conversations WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune conversations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PruneConversationsLoop deletes conversation state untouched for longer than
// ttl, re-checking every interval until ctx is cancelled. A negotiation the
// user silently walks away from is reclaimed here rather than lingering
// forever.
func (d *DB) PruneConversationsLoop(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.DeleteConversationsBefore(time.Now().Add(-ttl))
			if err != nil {
				slog.Warn("conversation prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned inactive conversations", "count", n)
			}
		}
	}
}
