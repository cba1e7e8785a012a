package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"civic-quiz-engine/internal/domain"
)

// ProgressStore persists one snapshot row per composite key for
// authenticated users. Saves upsert; the row is the single source of truth
// for resume.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) SaveProgress(ctx context.Context, key domain.ProgressKey, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_progress (identity, session_id, topic_id, mode, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (identity, session_id, topic_id, mode)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		key.Identity(), key.SessionID, key.TopicID, key.Mode, data)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) LoadProgress(ctx context.Context, key domain.ProgressKey) (domain.Snapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM quiz_progress
		WHERE identity=$1 AND session_id=$2 AND topic_id=$3 AND mode=$4`,
		key.Identity(), key.SessionID, key.TopicID, key.Mode).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load progress: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (s *ProgressStore) ClearProgress(ctx context.Context, key domain.ProgressKey) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM quiz_progress
		WHERE identity=$1 AND session_id=$2 AND topic_id=$3 AND mode=$4`,
		key.Identity(), key.SessionID, key.TopicID, key.Mode)
	if err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
