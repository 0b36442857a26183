package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/models"
)

// ErrNotFound is returned when a history item does not exist for the user.
var ErrNotFound = errors.New("history item not found")

// DefaultListLimit caps a history page when the caller does not ask for one.
const DefaultListLimit = 50

// Recorder observes query latency.
type Recorder interface {
	RecordDBQuery(operation string, duration time.Duration)
}

// Service stores and retrieves generation history. Records are append-only;
// they are removed only by explicit user deletion or the retention purge.
type Service struct {
	db  *sql.DB
	log logger.Logger
	rec Recorder
}

// NewService creates a new history service
func NewService(db *sql.DB, log logger.Logger) *Service {
	return &Service{db: db, log: log}
}

// WithMetrics attaches a query latency recorder and returns the service.
func (s *Service) WithMetrics(rec Recorder) *Service {
	s.rec = rec
	return s
}

func (s *Service) observe(operation string, start time.Time) {
	if s.rec != nil {
		s.rec.RecordDBQuery(operation, time.Since(start))
	}
}

// Append persists one generation record and returns its ID.
func (s *Service) Append(ctx context.Context, userID string, item models.HistoryItem) (string, error) {
	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := item.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	input, err := json.Marshal(item.Input)
	if err != nil {
		return "", fmt.Errorf("failed to encode input: %w", err)
	}
	output, err := json.Marshal(item.Output)
	if err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}

	defer s.observe("history_insert", time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (id, user_id, feature, input, output, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, item.Feature, input, output, ts)
	if err != nil {
		return "", fmt.Errorf("failed to save history: %w", err)
	}
	return id, nil
}

// List returns the user's history, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	defer s.observe("history_select", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feature, input, output, created_at
		 FROM history WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	items := []models.HistoryItem{}
	for rows.Next() {
		var (
			item          models.HistoryItem
			input, output []byte
		)
		if err := rows.Scan(&item.ID, &item.Feature, &input, &output, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := json.Unmarshal(input, &item.Input); err != nil {
			s.log.Warn("history input did not decode, leaving it empty", "id", item.ID, "error", err)
		}
		if err := json.Unmarshal(output, &item.Output); err != nil {
			s.log.Warn("history output did not decode, leaving it empty", "id", item.ID, "error", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes one history item owned by the user.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	defer s.observe("history_delete", time.Now())
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan purges records created before the cutoff and returns the
// number removed. Used by the nightly retention job.
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	defer s.observe("history_purge", time.Now())
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge history: %w", err)
	}
	return res.RowsAffected()
}
