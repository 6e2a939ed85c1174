package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/ponder/internal/chain"
	"go.uber.org/zap"
)

// Result statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result is a persisted reasoning outcome. Pending and failed rows carry
// only the query and status/error; completed rows carry the full chain.
type Result struct {
	ID          string                 `json:"id"`
	Query       string                 `json:"query"`
	Answer      string                 `json:"answer"`
	Confidence  float64                `json:"confidence"`
	Provider    string                 `json:"provider"`
	Model       string                 `json:"model"`
	Strategy    string                 `json:"strategy"`
	TotalTokens int                    `json:"total_tokens"`
	Steps       []chain.ReasoningStep  `json:"steps"`
	Metadata    map[string]interface{} `json:"metadata"`
	Status      string                 `json:"status"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Stats summarizes the stored results.
type Stats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Pending   int     `json:"pending"`
	AvgTokens float64 `json:"avg_tokens"`
}

// SaveChain upserts a completed reasoning chain under the given id.
func (s *Store) SaveChain(ctx context.Context, id string, c *chain.ReasoningChain) error {
	stepsJSON, err := json.Marshal(c.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	metadataJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO reasoning_results
			(id, query, answer, confidence, provider, model, strategy,
			 total_tokens, steps, metadata, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			query = EXCLUDED.query,
			answer = EXCLUDED.answer,
			confidence = EXCLUDED.confidence,
			provider = EXCLUDED.provider,
			model = EXCLUDED.model,
			strategy = EXCLUDED.strategy,
			total_tokens = EXCLUDED.total_tokens,
			steps = EXCLUDED.steps,
			metadata = EXCLUDED.metadata,
			status = EXCLUDED.status,
			error = NULL,
			updated_at = now()`,
		id, c.Query, c.Answer, c.Confidence, c.Provider, c.Model, c.Strategy,
		c.TotalTokens, stepsJSON, metadataJSON, StatusCompleted, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// SavePending records a task that has been accepted but not yet processed.
func (s *Store) SavePending(ctx context.Context, id, query string) error {
	return s.saveStatus(ctx, id, query, StatusPending, "")
}

// SaveFailed records a task whose processing failed.
func (s *Store) SaveFailed(ctx context.Context, id, query, errMsg string) error {
	return s.saveStatus(ctx, id, query, StatusFailed, errMsg)
}

func (s *Store) saveStatus(ctx context.Context, id, query, status, errMsg string) error {
	var errVal interface{}
	if errMsg != "" {
		errVal = errMsg
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO reasoning_results (id, query, status, error)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			query = EXCLUDED.query,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			updated_at = now()`,
		id, query, status, errVal,
	)
	if err != nil {
		return fmt.Errorf("save %s result: %w", status, err)
	}
	return nil
}

const resultColumns = `
	id, query, COALESCE(answer, ''), confidence,
	COALESCE(provider, ''), COALESCE(model, ''), COALESCE(strategy, ''),
	total_tokens, steps, metadata, status, COALESCE(error, ''),
	created_at, updated_at`

func (s *Store) scanResult(row pgx.Row) (*Result, error) {
	var r Result
	var stepsJSON, metadataJSON []byte
	err := row.Scan(
		&r.ID, &r.Query, &r.Answer, &r.Confidence,
		&r.Provider, &r.Model, &r.Strategy,
		&r.TotalTokens, &stepsJSON, &metadataJSON, &r.Status, &r.Error,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &r.Steps); err != nil {
			s.logger.Warn("stored steps undecodable",
				zap.String("id", r.ID), zap.Error(err))
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			s.logger.Warn("stored metadata undecodable",
				zap.String("id", r.ID), zap.Error(err))
		}
	}
	return &r, nil
}

// GetResult fetches one result by id, or nil when not found.
func (s *Store) GetResult(ctx context.Context, id string) (*Result, error) {
	row := s.db.QueryRow(ctx,
		`SELECT`+resultColumns+` FROM reasoning_results WHERE id = $1`, id)
	r, err := s.scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

// ListResults returns recent results, newest first, optionally filtered by
// status.
func (s *Store) ListResults(ctx context.Context, limit int, status string) ([]*Result, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.db.Query(ctx,
			`SELECT`+resultColumns+` FROM reasoning_results
			 WHERE status = $1 ORDER BY created_at DESC LIMIT $2`, status, limit)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT`+resultColumns+` FROM reasoning_results
			 ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	return s.collectResults(rows)
}

// SearchResults returns results whose query contains the search term,
// newest first.
func (s *Store) SearchResults(ctx context.Context, term string, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx,
		`SELECT`+resultColumns+` FROM reasoning_results
		 WHERE query ILIKE $1 ORDER BY created_at DESC LIMIT $2`,
		"%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search results: %w", err)
	}
	defer rows.Close()

	return s.collectResults(rows)
}

func (s *Store) collectResults(rows pgx.Rows) ([]*Result, error) {
	var results []*Result
	for rows.Next() {
		r, err := s.scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteResult removes a result, reporting whether it existed.
func (s *Store) DeleteResult(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reasoning_results WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete result: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetStats summarizes stored results by status and average token usage of
// completed runs.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(AVG(total_tokens) FILTER (WHERE status = 'completed'), 0)
		FROM reasoning_results`,
	).Scan(&st.Total, &st.Completed, &st.Failed, &st.Pending, &st.AvgTokens)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &st, nil
}
