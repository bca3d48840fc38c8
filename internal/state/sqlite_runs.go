package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scanprobe/spmbatch/pkg/core"
)

// CreateRun inserts a new replay run. Missing fields are filled in: a zero
// ID gets a fresh UUID, a zero start time gets now.
func (s *SQLiteStore) CreateRun(run *core.ReplayRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if run.ID == "" {
		run.ID = generateID()
	}
	if run.Status == "" {
		run.Status = core.RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	s.logger.Debug("creating run", slog.String("id", run.ID))

	_, err := s.db.Exec(
		`INSERT INTO replay_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	_, err := s.db.Exec(
		`UPDATE replay_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.ReplayRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.ReplayRun{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, error FROM replay_runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.ReplayRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, status, started_at, completed_at, error
		 FROM replay_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.ReplayRun
	for rows.Next() {
		run := &core.ReplayRun{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordResult stores one per-channel outcome for a run.
func (s *SQLiteStore) RecordResult(runID string, res core.ChannelResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorPtr *string
	if msg := res.ErrString(); msg != "" {
		errorPtr = &msg
	}

	_, err := s.db.Exec(
		`INSERT INTO channel_results (id, run_id, file, channel, status, steps_applied, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		generateID(), runID, res.File, res.Channel, string(res.Status),
		res.StepsApplied, errorPtr, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// ResultsForRun retrieves the per-channel outcomes of a run in insertion
// order.
func (s *SQLiteStore) ResultsForRun(runID string) ([]core.ChannelResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT file, channel, status, steps_applied, error
		 FROM channel_results WHERE run_id = ? ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []core.ChannelResult
	for rows.Next() {
		var res core.ChannelResult
		var errMsg sql.NullString
		if err := rows.Scan(&res.File, &res.Channel, &res.Status, &res.StepsApplied, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if errMsg.Valid {
			res.Err = errors.New(errMsg.String)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
