package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Column lists in the order scanTask and scanRun expect.
const (
	taskColumns = `task_id, label, interval_ms, enabled, last_run_ms, next_run_ms, last_success_ms, last_error`
	runColumns  = `run_id, task_id, trigger_name, started_ms, ended_ms, error, files_applied, files_skipped, identities`
)

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// schedulerStore keeps the recompute task and its runs in SQLite.
// A run counts as successful when it recorded no error.
type schedulerStore struct {
	db *sql.DB
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM recompute_tasks WHERE task_id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recompute_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			label = excluded.label,
			interval_ms = excluded.interval_ms,
			enabled = excluded.enabled,
			last_run_ms = excluded.last_run_ms,
			next_run_ms = excluded.next_run_ms,
			last_success_ms = excluded.last_success_ms,
			last_error = excluded.last_error`,
		task.ID, task.Name, task.Interval.Milliseconds(), task.Enabled,
		millis(task.LastRun), millis(task.NextRun), millis(task.LastSuccess), task.LastError)
	if err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

func (s *schedulerStore) RecordRun(ctx context.Context, run *domain.TaskResult) error {
	if run == nil || run.RunID == "" {
		return domain.ErrInvalidInput
	}
	errText := run.Error
	if !run.Success && errText == "" {
		errText = "failed"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recompute_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.TaskID, run.Trigger,
		run.StartedAt.UnixMilli(), run.EndedAt.UnixMilli(), errText,
		run.ItemsProcessed, run.FilesSkipped, run.Identities)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

func (s *schedulerStore) RecentRuns(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM recompute_runs
		WHERE task_id = ?
		ORDER BY started_ms DESC, seq DESC
		LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs of %s: %w", taskID, err)
	}
	defer rows.Close()

	runs := make([]domain.TaskResult, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *schedulerStore) PruneRuns(ctx context.Context, taskID string, keep int) error {
	if keep < 0 {
		return domain.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM recompute_runs
		WHERE task_id = ? AND seq NOT IN (
			SELECT seq FROM recompute_runs
			WHERE task_id = ?
			ORDER BY started_ms DESC, seq DESC
			LIMIT ?
		)`, taskID, taskID, keep)
	if err != nil {
		return fmt.Errorf("prune runs of %s: %w", taskID, err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	var intervalMS int64
	var lastRun, nextRun, lastSuccess sql.NullInt64
	err := row.Scan(&task.ID, &task.Name, &intervalMS, &task.Enabled,
		&lastRun, &nextRun, &lastSuccess, &task.LastError)
	if err != nil {
		return nil, err
	}
	task.Interval = time.Duration(intervalMS) * time.Millisecond
	task.LastRun = fromMillis(lastRun)
	task.NextRun = fromMillis(nextRun)
	task.LastSuccess = fromMillis(lastSuccess)
	return &task, nil
}

func scanRun(row rowScanner) (domain.TaskResult, error) {
	var run domain.TaskResult
	var started, ended int64
	err := row.Scan(&run.RunID, &run.TaskID, &run.Trigger, &started, &ended,
		&run.Error, &run.ItemsProcessed, &run.FilesSkipped, &run.Identities)
	if err != nil {
		return domain.TaskResult{}, err
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	run.EndedAt = time.UnixMilli(ended).UTC()
	run.Success = run.Error == ""
	return run, nil
}

// millis maps the zero time to NULL.
func millis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64).UTC()
}
