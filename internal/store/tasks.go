package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Task statuses. A task is terminal once completed or failed; nothing moves
// it out of a terminal state afterwards.
const (
	TaskPending    = "pending"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// TaskTypeDownload is the only task type the ingest worker claims today.
const TaskTypeDownload = "download"

// ClaimedTask identifies a task handed to exactly one worker.
type ClaimedTask struct {
	ID        int64
	VideoID   string
	SourceURL string
}

// ClaimNextTask atomically claims the highest-priority pending task of the
// given type, flips it to processing with started_at set, and returns it
// along with the video's source URL. No other caller can receive the same
// task. Returns ErrNoTask when the queue is empty.
func (s *Store) ClaimNextTask(ctx context.Context, taskType string) (*ClaimedTask, error) {
	var claimed ClaimedTask
	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		// Single atomic update over a subquery: SQLite serializes writers,
		// so at most one caller sees the chosen row as still pending.
		row := tx.QueryRowContext(ctx, `
			UPDATE processing_queue
			SET status = ?, started_at = ?
			WHERE id = (
				SELECT id FROM processing_queue
				WHERE task_type = ? AND status = ?
				ORDER BY priority DESC, created_at ASC
				LIMIT 1
			) AND status = ?
			RETURNING id, video_id`,
			TaskProcessing, nowMilli(), taskType, TaskPending, TaskPending)

		if err := row.Scan(&claimed.ID, &claimed.VideoID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoTask
			}
			return err
		}

		// Same transaction as the claim: if the video row is missing or the
		// read fails, the rollback returns the task to pending.
		if err := tx.QueryRowContext(ctx,
			`SELECT filename FROM video_metadata WHERE video_id = ?`,
			claimed.VideoID).Scan(&claimed.SourceURL); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

// CompleteTask marks a task completed. Idempotent: a task already in a
// terminal state is left untouched.
func (s *Store) CompleteTask(ctx context.Context, taskID int64) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE processing_queue
			SET status = ?, completed_at = ?
			WHERE id = ? AND status NOT IN (?, ?)`,
			TaskCompleted, nowMilli(), taskID, TaskCompleted, TaskFailed)
		return err
	})
}

// FailTask marks a task failed with a human-readable reason. Idempotent on
// terminal rows.
func (s *Store) FailTask(ctx context.Context, taskID int64, reason string) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE processing_queue
			SET status = ?, completed_at = ?, error_message = ?
			WHERE id = ? AND status NOT IN (?, ?)`,
			TaskFailed, nowMilli(), reason, taskID, TaskCompleted, TaskFailed)
		return err
	})
}

// EnqueueVideo registers a video in pending state and queues a download
// task for it. Returns the new task id.
func (s *Store) EnqueueVideo(ctx context.Context, videoID, sourceURL string, priority int) (int64, error) {
	var taskID int64
	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		now := nowMilli()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO video_metadata (video_id, filename, created_at, status)
			VALUES (?, ?, ?, ?)`,
			videoID, sourceURL, now, VideoPending); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: video %s already registered", ErrConflict, videoID)
			}
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO processing_queue (video_id, task_type, status, priority, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			videoID, TaskTypeDownload, TaskPending, priority, now)
		if err != nil {
			return err
		}
		if taskID, err = res.LastInsertId(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return taskID, nil
}

// TaskRow is a queue entry as shown by the status tooling.
type TaskRow struct {
	ID           int64
	VideoID      string
	TaskType     string
	Status       string
	Priority     int
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// ListTasks returns the most recent queue entries, newest first.
func (s *Store) ListTasks(ctx context.Context, limit int) ([]TaskRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video_id, task_type, status, priority,
		       created_at, started_at, completed_at, error_message
		FROM processing_queue
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []TaskRow
	for rows.Next() {
		var t TaskRow
		var createdAt int64
		var startedAt, completedAt sql.NullInt64
		var errMsg sql.NullString
		if err := rows.Scan(&t.ID, &t.VideoID, &t.TaskType, &t.Status, &t.Priority,
			&createdAt, &startedAt, &completedAt, &errMsg); err != nil {
			return nil, err
		}
		t.CreatedAt = time.UnixMilli(createdAt)
		if startedAt.Valid {
			ts := time.UnixMilli(startedAt.Int64)
			t.StartedAt = &ts
		}
		if completedAt.Valid {
			ts := time.UnixMilli(completedAt.Int64)
			t.CompletedAt = &ts
		}
		t.ErrorMessage = errMsg.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
