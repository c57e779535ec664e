package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Video statuses mirror task statuses; a video is flipped to completed or
// failed exactly once, by the ingest worker.
const (
	VideoPending    = "pending"
	VideoProcessing = "processing"
	VideoCompleted  = "completed"
	VideoFailed     = "failed"
)

// VideoMeta carries the container metadata written after probing.
type VideoMeta struct {
	DurationSeconds float64
	FPS             float64
	Width           int
	Height          int
}

// UpdateVideoProgress writes probed metadata and the new status onto a
// video row, stamping processed_at. Returns ErrNotFound for unknown videos.
func (s *Store) UpdateVideoProgress(ctx context.Context, videoID string, meta VideoMeta, status string) error {
	return s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE video_metadata
			SET duration_seconds = ?, fps = ?, width = ?, height = ?,
			    processed_at = ?, status = ?
			WHERE video_id = ?`,
			meta.DurationSeconds, meta.FPS, meta.Width, meta.Height,
			nowMilli(), status, videoID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// VideoRow is a video_metadata row as read back by tooling and tests.
type VideoRow struct {
	VideoID         string
	Filename        string
	DurationSeconds float64
	FPS             float64
	Width           int
	Height          int
	ProcessedAt     *time.Time
	Status          string
}

// GetVideo fetches one video row. Returns ErrNotFound for unknown ids.
func (s *Store) GetVideo(ctx context.Context, videoID string) (*VideoRow, error) {
	var v VideoRow
	var duration, fps sql.NullFloat64
	var width, height sql.NullInt64
	var processedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT video_id, filename, duration_seconds, fps, width, height, processed_at, status
		FROM video_metadata
		WHERE video_id = ?`, videoID).
		Scan(&v.VideoID, &v.Filename, &duration, &fps, &width, &height, &processedAt, &v.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	v.DurationSeconds = duration.Float64
	v.FPS = fps.Float64
	v.Width = int(width.Int64)
	v.Height = int(height.Int64)
	if processedAt.Valid {
		ts := time.UnixMilli(processedAt.Int64)
		v.ProcessedAt = &ts
	}
	return &v, nil
}
