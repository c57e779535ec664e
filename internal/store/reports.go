package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/COMMENTERTHE9/Mnemo/internal/report"
)

// InsertGapperReport appends one report. Importance is clamped to [0,1] and
// the feature blob is marshaled to JSON. A duplicate (video_id, gapper_id)
// surfaces ErrConflict; callers treat that as "already processed".
func (s *Store) InsertGapperReport(ctx context.Context, r *report.GapperReport) error {
	features, err := json.Marshal(r.Features)
	if err != nil {
		return fmt.Errorf("store: marshal features: %w", err)
	}

	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO gapper_reports
			(video_id, gapper_type, timestamp, gapper_id, start_frame,
			 end_frame, summary, importance, features)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.VideoID, string(r.Type), r.Timestamp, r.GapperID,
			r.StartFrame, r.EndFrame, r.Summary,
			report.Clamp01(r.Importance), string(features))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: gapper %s/%s", ErrConflict, r.VideoID, r.GapperID)
		}
		return err
	})
}

// InsertMemoryNode appends one summary node.
func (s *Store) InsertMemoryNode(ctx context.Context, n *report.MemoryNode) error {
	tags, err := json.Marshal(n.NarrativeTags)
	if err != nil {
		return fmt.Errorf("store: marshal narrative tags: %w", err)
	}

	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO memory_nodes
			(video_id, node_level, node_id, parent_id, start_time,
			 end_time, summary, importance, narrative_tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.VideoID, n.NodeLevel, n.NodeID, n.ParentID,
			n.StartTime, n.EndTime, n.Summary,
			report.Clamp01(n.Importance), string(tags))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: memory node %s/%s", ErrConflict, n.VideoID, n.NodeID)
		}
		return err
	})
}

// NextVideoNeedingMotion returns some completed video that has no motion
// report yet. Any motion report counts as coverage; ordering is not
// specified. Returns ErrNoTask when every completed video is covered.
func (s *Store) NextVideoNeedingMotion(ctx context.Context) (string, error) {
	var videoID string
	err := s.withRetry(ctx, func() error {
		err := s.db.QueryRowContext(ctx, `
			SELECT vm.video_id
			FROM video_metadata vm
			WHERE vm.status = ?
			AND NOT EXISTS (
				SELECT 1 FROM gapper_reports gr
				WHERE gr.video_id = vm.video_id
				AND gr.gapper_type = ?
			)
			LIMIT 1`, VideoCompleted, string(report.GapperMotion)).Scan(&videoID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoTask
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return videoID, nil
}

// HasGapperOfType reports whether any report of the given type exists for
// a video.
func (s *Store) HasGapperOfType(ctx context.Context, videoID string, gapperType report.GapperType) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM gapper_reports
		WHERE video_id = ? AND gapper_type = ?
		LIMIT 1`, videoID, string(gapperType)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountGapperReports returns per-type report counts for a video.
func (s *Store) CountGapperReports(ctx context.Context, videoID string) (map[report.GapperType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gapper_type, COUNT(*)
		FROM gapper_reports
		WHERE video_id = ?
		GROUP BY gapper_type`, videoID)
	if err != nil {
		return nil, fmt.Errorf("store: count reports: %w", err)
	}
	defer rows.Close()

	counts := make(map[report.GapperType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[report.GapperType(typ)] = n
	}
	return counts, rows.Err()
}

// StoredReport is a gapper report as read back by tests and tooling.
type StoredReport struct {
	VideoID    string
	Type       report.GapperType
	Timestamp  int64
	GapperID   string
	StartFrame int
	EndFrame   int
	Summary    string
	Importance float64
	Features   json.RawMessage
}

// ListGapperReports returns a video's reports of one type ordered by
// start_frame. Readers sort by the key they care about; this is the frame
// ordering used by the pipeline's own consumers.
func (s *Store) ListGapperReports(ctx context.Context, videoID string, gapperType report.GapperType) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, gapper_type, timestamp, gapper_id, start_frame,
		       end_frame, summary, importance, features
		FROM gapper_reports
		WHERE video_id = ? AND gapper_type = ?
		ORDER BY start_frame ASC`, videoID, string(gapperType))
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var r StoredReport
		var typ string
		var features sql.NullString
		if err := rows.Scan(&r.VideoID, &typ, &r.Timestamp, &r.GapperID,
			&r.StartFrame, &r.EndFrame, &r.Summary, &r.Importance, &features); err != nil {
			return nil, err
		}
		r.Type = report.GapperType(typ)
		r.Features = json.RawMessage(features.String)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetMemoryNode fetches one memory node by id. Returns ErrNotFound when
// absent.
func (s *Store) GetMemoryNode(ctx context.Context, videoID, nodeID string) (*report.MemoryNode, error) {
	var n report.MemoryNode
	var parentID sql.NullString
	var tags sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT video_id, node_level, node_id, parent_id, start_time,
		       end_time, summary, importance, narrative_tags
		FROM memory_nodes
		WHERE video_id = ? AND node_id = ?`, videoID, nodeID).
		Scan(&n.VideoID, &n.NodeLevel, &n.NodeID, &parentID,
			&n.StartTime, &n.EndTime, &n.Summary, &n.Importance, &tags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &n.NarrativeTags); err != nil {
			return nil, fmt.Errorf("store: unmarshal narrative tags: %w", err)
		}
	}
	return &n, nil
}
