package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdimtricp/camlens/internal/models"
)

const historyColumns = "id, timestamp, frame_path, prompt, result, device_id"

// streamPattern matches device ids with the literal stream_ prefix; the
// underscore is escaped so it is not a LIKE wildcard.
const streamPattern = `stream\_%`

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append inserts a record and sets its id.
func (r *HistoryRepo) Append(ctx context.Context, record *models.AnalysisRecord) error {
	query := r.db.rebind(`
		INSERT INTO analysis_history (timestamp, frame_path, prompt, result, device_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.conn.QueryRowContext(ctx, query,
		record.Timestamp.UTC(),
		record.FramePath,
		record.Prompt,
		record.Result,
		record.DeviceID,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// Find returns matching records, newest first.
func (r *HistoryRepo) Find(ctx context.Context, q models.HistoryQuery) ([]models.AnalysisRecord, error) {
	var (
		where string
		args  []any
	)

	deviceID := models.NormalizeDeviceID(q.DeviceID)
	switch {
	case q.StreamsOnly:
		where = `device_id LIKE ? ESCAPE '\'`
		args = []any{streamPattern}
	case deviceID == models.DefaultDeviceID:
		where = "device_id = ?"
		args = []any{models.DefaultDeviceID}
	default:
		where = "device_id = ? OR device_id = ?"
		args = []any{deviceID, models.StreamDeviceID(deviceID)}
	}

	query := r.db.rebind(fmt.Sprintf(
		"SELECT %s FROM analysis_history WHERE %s ORDER BY timestamp DESC, id DESC",
		historyColumns, where))

	return r.query(ctx, query, args...)
}

// ListRecent returns the newest records across all devices.
func (r *HistoryRepo) ListRecent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	query := r.db.rebind(fmt.Sprintf(
		"SELECT %s FROM analysis_history ORDER BY timestamp DESC, id DESC LIMIT ?",
		historyColumns))
	return r.query(ctx, query, limit)
}

func (r *HistoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analysis records: %w", err)
	}
	return n, nil
}

func (r *HistoryRepo) query(ctx context.Context, query string, args ...any) ([]models.AnalysisRecord, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	records := []models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis history: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.FramePath, &rec.Prompt, &rec.Result, &rec.DeviceID); err != nil {
		return rec, fmt.Errorf("failed to scan analysis record: %w", err)
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}
