package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/database"
	"github.com/nutridive/nutridive/pkg/models"
)

// AnalysisStore persists analysis records keyed by barcode.
type AnalysisStore interface {
	// Get returns the record for barcode, or nil if none is stored.
	Get(ctx context.Context, barcode string) (*models.AnalysisRecord, error)
	// Put stores record unless one already exists for its barcode. It returns
	// the record that is stored afterwards and whether this call created it.
	Put(ctx context.Context, record *models.AnalysisRecord) (*models.AnalysisRecord, bool, error)
	// DeleteByID removes a record. Returns apperrors.ErrNotFound if absent.
	DeleteByID(ctx context.Context, id uuid.UUID) error
	// RecordScan notes that userID looked at barcode now. It does nothing
	// when no record exists for barcode.
	RecordScan(ctx context.Context, userID, barcode string) error
	// List returns up to limit summaries. With an empty userID every record
	// is listed newest first; otherwise only barcodes that user scanned,
	// most recent scan first.
	List(ctx context.Context, limit int, userID string) ([]models.AnalysisSummary, error)
}

type analysisRepository struct {
	db *database.DB
}

var _ AnalysisStore = (*analysisRepository)(nil)

// NewAnalysisRepository creates a PostgreSQL-backed AnalysisStore.
func NewAnalysisRepository(db *database.DB) AnalysisStore {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Get(ctx context.Context, barcode string) (*models.AnalysisRecord, error) {
	query := `
		SELECT record, requested_by, created_at
		FROM analyses
		WHERE barcode = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return record, nil
}

func (r *analysisRepository) Put(ctx context.Context, record *models.AnalysisRecord) (*models.AnalysisRecord, bool, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode analysis: %w", err)
	}

	query := `
		INSERT INTO analyses (id, barcode, record, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		record.ID,
		record.Barcode,
		payload,
		nullableString(record.RequestedBy),
		record.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert analysis: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return record, true, nil
	}

	// Another writer won; hand back what is stored.
	existing, err := r.Get(ctx, record.Barcode)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("analysis for %s vanished after conflicting insert", record.Barcode)
	}
	return existing, false, nil
}

func (r *analysisRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("analysis %s not found", id)
	}
	return nil
}

func (r *analysisRepository) RecordScan(ctx context.Context, userID, barcode string) error {
	query := `
		INSERT INTO user_scans (user_id, barcode, scanned_at)
		SELECT $1, barcode, clock_timestamp()
		FROM analyses
		WHERE barcode = $2
		ON CONFLICT (user_id, barcode) DO UPDATE SET scanned_at = EXCLUDED.scanned_at`

	if _, err := r.db.Exec(ctx, query, userID, barcode); err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

const summaryColumns = `
		a.id, a.barcode,
		COALESCE(a.record->'product_summary'->>'name', ''),
		COALESCE(a.record->'product_summary'->>'brand', ''),
		COALESCE(a.record->'nutriscore'->>'grade', ''),
		COALESCE(a.record->'product_summary'->>'food_type', ''),
		a.created_at`

func (r *analysisRepository) List(ctx context.Context, limit int, userID string) ([]models.AnalysisSummary, error) {
	query := `SELECT` + summaryColumns + `
		FROM analyses a
		ORDER BY a.created_at DESC
		LIMIT $1`
	args := []any{limit}
	if userID != "" {
		query = `SELECT` + summaryColumns + `
		FROM analyses a
		JOIN user_scans s ON s.barcode = a.barcode
		WHERE s.user_id = $2
		ORDER BY s.scanned_at DESC
		LIMIT $1`
		args = append(args, userID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.AnalysisSummary, 0)
	for rows.Next() {
		var rec models.AnalysisRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Barcode,
			&rec.ProductSummary.Name,
			&rec.ProductSummary.Brand,
			&rec.NutriScore.Grade,
			&rec.ProductSummary.FoodType,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis summary: %w", err)
		}
		summaries = append(summaries, rec.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return summaries, nil
}

func scanRecord(row pgx.Row) (*models.AnalysisRecord, error) {
	var (
		payload     []byte
		requestedBy *string
		record      models.AnalysisRecord
	)
	if err := row.Scan(&payload, &requestedBy, &record.CreatedAt); err != nil {
		return nil, err
	}
	createdAt := record.CreatedAt
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	// The column is authoritative over the JSON copy.
	record.CreatedAt = createdAt
	if requestedBy != nil {
		record.RequestedBy = *requestedBy
	}
	return &record, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
