package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/pkg/database"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
	domainsvcs "github.com/ghuser/recordvault/services/record/domain/services"
	"github.com/ghuser/recordvault/services/record/infrastructure/persistence"
)

// timeLayout is fixed-width so that text comparison in ORDER BY matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// RecordRepository implements repositories.RecordRepository against SQLite.
type RecordRepository struct {
	db *database.Database
}

// NewRecordRepository returns a RecordRepository backed by the given handle.
func NewRecordRepository(db *database.Database) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create validates and inserts a new record.
func (r *RecordRepository) Create(ctx context.Context, name, details string) (*models.Record, error) {
	rec, err := models.NewRecord(name, details)
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidateRecordForWrite(rec); err != nil {
		return nil, err
	}

	_, err = r.db.DB().ExecContext(ctx,
		`INSERT INTO records (id, name, details, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Name.String(), rec.Details,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// GetByID returns ErrRecordNotFound if no record has id.
func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	return getByID(ctx, r.db.DB(), id)
}

// Update reads, patches and writes the record in one transaction.
func (r *RecordRepository) Update(ctx context.Context, id uuid.UUID, patch models.RecordPatch) (*models.Record, error) {
	var updated *models.Record
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rec, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		rec.Apply(patch)
		if err := domainsvcs.ValidateRecordForWrite(rec); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE records SET name = ?, details = ?, updated_at = ? WHERE id = ?`,
			rec.Name.String(), rec.Details, formatTime(rec.UpdatedAt), rec.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return recorddomain.ErrRecordNotFound
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the record and returns its last state.
func (r *RecordRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`DELETE FROM records WHERE id = ? RETURNING `+persistence.RecordColumns,
		id.String(),
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recorddomain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}

// List returns every record in the requested order.
func (r *RecordRepository) List(ctx context.Context, order models.SortOrder) ([]*models.Record, error) {
	return r.query(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records ORDER BY `+persistence.OrderBy(foldFunc, order),
	)
}

// SearchByName matches term as a case-folded substring. Both sides go
// through fold() because SQLite's own LIKE folds ASCII only.
func (r *RecordRepository) SearchByName(ctx context.Context, term string) ([]*models.Record, error) {
	return r.query(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records
		 WHERE fold(name) LIKE '%' || fold(?) || '%' ESCAPE '\'
		 ORDER BY `+persistence.OrderBy(foldFunc, models.OrderCreatedAsc),
		models.EscapeLike(term),
	)
}

// Count returns the number of live records.
func (r *RecordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// LongestName uses length(), which counts characters for TEXT values.
func (r *RecordRepository) LongestName(ctx context.Context) (*models.Record, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records
		 ORDER BY length(name) DESC, created_at ASC, seq ASC LIMIT 1`,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("longest name: %w", err)
	}
	return rec, nil
}

func (r *RecordRepository) query(ctx context.Context, q string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	records := make([]*models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q queryRower, id uuid.UUID) (*models.Record, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records WHERE id = ?`,
		id.String(),
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recorddomain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("query record: %w", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord maps one row onto a Record. Column order is persistence.RecordColumns.
func scanRecord(s scanner) (*models.Record, error) {
	var (
		id, name, details    string
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &name, &details, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("scan record id %q: %w", id, err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("scan record created_at: %w", err)
	}
	updated, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan record updated_at: %w", err)
	}

	return &models.Record{
		ID:        rid,
		Name:      models.RecordName(name),
		Details:   details,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
