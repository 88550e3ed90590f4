package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/recordvault/pkg/database"
	"github.com/ghuser/recordvault/pkg/events"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	domainevents "github.com/ghuser/recordvault/services/record/domain/events"
	"github.com/ghuser/recordvault/services/record/domain/models"
	domainsvcs "github.com/ghuser/recordvault/services/record/domain/services"
	"github.com/ghuser/recordvault/services/record/infrastructure/persistence"
)

const pgUniqueViolation = "23505"

// ErrDuplicateID is returned when a generated id collides with a live record.
var ErrDuplicateID = errors.New("duplicate record id")

// RecordRepository implements repositories.RecordRepository against PostgreSQL.
type RecordRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewRecordRepository returns a RecordRepository backed by the given handle.
// When bus is non-nil every mutation publishes a change event within the
// same transaction.
func NewRecordRepository(db *database.Database, bus *events.EventBus) *RecordRepository {
	return &RecordRepository{db: db, bus: bus}
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

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, name, details, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			rec.ID, rec.Name.String(), rec.Details, rec.CreatedAt, rec.UpdatedAt,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return ErrDuplicateID
			}
			return fmt.Errorf("insert record: %w", err)
		}
		return r.publishChanged(ctx, tx, domainevents.TopicRecordCreated, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID returns ErrRecordNotFound if no record has id.
func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records WHERE id = $1`, id,
	)
	return scanOne(row, "query record")
}

// Update locks the row, applies patch and writes it back in one transaction.
func (r *RecordRepository) Update(ctx context.Context, id uuid.UUID, patch models.RecordPatch) (*models.Record, error) {
	var updated *models.Record
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+persistence.RecordColumns+` FROM records WHERE id = $1 FOR UPDATE`, id,
		)
		rec, err := scanOne(row, "lock record")
		if err != nil {
			return err
		}
		rec.Apply(patch)
		if err := domainsvcs.ValidateRecordForWrite(rec); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE records SET name = $2, details = $3, updated_at = $4 WHERE id = $1`,
			rec.ID, rec.Name.String(), rec.Details, rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if err := r.publishChanged(ctx, tx, domainevents.TopicRecordUpdated, rec); err != nil {
			return err
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
	var deleted *models.Record
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`DELETE FROM records WHERE id = $1 RETURNING `+persistence.RecordColumns, id,
		)
		rec, err := scanOne(row, "delete record")
		if err != nil {
			return err
		}
		if r.bus != nil {
			event := domainevents.RecordDeletedEvent{
				EventID:    uuid.New(),
				Version:    1,
				RecordID:   rec.ID,
				OccurredAt: time.Now().UTC(),
			}
			msg, err := events.NewMessage(event.EventID, event.Version, event)
			if err != nil {
				return err
			}
			if err := r.bus.PublishTx(ctx, tx, domainevents.TopicRecordDeleted, msg); err != nil {
				return fmt.Errorf("publish record deleted: %w", err)
			}
		}
		deleted = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// List returns every record in the requested order.
func (r *RecordRepository) List(ctx context.Context, order models.SortOrder) ([]*models.Record, error) {
	return r.query(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records ORDER BY `+persistence.OrderBy("lower", order),
	)
}

// SearchByName matches term as a case-insensitive substring.
func (r *RecordRepository) SearchByName(ctx context.Context, term string) ([]*models.Record, error) {
	return r.query(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records
		 WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY `+persistence.OrderBy("lower", models.OrderCreatedAsc),
		models.EscapeLike(term),
	)
}

func (r *RecordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// LongestName returns nil when the store is empty.
func (r *RecordRepository) LongestName(ctx context.Context) (*models.Record, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+persistence.RecordColumns+` FROM records
		 ORDER BY char_length(name) DESC, created_at ASC, seq ASC LIMIT 1`,
	)
	rec, err := scanOne(row, "longest name")
	if errors.Is(err, recorddomain.ErrRecordNotFound) {
		return nil, nil
	}
	return rec, err
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
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (r *RecordRepository) publishChanged(ctx context.Context, tx *sql.Tx, topic string, rec *models.Record) error {
	if r.bus == nil {
		return nil
	}
	event := domainevents.RecordChangedEvent{
		EventID:    uuid.New(),
		Version:    1,
		RecordID:   rec.ID,
		Name:       rec.Name.String(),
		Details:    rec.Details,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		OccurredAt: rec.UpdatedAt,
	}
	msg, err := events.NewMessage(event.EventID, event.Version, event)
	if err != nil {
		return err
	}
	if err := r.bus.PublishTx(ctx, tx, topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner, op string) (*models.Record, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recorddomain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// scanRecord maps one row onto a Record. Column order is persistence.RecordColumns.
func scanRecord(s scanner) (*models.Record, error) {
	var (
		rec  models.Record
		name string
	)
	if err := s.Scan(&rec.ID, &name, &rec.Details, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Name = models.RecordName(name)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}
