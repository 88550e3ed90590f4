package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/services/record/domain"
)

// NotAvailable is shown wherever a value is absent.
const NotAvailable = "N/A"

// Record is the vault's only aggregate: a named entry with free-form details.
type Record struct {
	ID        uuid.UUID
	Name      RecordName
	Details   string // empty means absent
	CreatedAt time.Time
	UpdatedAt time.Time
}

// now is the clock used for record timestamps. Microsecond precision matches
// what both stores persist, so a record reads back equal to what was written.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewRecord validates name and builds a Record with a fresh id and
// CreatedAt == UpdatedAt.
func NewRecord(name, details string) (*Record, error) {
	n, err := NewRecordName(name)
	if err != nil {
		return nil, err
	}
	ts := now()
	return &Record{
		ID:        uuid.New(),
		Name:      n,
		Details:   strings.TrimSpace(details),
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// DetailsOrNA returns the details, or NotAvailable when absent.
func (r *Record) DetailsOrNA() string {
	if r.Details == "" {
		return NotAvailable
	}
	return r.Details
}

// Apply writes the non-empty fields of p onto r and refreshes UpdatedAt.
// UpdatedAt never moves backwards, so CreatedAt <= UpdatedAt holds even if
// the wall clock steps back.
func (r *Record) Apply(p RecordPatch) {
	if p.Name != "" {
		r.Name = p.Name
	}
	if p.Details != "" {
		r.Details = p.Details
	}
	ts := now()
	if ts.Before(r.UpdatedAt) {
		ts = r.UpdatedAt
	}
	r.UpdatedAt = ts
}

// RecordPatch carries the fields an update changes. Empty fields are left alone.
type RecordPatch struct {
	Name    RecordName
	Details string
}

// NewRecordPatch trims both inputs; whitespace-only input counts as "no
// change". A patch with nothing to change is rejected.
func NewRecordPatch(name, details string) (RecordPatch, error) {
	p := RecordPatch{
		Name:    RecordName(strings.TrimSpace(name)),
		Details: strings.TrimSpace(details),
	}
	if p.Name == "" && p.Details == "" {
		return RecordPatch{}, domain.ErrNothingToUpdate
	}
	return p, nil
}

// ParseRecordID validates the identifier format before any store lookup.
func ParseRecordID(s string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return uuid.Nil, fmt.Errorf("%w: id is required", domain.ErrInvalidID)
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, trimmed)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil uuid", domain.ErrInvalidID)
	}
	return id, nil
}

// FormatTimestamp renders t for operators, or NotAvailable for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
