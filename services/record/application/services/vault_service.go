package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	pkgcache "github.com/ghuser/recordvault/pkg/cache"
	"github.com/ghuser/recordvault/pkg/logger"
	"github.com/ghuser/recordvault/pkg/telemetry"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
	"github.com/ghuser/recordvault/services/record/domain/repositories"
	domainsvcs "github.com/ghuser/recordvault/services/record/domain/services"
	"github.com/ghuser/recordvault/services/record/infrastructure/archive"
)

// MutationResult is returned by AddRecord and DeleteRecord. BackupPath is
// empty when the follow-up backup failed; the mutation itself is committed.
type MutationResult struct {
	Record     *models.Record
	BackupPath string
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path       string
	Count      int
	ExportedAt time.Time
}

// VaultService is the vault's public API: eight operations taking primitive
// input and returning typed results or sentinel errors. Operations are
// serialized; at most one runs at a time per process.
//
// Add and Delete write a full backup before returning. A failed backup does
// not undo the mutation: the committed result is returned together with an
// error wrapping ErrIOFailure.
type VaultService struct {
	mu      sync.Mutex
	repo    repositories.RecordRepository
	cache   *pkgcache.RecordCache
	backups *archive.BackupWriter
	export  *archive.ExportWriter
	log     logger.Logger
	tracer  trace.Tracer
	ops     metric.Int64Counter
	now     func() time.Time
}

// NewVaultService wires the service. recordCache may be nil.
func NewVaultService(
	repo repositories.RecordRepository,
	recordCache *pkgcache.RecordCache,
	backups *archive.BackupWriter,
	export *archive.ExportWriter,
	log logger.Logger,
) *VaultService {
	ops, err := otel.Meter(telemetry.InstrumentationName).Int64Counter(
		"vault.operations",
		metric.WithDescription("Vault operations by name and outcome"),
	)
	if err != nil {
		ops = noop.Int64Counter{}
	}
	return &VaultService{
		repo:    repo,
		cache:   recordCache,
		backups: backups,
		export:  export,
		log:     log,
		tracer:  otel.Tracer(telemetry.InstrumentationName),
		ops:     ops,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddRecord creates a record and backs up the collection.
func (s *VaultService) AddRecord(ctx context.Context, name, details string) (res *MutationResult, err error) {
	ctx, done := s.begin(ctx, "AddRecord")
	defer func() { done(err) }()

	rec, err := s.repo.Create(ctx, name, details)
	if err != nil {
		return nil, fmt.Errorf("add record: %w", err)
	}
	s.log.InfoContext(ctx, "record added", "record_id", rec.ID)

	path, err := s.backup(ctx, "add")
	return &MutationResult{Record: rec, BackupPath: path}, err
}

// UpdateRecord changes the non-empty fields. Both empty is ErrNothingToUpdate.
// No backup is written.
func (s *VaultService) UpdateRecord(ctx context.Context, id, newName, newDetails string) (rec *models.Record, err error) {
	ctx, done := s.begin(ctx, "UpdateRecord")
	defer func() { done(err) }()

	rid, err := models.ParseRecordID(id)
	if err != nil {
		return nil, err
	}
	patch, err := models.NewRecordPatch(newName, newDetails)
	if err != nil {
		return nil, err
	}

	rec, err = s.repo.Update(ctx, rid, patch)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	s.log.InfoContext(ctx, "record updated", "record_id", rec.ID)
	s.cacheSet(ctx, rec)
	return rec, nil
}

// DeleteRecord removes a record only when confirmed, then backs up the
// collection. Without confirmation it returns ErrDeleteCancelled and
// touches nothing.
func (s *VaultService) DeleteRecord(ctx context.Context, id string, confirmed bool) (res *MutationResult, err error) {
	ctx, done := s.begin(ctx, "DeleteRecord")
	defer func() { done(err) }()

	rid, err := models.ParseRecordID(id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, recorddomain.ErrDeleteCancelled
	}

	rec, err := s.repo.Delete(ctx, rid)
	if err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}
	s.log.InfoContext(ctx, "record deleted", "record_id", rec.ID)
	s.cacheEvict(ctx, rec.ID)

	path, err := s.backup(ctx, "delete")
	return &MutationResult{Record: rec, BackupPath: path}, err
}

// ListRecords returns every record in creation order.
func (s *VaultService) ListRecords(ctx context.Context) (records []*models.Record, err error) {
	ctx, done := s.begin(ctx, "ListRecords")
	defer func() { done(err) }()

	records, err = s.repo.List(ctx, models.OrderCreatedAsc)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// SearchRecords finds records by name substring (mode "name" or "1") or by
// exact id (mode "id" or "2"). A search by id with no match returns
// ErrRecordNotFound; a name search with no match returns an empty slice.
func (s *VaultService) SearchRecords(ctx context.Context, mode, term string) (records []*models.Record, err error) {
	ctx, done := s.begin(ctx, "SearchRecords")
	defer func() { done(err) }()

	m, err := models.ParseSearchMode(mode)
	if err != nil {
		return nil, err
	}
	term, err = models.NormalizeSearchTerm(term)
	if err != nil {
		return nil, err
	}

	if m == models.SearchByID {
		rid, err := models.ParseRecordID(term)
		if err != nil {
			return nil, err
		}
		rec, err := s.getByID(ctx, rid)
		if err != nil {
			return nil, err
		}
		return []*models.Record{rec}, nil
	}

	records, err = s.repo.SearchByName(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return records, nil
}

// SortRecords lists every record in the requested order.
func (s *VaultService) SortRecords(ctx context.Context, field, direction string) (records []*models.Record, err error) {
	ctx, done := s.begin(ctx, "SortRecords")
	defer func() { done(err) }()

	order, err := models.ParseSortOrder(field, direction)
	if err != nil {
		return nil, err
	}
	records, err = s.repo.List(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("sort records: %w", err)
	}
	return records, nil
}

// ExportData rewrites the export report from the current collection.
func (s *VaultService) ExportData(ctx context.Context) (res *ExportResult, err error) {
	ctx, done := s.begin(ctx, "ExportData")
	defer func() { done(err) }()

	records, err := s.repo.List(ctx, models.OrderCreatedAsc)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	exportedAt := s.now()
	if err := s.export.Write(records, exportedAt); err != nil {
		s.log.ErrorContext(ctx, "export failed", "path", s.export.Path(), "error", err)
		telemetry.CaptureError(ctx, err, map[string]string{"operation": "export"})
		return nil, err
	}
	s.log.InfoContext(ctx, "export written", "path", s.export.Path(), "count", len(records))
	return &ExportResult{Path: s.export.Path(), Count: len(records), ExportedAt: exportedAt}, nil
}

// ViewStatistics summarizes one snapshot of the collection.
func (s *VaultService) ViewStatistics(ctx context.Context) (stats *domainsvcs.Statistics, err error) {
	ctx, done := s.begin(ctx, "ViewStatistics")
	defer func() { done(err) }()

	records, err := s.repo.List(ctx, models.OrderCreatedAsc)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	st := domainsvcs.ComputeStatistics(records)
	return &st, nil
}

// begin takes the operation lock and opens a span. The returned func
// records the outcome, ends the span and releases the lock.
func (s *VaultService) begin(ctx context.Context, op string) (context.Context, func(error)) {
	s.mu.Lock()
	ctx, span := s.tracer.Start(ctx, "vault."+op)
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.ops.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		))
		span.End()
		s.mu.Unlock()
	}
}

// backup snapshots the collection after a committed mutation. Failures are
// logged and reported, then returned wrapping ErrIOFailure.
func (s *VaultService) backup(ctx context.Context, trigger string) (string, error) {
	path, err := s.writeBackup(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "backup failed; mutation stays committed",
			"trigger", trigger, "dir", s.backups.Dir(), "error", err)
		telemetry.CaptureError(ctx, err, map[string]string{"operation": "backup", "trigger": trigger})
		return "", fmt.Errorf("backup after %s: %w", trigger, err)
	}
	s.log.InfoContext(ctx, "backup written", "path", path, "trigger", trigger)
	return path, nil
}

func (s *VaultService) writeBackup(ctx context.Context) (string, error) {
	records, err := s.repo.List(ctx, models.OrderCreatedAsc)
	if err != nil {
		return "", fmt.Errorf("%w: snapshot: %w", recorddomain.ErrIOFailure, err)
	}
	return s.backups.Write(records)
}

// getByID reads through the cache when one is configured.
func (s *VaultService) getByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return &models.Record{
				ID:        cached.ID,
				Name:      models.RecordName(cached.Name),
				Details:   cached.Details,
				CreatedAt: cached.CreatedAt,
				UpdatedAt: cached.UpdatedAt,
			}, nil
		}
		if !pkgcache.IsMiss(err) {
			s.log.WarnContext(ctx, "cache read failed, falling back to store", "record_id", id, "error", err)
		}
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, recorddomain.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	s.cacheSet(ctx, rec)
	return rec, nil
}

func (s *VaultService) cacheSet(ctx context.Context, rec *models.Record) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, &pkgcache.CachedRecord{
		ID:        rec.ID,
		Name:      rec.Name.String(),
		Details:   rec.Details,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}); err != nil {
		s.log.WarnContext(ctx, "cache write failed", "record_id", rec.ID, "error", err)
	}
}

func (s *VaultService) cacheEvict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.WarnContext(ctx, "cache evict failed", "record_id", id, "error", err)
	}
}
