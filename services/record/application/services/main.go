package services

import (
	"github.com/ghuser/recordvault/pkg/app"
	"github.com/ghuser/recordvault/pkg/cache"
	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/services/record/domain/repositories"
	"github.com/ghuser/recordvault/services/record/infrastructure/archive"
	"github.com/ghuser/recordvault/services/record/infrastructure/persistence/postgres"
	"github.com/ghuser/recordvault/services/record/infrastructure/persistence/sqlite"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Vault *VaultService
	Repo  repositories.RecordRepository
}

// New wires the record services with infrastructure from the Application
// container, picking the repository for the configured store driver.
func New(a *app.Application) *Services {
	repo := NewRepository(a)

	var recordCache *cache.RecordCache
	if a.Redis != nil {
		recordCache = cache.NewRecordCache(a.Redis)
	}

	vault := NewVaultService(
		repo,
		recordCache,
		archive.NewBackupWriter(a.Config.BackupDir),
		archive.NewExportWriter(a.Config.ExportPath),
		a.Logger,
	)
	if err := RegisterStoreGauges(repo); err != nil {
		a.Logger.Warn("store gauges not registered", "error", err)
	}
	return &Services{Vault: vault, Repo: repo}
}

// NewRepository returns the RecordRepository for a.DB's driver.
func NewRepository(a *app.Application) repositories.RecordRepository {
	if a.DB.Driver() == config.DriverPostgres {
		return postgres.NewRecordRepository(a.DB, a.EventBus)
	}
	return sqlite.NewRecordRepository(a.DB)
}

// EnsureBackupDir creates the backup directory up front so a misconfigured
// path shows at startup rather than after the first mutation.
func (s *Services) EnsureBackupDir() error {
	return s.Vault.backups.EnsureDir()
}
