package infra

import (
	"fmt"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes, CHECK constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Surface duplicate-key and FK violations as gorm.ErrDuplicatedKey /
		// gorm.ErrForeignKeyViolated so services can map them.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the schema. Also used by the integration
// tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Contrato{},
		&model.UserContract{},
		&model.Partida{},
		&model.Noc{},
		&model.NocLinea{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// One vigente version per (contrato, item). Archived versions are
		// exempt, which is what lets a version chain share its item code.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_partida_contrato_item_vigente') THEN
		    CREATE UNIQUE INDEX uq_partida_contrato_item_vigente
		        ON partida (contrato_id, item)
		        WHERE vigente;
		  END IF;
		END $$`,
		// Lineas are listed in creation order per NOC.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_noc_linea_noc_created') THEN
		    CREATE INDEX idx_noc_linea_noc_created
		        ON noc_linea (noc_id, created_at);
		  END IF;
		END $$`,
		// Version chain walks and vigente listings per contrato.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_partida_version_prev') THEN
		    CREATE INDEX idx_partida_version_prev ON partida (version_prev_id);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_partida_contrato_vigente') THEN
		    CREATE INDEX idx_partida_contrato_vigente ON partida (contrato_id) WHERE vigente;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
