package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// TranslateError maps unique violations to gorm.ErrDuplicatedKey; la
		// precondición "sin reembolso activo" depende de esa traducción.
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

// RunMigrations creates/updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Reembolso{},
		&model.GananciaInstructor{},
		&model.PerfilFiscal{},
		&model.ConfigPagoInstructor{},
		&model.Cupon{},
		&model.CuponProducto{},
		&model.Campania{},
		&model.Billetera{},
		&model.MovimientoBilletera{},
		&model.Inscripcion{},
		&model.Liquidacion{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// express. Each statement uses IF NOT EXISTS semantics so re-running on an
// already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// A lo sumo un reembolso activo por (venta, producto, producto_tipo).
		// El índice parcial convierte la precondición "sin reembolso activo" en
		// un check-and-insert atómico: dos solicitudes concurrentes no pueden
		// crear ambas su reembolso.
		{"partial unique idx reembolsos activos", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_reembolsos_activos') THEN
    CREATE UNIQUE INDEX uq_reembolsos_activos
        ON reembolsos (venta_id, producto_id, producto_tipo)
        WHERE estado IN ('pendiente', 'procesando');
  END IF;
END $$`},
		// Consulta del payout cron: ganancias pendientes por antigüedad.
		{"partial idx ganancias pendientes", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_ganancias_por_promover') THEN
    CREATE INDEX idx_ganancias_por_promover
        ON ganancias_instructor (created_at)
        WHERE estado = 'pendiente';
  END IF;
END $$`},
		// Reintentos de liquidaciones fallidas.
		{"partial idx liquidaciones retry", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_liquidaciones_pending_retry') THEN
    CREATE INDEX idx_liquidaciones_pending_retry
        ON liquidaciones (next_retry_at)
        WHERE estado = 'error' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
