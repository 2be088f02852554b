package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type GananciaRepository interface {
	CreateTx(tx *gorm.DB, g *model.GananciaInstructor) error
	// FindByVentaProducto hace una lectura FRESCA del asiento — la guardia
	// TOCTOU del flujo de reembolsos depende de no cachear este resultado.
	FindByVentaProducto(ctx context.Context, ventaID, productoID uuid.UUID) (*model.GananciaInstructor, error)
	FindByVentaProductoTx(tx *gorm.DB, ventaID, productoID uuid.UUID) (*model.GananciaInstructor, error)
	MarcarReembolsadaTx(tx *gorm.DB, id, reembolsoID uuid.UUID, cuando time.Time) error
	// EliminarPorVentaTx borra los asientos de una venta que se anula antes
	// de que ninguno fuera liquidado.
	EliminarPorVentaTx(tx *gorm.DB, ventaID uuid.UUID) error
	// PromoverDisponibles pasa a "disponible" las ganancias pendientes creadas
	// antes del corte (ventana de reembolso cumplida). Devuelve filas afectadas.
	PromoverDisponibles(ctx context.Context, corte time.Time) (int64, error)
	InstructoresConDisponibles(ctx context.Context) ([]uuid.UUID, error)
	ListDisponibles(ctx context.Context, instructorID uuid.UUID) ([]model.GananciaInstructor, error)
	SumDisponibles(ctx context.Context, instructorID uuid.UUID) (decimal.Decimal, error)
	MarcarPagadasTx(tx *gorm.DB, instructorID, liquidacionID uuid.UUID) error
	ListByInstructor(ctx context.Context, instructorID uuid.UUID, estado string) ([]model.GananciaInstructor, error)
	DB() *gorm.DB
}

type gananciaRepo struct{ db *gorm.DB }

func NewGananciaRepository(db *gorm.DB) GananciaRepository { return &gananciaRepo{db: db} }

func (r *gananciaRepo) DB() *gorm.DB { return r.db }

func (r *gananciaRepo) CreateTx(tx *gorm.DB, g *model.GananciaInstructor) error {
	return tx.Create(g).Error
}

func (r *gananciaRepo) FindByVentaProducto(ctx context.Context, ventaID, productoID uuid.UUID) (*model.GananciaInstructor, error) {
	var g model.GananciaInstructor
	err := r.db.WithContext(ctx).
		Where("venta_id = ? AND producto_id = ?", ventaID, productoID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gananciaRepo) FindByVentaProductoTx(tx *gorm.DB, ventaID, productoID uuid.UUID) (*model.GananciaInstructor, error) {
	var g model.GananciaInstructor
	// FOR UPDATE: congela el asiento frente a un payout concurrente mientras
	// dura la transacción de aprobación del reembolso.
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("venta_id = ? AND producto_id = ?", ventaID, productoID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gananciaRepo) EliminarPorVentaTx(tx *gorm.DB, ventaID uuid.UUID) error {
	return tx.Where("venta_id = ?", ventaID).Delete(&model.GananciaInstructor{}).Error
}

func (r *gananciaRepo) MarcarReembolsadaTx(tx *gorm.DB, id, reembolsoID uuid.UUID, cuando time.Time) error {
	return tx.Model(&model.GananciaInstructor{}).
		Where("id = ? AND estado IN ?", id, []string{model.GananciaPendiente, model.GananciaDisponible}).
		Updates(map[string]interface{}{
			"estado":         model.GananciaReembolsada,
			"reembolso_id":   reembolsoID,
			"reembolsado_at": cuando,
		}).Error
}

func (r *gananciaRepo) PromoverDisponibles(ctx context.Context, corte time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.GananciaInstructor{}).
		Where("estado = ? AND created_at < ?", model.GananciaPendiente, corte).
		Update("estado", model.GananciaDisponible)
	return res.RowsAffected, res.Error
}

func (r *gananciaRepo) InstructoresConDisponibles(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.GananciaInstructor{}).
		Where("estado = ?", model.GananciaDisponible).
		Distinct("instructor_id").
		Pluck("instructor_id", &ids).Error
	return ids, err
}

func (r *gananciaRepo) ListDisponibles(ctx context.Context, instructorID uuid.UUID) ([]model.GananciaInstructor, error) {
	var gs []model.GananciaInstructor
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND estado = ?", instructorID, model.GananciaDisponible).
		Order("created_at ASC").
		Find(&gs).Error
	return gs, err
}

func (r *gananciaRepo) SumDisponibles(ctx context.Context, instructorID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.GananciaInstructor{}).
		Where("instructor_id = ? AND estado = ?", instructorID, model.GananciaDisponible).
		Select("COALESCE(SUM(ganancia_neta), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *gananciaRepo) MarcarPagadasTx(tx *gorm.DB, instructorID, liquidacionID uuid.UUID) error {
	return tx.Model(&model.GananciaInstructor{}).
		Where("instructor_id = ? AND estado = ?", instructorID, model.GananciaDisponible).
		Updates(map[string]interface{}{
			"estado":         model.GananciaPagada,
			"liquidacion_id": liquidacionID,
		}).Error
}

func (r *gananciaRepo) ListByInstructor(ctx context.Context, instructorID uuid.UUID, estado string) ([]model.GananciaInstructor, error) {
	var gs []model.GananciaInstructor
	q := r.db.WithContext(ctx).Where("instructor_id = ?", instructorID)
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}
	err := q.Order("created_at DESC").Find(&gs).Error
	return gs, err
}
