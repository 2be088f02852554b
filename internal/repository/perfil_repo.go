package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type PerfilFiscalRepository interface {
	FindByInstructor(ctx context.Context, instructorID uuid.UUID) (*model.PerfilFiscal, error)
	Upsert(ctx context.Context, p *model.PerfilFiscal) error
	// IncrementarAcumuladoTx suma el monto liquidado al acumulado anual del
	// instructor. Los umbrales fiscales se evalúan SIEMPRE sobre el acumulado
	// previo a la venta, así que el incremento va después del cálculo.
	IncrementarAcumuladoTx(tx *gorm.DB, instructorID uuid.UUID, monto decimal.Decimal, anio int) error
	FindConfigPago(ctx context.Context, instructorID uuid.UUID) (*model.ConfigPagoInstructor, error)
	UpsertConfigPago(ctx context.Context, c *model.ConfigPagoInstructor) error
	DB() *gorm.DB
}

type perfilRepo struct{ db *gorm.DB }

func NewPerfilFiscalRepository(db *gorm.DB) PerfilFiscalRepository { return &perfilRepo{db: db} }

func (r *perfilRepo) DB() *gorm.DB { return r.db }

func (r *perfilRepo) FindByInstructor(ctx context.Context, instructorID uuid.UUID) (*model.PerfilFiscal, error) {
	var p model.PerfilFiscal
	err := r.db.WithContext(ctx).Where("instructor_id = ?", instructorID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *perfilRepo) Upsert(ctx context.Context, p *model.PerfilFiscal) error {
	var existente model.PerfilFiscal
	err := r.db.WithContext(ctx).Where("instructor_id = ?", p.InstructorID).First(&existente).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(p).Error
	}
	if err != nil {
		return err
	}
	p.ID = existente.ID
	p.IngresoAcumulado = existente.IngresoAcumulado
	p.AnioFiscal = existente.AnioFiscal
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *perfilRepo) IncrementarAcumuladoTx(tx *gorm.DB, instructorID uuid.UUID, monto decimal.Decimal, anio int) error {
	// Cambio de año fiscal: el acumulado arranca de cero con el monto nuevo.
	res := tx.Model(&model.PerfilFiscal{}).
		Where("instructor_id = ? AND anio_fiscal = ?", instructorID, anio).
		Update("ingreso_acumulado", gorm.Expr("ingreso_acumulado + ?", monto))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return tx.Model(&model.PerfilFiscal{}).
		Where("instructor_id = ?", instructorID).
		Updates(map[string]interface{}{
			"anio_fiscal":       anio,
			"ingreso_acumulado": monto,
		}).Error
}

func (r *perfilRepo) FindConfigPago(ctx context.Context, instructorID uuid.UUID) (*model.ConfigPagoInstructor, error) {
	var c model.ConfigPagoInstructor
	err := r.db.WithContext(ctx).Where("instructor_id = ?", instructorID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *perfilRepo) UpsertConfigPago(ctx context.Context, c *model.ConfigPagoInstructor) error {
	var existente model.ConfigPagoInstructor
	err := r.db.WithContext(ctx).Where("instructor_id = ?", c.InstructorID).First(&existente).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(c).Error
	}
	if err != nil {
		return err
	}
	c.ID = existente.ID
	return r.db.WithContext(ctx).Save(c).Error
}
