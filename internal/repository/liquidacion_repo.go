package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type LiquidacionRepository interface {
	Create(ctx context.Context, l *model.Liquidacion) error
	CreateTx(tx *gorm.DB, l *model.Liquidacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidacion, error)
	Update(ctx context.Context, l *model.Liquidacion) error
	MarcarError(ctx context.Context, id uuid.UUID, msg string, nextRetry time.Time) error
	// MarcarDespachadaTx cierra un reintento exitoso: limpia el error y el
	// backoff en la misma transacción que paga las ganancias.
	MarcarDespachadaTx(tx *gorm.DB, id uuid.UUID) error
	// ListPendingRetries trae liquidaciones en error cuyo next_retry_at ya
	// venció, para que el cron las reencole.
	ListPendingRetries(ctx context.Context, limit int) ([]model.Liquidacion, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.Liquidacion, error)
	DB() *gorm.DB
}

type liquidacionRepo struct{ db *gorm.DB }

func NewLiquidacionRepository(db *gorm.DB) LiquidacionRepository { return &liquidacionRepo{db: db} }

func (r *liquidacionRepo) DB() *gorm.DB { return r.db }

func (r *liquidacionRepo) Create(ctx context.Context, l *model.Liquidacion) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *liquidacionRepo) CreateTx(tx *gorm.DB, l *model.Liquidacion) error {
	return tx.Create(l).Error
}

func (r *liquidacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Liquidacion, error) {
	var l model.Liquidacion
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *liquidacionRepo) Update(ctx context.Context, l *model.Liquidacion) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *liquidacionRepo) MarcarError(ctx context.Context, id uuid.UUID, msg string, nextRetry time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Liquidacion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":        model.LiquidacionError,
			"last_error":    msg,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"next_retry_at": nextRetry,
		}).Error
}

func (r *liquidacionRepo) MarcarDespachadaTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Liquidacion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":        model.LiquidacionDespachada,
			"last_error":    nil,
			"next_retry_at": nil,
		}).Error
}

func (r *liquidacionRepo) ListPendingRetries(ctx context.Context, limit int) ([]model.Liquidacion, error) {
	if limit <= 0 {
		limit = 20
	}
	var ls []model.Liquidacion
	err := r.db.WithContext(ctx).
		Where("estado = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.LiquidacionError, time.Now()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&ls).Error
	return ls, err
}

func (r *liquidacionRepo) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.Liquidacion, error) {
	var ls []model.Liquidacion
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&ls).Error
	return ls, err
}
