package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type CampaniaRepository interface {
	Create(ctx context.Context, c *model.Campania) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Campania, error)
	// ExisteSolape reporta si ya existe una campaña del mismo tipo y segmento
	// cuya ventana [inicia, termina] se cruza con la propuesta.
	ExisteSolape(ctx context.Context, tipo, tipoSegmento string, segmentoID uuid.UUID, inicia, termina time.Time) (bool, error)
	ListVigentes(ctx context.Context, en time.Time) ([]model.Campania, error)
	List(ctx context.Context) ([]model.Campania, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB
}

type campaniaRepo struct{ db *gorm.DB }

func NewCampaniaRepository(db *gorm.DB) CampaniaRepository { return &campaniaRepo{db: db} }

func (r *campaniaRepo) DB() *gorm.DB { return r.db }

func (r *campaniaRepo) Create(ctx context.Context, c *model.Campania) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *campaniaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Campania, error) {
	var c model.Campania
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaniaRepo) ExisteSolape(ctx context.Context, tipo, tipoSegmento string, segmentoID uuid.UUID, inicia, termina time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Campania{}).
		Where("tipo_campania = ? AND tipo_segmento = ? AND segmento_id = ?", tipo, tipoSegmento, segmentoID).
		Where("inicia_at <= ? AND termina_at >= ?", termina, inicia).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *campaniaRepo) ListVigentes(ctx context.Context, en time.Time) ([]model.Campania, error) {
	var cs []model.Campania
	err := r.db.WithContext(ctx).
		Where("inicia_at <= ? AND termina_at >= ?", en, en).
		Order("inicia_at ASC").
		Find(&cs).Error
	return cs, err
}

func (r *campaniaRepo) List(ctx context.Context) ([]model.Campania, error) {
	var cs []model.Campania
	err := r.db.WithContext(ctx).Order("inicia_at DESC").Find(&cs).Error
	return cs, err
}

func (r *campaniaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Campania{}, "id = ?", id).Error
}
