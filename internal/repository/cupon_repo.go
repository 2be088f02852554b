package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type CuponRepository interface {
	Create(ctx context.Context, c *model.Cupon) error
	FindByCodigo(ctx context.Context, codigo string) (*model.Cupon, error)
	List(ctx context.Context) ([]model.Cupon, error)
	Update(ctx context.Context, c *model.Cupon) error
	Desactivar(ctx context.Context, codigo string) error
	DB() *gorm.DB
}

type cuponRepo struct{ db *gorm.DB }

func NewCuponRepository(db *gorm.DB) CuponRepository { return &cuponRepo{db: db} }

func (r *cuponRepo) DB() *gorm.DB { return r.db }

func (r *cuponRepo) Create(ctx context.Context, c *model.Cupon) error {
	c.Codigo = strings.ToUpper(strings.TrimSpace(c.Codigo))
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cuponRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Cupon, error) {
	var c model.Cupon
	err := r.db.WithContext(ctx).
		Preload("Productos").
		Where("UPPER(codigo) = ?", strings.ToUpper(strings.TrimSpace(codigo))).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cuponRepo) List(ctx context.Context) ([]model.Cupon, error) {
	var cs []model.Cupon
	err := r.db.WithContext(ctx).Preload("Productos").Order("created_at DESC").Find(&cs).Error
	return cs, err
}

func (r *cuponRepo) Update(ctx context.Context, c *model.Cupon) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cuponRepo) Desactivar(ctx context.Context, codigo string) error {
	return r.db.WithContext(ctx).Model(&model.Cupon{}).
		Where("UPPER(codigo) = ?", strings.ToUpper(strings.TrimSpace(codigo))).
		Update("activo", false).Error
}
