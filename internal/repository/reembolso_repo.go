package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type ReembolsoRepository interface {
	// Create inserta la solicitud. El índice parcial uq_reembolsos_activos
	// convierte el insert en un check-and-insert atómico: si ya existe un
	// reembolso activo para la terna, devuelve gorm.ErrDuplicatedKey.
	Create(ctx context.Context, rb *model.Reembolso) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reembolso, error)
	// CountCompletados cuenta reembolsos completados del usuario para un producto.
	CountCompletados(ctx context.Context, usuarioID, productoID uuid.UUID) (int64, error)
	// ExisteActivo reporta si hay un reembolso pendiente o en proceso para la
	// terna. Es un chequeo consultivo: el insert contra el índice parcial
	// sigue siendo el árbitro frente a solicitudes concurrentes.
	ExisteActivo(ctx context.Context, ventaID, productoID uuid.UUID, productoTipo string) (bool, error)
	UpdateTx(tx *gorm.DB, rb *model.Reembolso) error
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Reembolso, error)
	ListPendientes(ctx context.Context, limit int) ([]model.Reembolso, error)
	DB() *gorm.DB
}

type reembolsoRepo struct{ db *gorm.DB }

func NewReembolsoRepository(db *gorm.DB) ReembolsoRepository { return &reembolsoRepo{db: db} }

func (r *reembolsoRepo) DB() *gorm.DB { return r.db }

func (r *reembolsoRepo) Create(ctx context.Context, rb *model.Reembolso) error {
	return r.db.WithContext(ctx).Create(rb).Error
}

func (r *reembolsoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reembolso, error) {
	var rb model.Reembolso
	err := r.db.WithContext(ctx).Preload("Venta.Items").Preload("Venta").First(&rb, id).Error
	return &rb, err
}

func (r *reembolsoRepo) CountCompletados(ctx context.Context, usuarioID, productoID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reembolso{}).
		Where("usuario_id = ? AND producto_id = ? AND estado = ?", usuarioID, productoID, model.ReembolsoCompletado).
		Count(&n).Error
	return n, err
}

func (r *reembolsoRepo) ExisteActivo(ctx context.Context, ventaID, productoID uuid.UUID, productoTipo string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reembolso{}).
		Where("venta_id = ? AND producto_id = ? AND producto_tipo = ? AND estado IN ?",
			ventaID, productoID, productoTipo,
			[]string{model.ReembolsoPendiente, model.ReembolsoProcesando}).
		Count(&n).Error
	return n > 0, err
}

func (r *reembolsoRepo) UpdateTx(tx *gorm.DB, rb *model.Reembolso) error {
	return tx.Save(rb).Error
}

func (r *reembolsoRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Reembolso, error) {
	var rbs []model.Reembolso
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Find(&rbs).Error
	return rbs, err
}

func (r *reembolsoRepo) ListPendientes(ctx context.Context, limit int) ([]model.Reembolso, error) {
	var rbs []model.Reembolso
	err := r.db.WithContext(ctx).
		Where("estado = ?", model.ReembolsoPendiente).
		Order("created_at ASC").
		Limit(limit).
		Find(&rbs).Error
	return rbs, err
}
