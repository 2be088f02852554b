package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type InscripcionRepository interface {
	Create(ctx context.Context, ins *model.Inscripcion) error
	CreateTx(tx *gorm.DB, ins *model.Inscripcion) error
	CountByUsuarioCurso(ctx context.Context, usuarioID, cursoID uuid.UUID) (int64, error)
	// EliminarMasRecienteTx revoca EXACTAMENTE una inscripción, la más
	// reciente del usuario en el curso. Un solo DELETE con subconsulta:
	// si el usuario compró el curso dos veces, la inscripción anterior
	// sobrevive. Devuelve cuántas filas se borraron (0 o 1).
	EliminarMasRecienteTx(tx *gorm.DB, usuarioID, cursoID uuid.UUID) (int64, error)
	// EliminarPorVentaTx borra las inscripciones que una venta anulada creó.
	EliminarPorVentaTx(tx *gorm.DB, ventaID uuid.UUID) (int64, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Inscripcion, error)
	DB() *gorm.DB
}

type inscripcionRepo struct{ db *gorm.DB }

func NewInscripcionRepository(db *gorm.DB) InscripcionRepository { return &inscripcionRepo{db: db} }

func (r *inscripcionRepo) DB() *gorm.DB { return r.db }

func (r *inscripcionRepo) Create(ctx context.Context, ins *model.Inscripcion) error {
	return r.db.WithContext(ctx).Create(ins).Error
}

func (r *inscripcionRepo) CreateTx(tx *gorm.DB, ins *model.Inscripcion) error {
	return tx.Create(ins).Error
}

func (r *inscripcionRepo) CountByUsuarioCurso(ctx context.Context, usuarioID, cursoID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Inscripcion{}).
		Where("usuario_id = ? AND curso_id = ?", usuarioID, cursoID).
		Count(&n).Error
	return n, err
}

func (r *inscripcionRepo) EliminarMasRecienteTx(tx *gorm.DB, usuarioID, cursoID uuid.UUID) (int64, error) {
	res := tx.Exec(`
		DELETE FROM inscripciones
		WHERE id = (
			SELECT id FROM inscripciones
			WHERE usuario_id = ? AND curso_id = ?
			ORDER BY created_at DESC
			LIMIT 1
		)`, usuarioID, cursoID)
	return res.RowsAffected, res.Error
}

func (r *inscripcionRepo) EliminarPorVentaTx(tx *gorm.DB, ventaID uuid.UUID) (int64, error) {
	res := tx.Where("venta_id = ?", ventaID).Delete(&model.Inscripcion{})
	return res.RowsAffected, res.Error
}

func (r *inscripcionRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Inscripcion, error) {
	var ins []model.Inscripcion
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Find(&ins).Error
	return ins, err
}
