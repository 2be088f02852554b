package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type BilleteraRepository interface {
	FindByUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Billetera, error)
	// AcreditarTx abona saldo y registra el movimiento en la MISMA transacción.
	// Si cualquiera de los dos pasos falla, el caller debe abortar todo.
	AcreditarTx(tx *gorm.DB, usuarioID uuid.UUID, monto decimal.Decimal, moneda, tipo, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoBilletera, error)
	DebitarTx(tx *gorm.DB, usuarioID uuid.UUID, monto decimal.Decimal, tipo, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoBilletera, error)
	ListMovimientos(ctx context.Context, usuarioID uuid.UUID, limit int) ([]model.MovimientoBilletera, error)
	DB() *gorm.DB
}

type billeteraRepo struct{ db *gorm.DB }

func NewBilleteraRepository(db *gorm.DB) BilleteraRepository { return &billeteraRepo{db: db} }

func (r *billeteraRepo) DB() *gorm.DB { return r.db }

func (r *billeteraRepo) FindByUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Billetera, error) {
	var b model.Billetera
	err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// findOrCreateTx bloquea la billetera del usuario (FOR UPDATE) y la crea
// vacía si todavía no existe.
func (r *billeteraRepo) findOrCreateTx(tx *gorm.DB, usuarioID uuid.UUID, moneda string) (*model.Billetera, error) {
	var b model.Billetera
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("usuario_id = ?", usuarioID).
		First(&b).Error
	if err == nil {
		return &b, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	b = model.Billetera{
		UsuarioID: usuarioID,
		Saldo:     decimal.Zero,
		Moneda:    moneda,
	}
	if err := tx.Create(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *billeteraRepo) AcreditarTx(tx *gorm.DB, usuarioID uuid.UUID, monto decimal.Decimal, moneda, tipo, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoBilletera, error) {
	b, err := r.findOrCreateTx(tx, usuarioID, moneda)
	if err != nil {
		return nil, err
	}
	nuevoSaldo := b.Saldo.Add(monto).Round(2)
	if err := tx.Model(&model.Billetera{}).
		Where("id = ?", b.ID).
		Update("saldo", nuevoSaldo).Error; err != nil {
		return nil, err
	}
	mov := &model.MovimientoBilletera{
		BilleteraID:    b.ID,
		Tipo:           tipo,
		Monto:          monto,
		SaldoPosterior: nuevoSaldo,
		Descripcion:    descripcion,
		ReferenciaID:   referenciaID,
	}
	if err := tx.Create(mov).Error; err != nil {
		return nil, err
	}
	return mov, nil
}

func (r *billeteraRepo) DebitarTx(tx *gorm.DB, usuarioID uuid.UUID, monto decimal.Decimal, tipo, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoBilletera, error) {
	var b model.Billetera
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("usuario_id = ?", usuarioID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	if b.Saldo.LessThan(monto) {
		return nil, ErrSaldoInsuficiente
	}
	nuevoSaldo := b.Saldo.Sub(monto).Round(2)
	if err := tx.Model(&model.Billetera{}).
		Where("id = ?", b.ID).
		Update("saldo", nuevoSaldo).Error; err != nil {
		return nil, err
	}
	mov := &model.MovimientoBilletera{
		BilleteraID:    b.ID,
		Tipo:           tipo,
		Monto:          monto.Neg(),
		SaldoPosterior: nuevoSaldo,
		Descripcion:    descripcion,
		ReferenciaID:   referenciaID,
	}
	if err := tx.Create(mov).Error; err != nil {
		return nil, err
	}
	return mov, nil
}

func (r *billeteraRepo) ListMovimientos(ctx context.Context, usuarioID uuid.UUID, limit int) ([]model.MovimientoBilletera, error) {
	var b model.Billetera
	if err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).First(&b).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return []model.MovimientoBilletera{}, nil
		}
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var movs []model.MovimientoBilletera
	err := r.db.WithContext(ctx).
		Where("billetera_id = ?", b.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movs).Error
	return movs, err
}
