package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Billetera es el saldo interno de un usuario. Este núcleo solo la acredita
// (p. ej. el pago de un reembolso); nunca la debita directamente.
type Billetera struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Saldo     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Moneda    string          `gorm:"type:varchar(3);not null;default:'USD'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Movimientos []MovimientoBilletera `gorm:"foreignKey:BilleteraID"`
}

// MovimientoBilletera es un evento inmutable del ledger de la billetera.
// Tipo: "credito_reembolso" | "credito_manual" | "compra"
// Los movimientos NUNCA se modifican ni eliminan — cada crédito registra el
// saldo posterior para auditoría.
type MovimientoBilletera struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BilleteraID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo           string          `gorm:"type:varchar(20);not null"`
	Monto          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoPosterior decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion    string          `gorm:"not null"`
	// ReferenciaID enlaza al Reembolso u operación que originó el movimiento.
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	Metadata     *string    `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimientoBilletera) TableName() string { return "movimientos_billetera" }
