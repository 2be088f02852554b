package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cupon pertenece a un instructor y aplica a un conjunto de sus productos.
// Descuento == 0 significa modo "referido": el cupón no descuenta precio,
// pero la venta hecha con él baja la comisión de plataforma a la tasa de
// referido para los ítems del instructor dueño.
type Cupon struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo       string          `gorm:"uniqueIndex;not null"`
	InstructorID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoTipo string          `gorm:"type:varchar(10);not null"`
	Descuento    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	VenceAt      *time.Time
	Activo       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Productos []CuponProducto `gorm:"foreignKey:CuponID"`
}

// CuponProducto enlaza un cupón con cada producto al que aplica.
type CuponProducto struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CuponID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName overrides GORM's default pluralization.
func (CuponProducto) TableName() string { return "cupones_productos" }

// TableName overrides GORM's default pluralization (cupons → cupones).
func (Cupon) TableName() string { return "cupones" }

// EsReferido reporta si el cupón opera en modo referido (sin descuento de precio).
func (c *Cupon) EsReferido() bool { return c.Descuento.IsZero() }

// Vigente reporta si el cupón está activo y no vencido en el instante t.
func (c *Cupon) Vigente(t time.Time) bool {
	if !c.Activo {
		return false
	}
	return c.VenceAt == nil || c.VenceAt.After(t)
}
