package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta representa una transacción de compra de la plataforma.
// EstadoPago: "Pendiente" | "Pagado" | "Anulado"
// MetodoPago: "tarjeta" | "paypal" | "billetera"
// Una venta es inmutable después de pagarse salvo transiciones de estado
// (webhook del procesador o acción de un administrador).
type Venta struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Moneda      string          `gorm:"type:varchar(3);not null;default:'USD'"`
	EstadoPago  string          `gorm:"type:varchar(20);not null;default:'Pendiente';index"`
	MetodoPago  string          `gorm:"type:varchar(20);not null"`
	// CuponCodigo queda registrado al pagar; si el cupón es de referido,
	// la comisión de plataforma de los ítems que cubre baja a la tasa de referido.
	CuponCodigo *string `gorm:"type:varchar(50)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items   []VentaItem `gorm:"foreignKey:VentaID"`
	Usuario *Usuario    `gorm:"foreignKey:UsuarioID"`
}

// VentaItem es una línea de la venta: un producto al precio del momento de compra.
// ProductoTipo: "curso" | "proyecto" — referencia etiquetada única, sin columnas
// legadas paralelas por tipo.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoTipo   string          `gorm:"type:varchar(10);not null"`
	Titulo         string          `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// InstructorID es el dueño del producto al momento de la venta; las ganancias
	// se generan contra este instructor aunque el producto cambie de manos después.
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time
}

// TableName overrides GORM's default pluralization (venta_items → ventas_items).
func (VentaItem) TableName() string { return "ventas_items" }
