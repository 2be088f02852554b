package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GananciaInstructor es el asiento contable de lo que un instructor ganó por
// una línea vendida: exactamente un registro por (venta, producto).
// Estado: "pendiente" | "disponible" | "pagado" | "completado" | "reembolsado"
//   - pendiente:    la venta se pagó pero la ventana de reembolso sigue abierta
//   - disponible:   elegible para liquidación (promovida por el payout cron)
//   - pagado:       incluida en una liquidación despachada
//   - completado:   liquidación confirmada por el procesador
//   - reembolsado:  el reembolso del ítem fue aprobado; bloqueada para pago
//
// Una ganancia en "pagado"/"completado" bloquea la aprobación de reembolsos
// sobre su línea; una en "reembolsado" queda fuera de toda liquidación.
type GananciaInstructor struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index"`
	VentaID      uuid.UUID `gorm:"type:uuid;not null;index:idx_ganancias_venta_producto,unique"`
	ProductoID   uuid.UUID `gorm:"type:uuid;not null;index:idx_ganancias_venta_producto,unique"`
	ProductoTipo string    `gorm:"type:varchar(10);not null"`

	Bruto            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FeeProcesador    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentaNeta        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TasaComision     decimal.Decimal `gorm:"type:decimal(5,4);not null"`
	ComisionMonto    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GananciaNeta     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// EsReferido marca que la tasa aplicada fue la de cupón de referido.
	EsReferido bool   `gorm:"not null;default:false"`
	Estado     string `gorm:"type:varchar(20);not null;default:'pendiente';index"`

	// Referencias de cierre
	ReembolsoID    *uuid.UUID `gorm:"type:uuid"`
	ReembolsadoAt  *time.Time
	LiquidacionID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides GORM's default pluralization.
func (GananciaInstructor) TableName() string { return "ganancias_instructor" }

// Estados de ganancia.
const (
	GananciaPendiente   = "pendiente"
	GananciaDisponible  = "disponible"
	GananciaPagada      = "pagado"
	GananciaCompletada  = "completado"
	GananciaReembolsada = "reembolsado"
)
