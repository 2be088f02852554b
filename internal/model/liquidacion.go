package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Liquidacion es una corrida de pago a un instructor: agrupa las ganancias
// "disponible" al momento de despacharse y congela el desglose completo del
// cálculo (el tooling de conciliación lo relee campo a campo).
// Estado: "pendiente" | "despachada" | "confirmada" | "error"
type Liquidacion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Desglose — todos los campos se persisten aunque valgan cero.
	MontoVentaUSD    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoFiscal      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MonedaFiscal     string          `gorm:"type:varchar(3);not null"`
	ComisionMonto    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	IVAMonto         decimal.Decimal `gorm:"type:decimal(14,2);not null;column:iva_monto"`
	IVARetenido      decimal.Decimal `gorm:"type:decimal(14,2);not null;column:iva_retenido"`
	IVATrasladado    decimal.Decimal `gorm:"type:decimal(14,2);not null;column:iva_trasladado"`
	ISRTasa          decimal.Decimal `gorm:"type:decimal(7,4);not null;column:isr_tasa"`
	ISRMonto         decimal.Decimal `gorm:"type:decimal(14,2);not null;column:isr_monto"`
	Neto             decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MonedaPago       string          `gorm:"type:varchar(3);not null"`
	FeeMetodoPago    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MontoFinal       decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Estado string `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// PDFPath es relativo a PDF_STORAGE_PATH
	PDFPath *string `gorm:"column:pdf_path"`
	// Retry fields — usados por el worker de payouts al reintentar despachos fallidos
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (Liquidacion) TableName() string { return "liquidaciones" }

// Estados de liquidación.
const (
	LiquidacionPendiente  = "pendiente"
	LiquidacionDespachada = "despachada"
	LiquidacionConfirmada = "confirmada"
	LiquidacionError      = "error"
)
