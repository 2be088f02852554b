package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PerfilFiscal guarda los datos fiscales de un instructor: país, régimen,
// moneda de cobro y acumulado anual de ingresos (base para el tramo de ISR
// y para los límites de régimen).
// Un instructor recién dado de alta puede no tener régimen asignado todavía;
// el resolver fiscal degrada a ISR cero en ese caso, nunca falla.
type PerfilFiscal struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InstructorID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Pais         string    `gorm:"type:varchar(4);not null;default:'INTL'"`
	Regimen      string    `gorm:"type:varchar(30)"`
	// MonedaPago es la moneda en que el instructor cobra; puede diferir de la
	// moneda fiscal de su país.
	MonedaPago string `gorm:"type:varchar(3);not null;default:'USD'"`
	// MetodoPago: "paypal" | "payoneer" | "transferencia" | "sepa"
	MetodoPago string `gorm:"type:varchar(20);not null;default:'paypal'"`
	// IngresoAcumulado es el ingreso del año fiscal en curso, en moneda fiscal,
	// ANTES de la venta que se esté calculando.
	IngresoAcumulado decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	AnioFiscal       int             `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides GORM's default pluralization.
func (PerfilFiscal) TableName() string { return "perfiles_fiscales" }

// ConfigPagoInstructor guarda la cuenta del procesador externo de pagos del
// instructor y sus flags de capacidad (onboarding).
type ConfigPagoInstructor struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InstructorID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	CuentaExterna      string    `gorm:"type:varchar(100)"`
	CargosHabilitados  bool      `gorm:"not null;default:false"`
	PagosHabilitados   bool      `gorm:"not null;default:false"`
	OnboardingCompleto bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName overrides GORM's default pluralization.
func (ConfigPagoInstructor) TableName() string { return "configs_pago_instructor" }
