package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reembolso es una solicitud de devolución ligada a exactamente una venta y
// una línea de esa venta.
// Estado: "pendiente" → "completado" | "rechazado"
// La aprobación y el crédito de billetera ocurren en la misma transacción:
// nunca se persiste un estado "aprobado" parcial. "procesando" queda reservado
// para reembolsos delegados al procesador de pagos externo.
//
// El índice parcial único uq_reembolsos_activos (ver infra/database.go) garantiza
// a nivel de storage que no existan dos reembolsos activos para la misma terna
// (venta, producto, producto_tipo) aunque lleguen solicitudes concurrentes.
type Reembolso struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID      uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoTipo string    `gorm:"type:varchar(10);not null"`
	Titulo       string    `gorm:"not null"`
	// PrecioUnitario es el precio de venta de la línea; es el monto que se
	// acredita a la billetera al completarse el reembolso.
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MotivoUsuario  string          `gorm:"not null"`
	Estado         string          `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	// Revisión
	RevisorID     *uuid.UUID `gorm:"type:uuid"`
	MotivoRevisor *string
	RevisadoAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Venta *Venta `gorm:"foreignKey:VentaID"`
}

// Estados de reembolso.
const (
	ReembolsoPendiente  = "pendiente"
	ReembolsoProcesando = "procesando"
	ReembolsoCompletado = "completado"
	ReembolsoRechazado  = "rechazado"
)
