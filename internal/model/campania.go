package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Campania es un descuento con ventana temporal sobre un segmento del catálogo.
// TipoCampania: "flash" | "temporada" | "lanzamiento"
// TipoSegmento: "curso" | "categoria" | "proyecto"
// TipoDescuento: "porcentaje" | "fijo"
// Dos campañas del mismo TipoCampania sobre el mismo segmento no pueden
// solaparse en el tiempo; el servicio rechaza la creación.
type Campania struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string          `gorm:"not null"`
	TipoCampania  string          `gorm:"type:varchar(20);not null;index"`
	TipoSegmento  string          `gorm:"type:varchar(20);not null"`
	SegmentoID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TipoDescuento string          `gorm:"type:varchar(20);not null"`
	Descuento     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IniciaAt      time.Time       `gorm:"not null"`
	TerminaAt     time.Time       `gorm:"not null"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides GORM's default pluralization.
func (Campania) TableName() string { return "campanias" }
