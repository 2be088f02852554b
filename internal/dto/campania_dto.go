package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCampaniaRequest struct {
	Nombre       string          `json:"nombre"         validate:"required,min=3,max=100"`
	TipoCampania string          `json:"tipo_campania"  validate:"required,oneof=flash temporada lanzamiento"`
	TipoSegmento string          `json:"tipo_segmento"  validate:"required,oneof=curso categoria proyecto"`
	SegmentoID   string          `json:"segmento_id"    validate:"required,uuid"`
	TipoDescuento string         `json:"tipo_descuento" validate:"required,oneof=porcentaje fijo"`
	Descuento    decimal.Decimal `json:"descuento"      validate:"required"`
	IniciaAt     string          `json:"inicia_at"      validate:"required"` // RFC 3339
	TerminaAt    string          `json:"termina_at"     validate:"required"` // RFC 3339
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CampaniaResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	TipoCampania  string          `json:"tipo_campania"`
	TipoSegmento  string          `json:"tipo_segmento"`
	SegmentoID    string          `json:"segmento_id"`
	TipoDescuento string          `json:"tipo_descuento"`
	Descuento     decimal.Decimal `json:"descuento"`
	IniciaAt      string          `json:"inicia_at"`
	TerminaAt     string          `json:"termina_at"`
	Vigente       bool            `json:"vigente"`
}

// ─── Cupones ─────────────────────────────────────────────────────────────────

type CrearCuponRequest struct {
	Codigo       string          `json:"codigo"        validate:"required,min=3,max=50"`
	ProductoTipo string          `json:"producto_tipo" validate:"required,oneof=curso proyecto"`
	// Descuento 0 crea un cupón de referido.
	Descuento   decimal.Decimal `json:"descuento"`
	ProductoIDs []string        `json:"producto_ids" validate:"required,min=1,dive,uuid"`
	VenceAt     *string         `json:"vence_at"     validate:"omitempty"`
}

type CuponResponse struct {
	ID           string          `json:"id"`
	Codigo       string          `json:"codigo"`
	InstructorID string          `json:"instructor_id"`
	ProductoTipo string          `json:"producto_tipo"`
	Descuento    decimal.Decimal `json:"descuento"`
	EsReferido   bool            `json:"es_referido"`
	ProductoIDs  []string        `json:"producto_ids"`
	VenceAt      *string         `json:"vence_at,omitempty"`
	Activo       bool            `json:"activo"`
}
