package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha     string `form:"fecha"`                  // YYYY-MM-DD; empty = all
	Estado    string `form:"estado,default=Pagado"`  // Pendiente | Pagado | Anulado | all
	UsuarioID string `form:"usuario_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// VentaListResponse wraps the paginated result of GET /v1/ventas.
type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	ProductoTipo   string          `json:"producto_tipo"   validate:"required,oneof=curso proyecto"`
	Titulo         string          `json:"titulo"          validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
	InstructorID   string          `json:"instructor_id"   validate:"required,uuid"`
}

type CrearVentaRequest struct {
	Items      []ItemVentaRequest `json:"items"       validate:"required,min=1,dive"`
	MetodoPago string             `json:"metodo_pago" validate:"required,oneof=tarjeta paypal billetera"`
	Moneda     string             `json:"moneda"      validate:"omitempty,len=3"`
	// CuponCodigo: opcional — si el cupón es de referido, baja la comisión de
	// plataforma en los ítems que cubre.
	CuponCodigo *string `json:"cupon_codigo" validate:"omitempty,min=1,max=50"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	ProductoTipo   string          `json:"producto_tipo"`
	Titulo         string          `json:"titulo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	InstructorID   string          `json:"instructor_id"`
}

type VentaResponse struct {
	ID          string              `json:"id"`
	UsuarioID   string              `json:"usuario_id"`
	Total       decimal.Decimal     `json:"total"`
	Moneda      string              `json:"moneda"`
	EstadoPago  string              `json:"estado_pago"`
	MetodoPago  string              `json:"metodo_pago"`
	CuponCodigo *string             `json:"cupon_codigo,omitempty"`
	Items       []ItemVentaResponse `json:"items"`
	CreatedAt   string              `json:"created_at"`
}

// GananciaResponse expone el asiento de ganancia generado al pagarse una venta.
type GananciaResponse struct {
	ID            string          `json:"id"`
	InstructorID  string          `json:"instructor_id"`
	VentaID       string          `json:"venta_id"`
	ProductoID    string          `json:"producto_id"`
	Bruto         decimal.Decimal `json:"bruto"`
	FeeProcesador decimal.Decimal `json:"fee_procesador"`
	VentaNeta     decimal.Decimal `json:"venta_neta"`
	TasaComision  decimal.Decimal `json:"tasa_comision"`
	ComisionMonto decimal.Decimal `json:"comision_monto"`
	GananciaNeta  decimal.Decimal `json:"ganancia_neta"`
	EsReferido    bool            `json:"es_referido"`
	Estado        string          `json:"estado"`
	CreatedAt     string          `json:"created_at"`
}
