package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SolicitarReembolsoRequest struct {
	VentaID      string `json:"venta_id"      validate:"required,uuid"`
	ProductoID   string `json:"producto_id"   validate:"required,uuid"`
	ProductoTipo string `json:"producto_tipo" validate:"required,oneof=curso proyecto"`
	Motivo       string `json:"motivo"        validate:"required,min=10,max=500"`
}

type RevisarReembolsoRequest struct {
	Aprobar bool   `json:"aprobar"`
	Motivo  string `json:"motivo" validate:"required,min=5,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReembolsoResponse struct {
	ID             string          `json:"id"`
	VentaID        string          `json:"venta_id"`
	UsuarioID      string          `json:"usuario_id"`
	ProductoID     string          `json:"producto_id"`
	ProductoTipo   string          `json:"producto_tipo"`
	Titulo         string          `json:"titulo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	MotivoUsuario  string          `json:"motivo_usuario"`
	Estado         string          `json:"estado"`
	MotivoRevisor  *string         `json:"motivo_revisor,omitempty"`
	RevisadoAt     *string         `json:"revisado_at,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// RechazoResponse lleva el código de razón estable que los clientes usan para
// traducir el rechazo; el mensaje es solo informativo.
type RechazoResponse struct {
	Codigo  string `json:"codigo"`
	Mensaje string `json:"mensaje"`
}
