package dto

import "github.com/shopspring/decimal"

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BilleteraResponse struct {
	UsuarioID string          `json:"usuario_id"`
	Saldo     decimal.Decimal `json:"saldo"`
	Moneda    string          `json:"moneda"`
}

type MovimientoBilleteraResponse struct {
	ID             string          `json:"id"`
	Tipo           string          `json:"tipo"`
	Monto          decimal.Decimal `json:"monto"`
	SaldoPosterior decimal.Decimal `json:"saldo_posterior"`
	Descripcion    string          `json:"descripcion"`
	ReferenciaID   *string         `json:"referencia_id,omitempty"`
	CreatedAt      string          `json:"created_at"`
}
