package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PerfilFiscalRequest struct {
	Pais       string `json:"pais"        validate:"required,min=2,max=4"`
	Regimen    string `json:"regimen"     validate:"omitempty,max=30"`
	MonedaPago string `json:"moneda_pago" validate:"required,len=3"`
	MetodoPago string `json:"metodo_pago" validate:"required,oneof=paypal payoneer transferencia sepa"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// DesglosePayoutResponse es el desglose completo de una liquidación.
// TODOS los campos se serializan aunque valgan cero: el tooling de
// conciliación diffea liquidaciones campo a campo.
type DesglosePayoutResponse struct {
	MontoVentaUSD decimal.Decimal `json:"monto_venta_usd"`
	MontoFiscal   decimal.Decimal `json:"monto_fiscal"`
	MonedaFiscal  string          `json:"moneda_fiscal"`
	ComisionMonto decimal.Decimal `json:"comision_monto"`
	IVAMonto      decimal.Decimal `json:"iva_monto"`
	IVARetenido   decimal.Decimal `json:"iva_retenido"`
	IVATrasladado decimal.Decimal `json:"iva_trasladado"`
	ISRTasa       decimal.Decimal `json:"isr_tasa"`
	ISRMonto      decimal.Decimal `json:"isr_monto"`
	Neto          decimal.Decimal `json:"neto"`
	MonedaPago    string          `json:"moneda_pago"`
	FeeMetodoPago decimal.Decimal `json:"fee_metodo_pago"`
	MontoFinal    decimal.Decimal `json:"monto_final"`
}

type LiquidacionResponse struct {
	ID           string                 `json:"id"`
	InstructorID string                 `json:"instructor_id"`
	Desglose     DesglosePayoutResponse `json:"desglose"`
	Estado       string                 `json:"estado"`
	PDFPath      *string                `json:"pdf_path,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

type PerfilFiscalResponse struct {
	InstructorID     string          `json:"instructor_id"`
	Pais             string          `json:"pais"`
	Regimen          string          `json:"regimen"`
	MonedaPago       string          `json:"moneda_pago"`
	MetodoPago       string          `json:"metodo_pago"`
	IngresoAcumulado decimal.Decimal `json:"ingreso_acumulado"`
	AnioFiscal       int             `json:"anio_fiscal"`
}

// AlertaFiscalDTO es una alerta de techo de régimen.
type AlertaFiscalDTO struct {
	Nivel      string          `json:"nivel"` // advertencia | critico | bloqueado
	Porcentaje decimal.Decimal `json:"porcentaje"`
	Mensaje    string          `json:"mensaje"`
}

// LimitesFiscalesResponse reporta el consumo del techo de ingreso del régimen.
type LimitesFiscalesResponse struct {
	PuedeContinuar bool              `json:"puede_continuar"`
	Porcentaje     decimal.Decimal   `json:"porcentaje"`
	Alertas        []AlertaFiscalDTO `json:"alertas,omitempty"`
}
