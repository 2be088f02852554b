package service

// fees.go — tabla de fees por método de pago/cobro.
// La tabla es estática e inmutable; se consulta tanto al cobrar una venta
// (split de comisión) como al pagar a un instructor (fee del método de payout).

import (
	"github.com/shopspring/decimal"
)

// Métodos de pago de venta.
const (
	MetodoTarjeta   = "tarjeta"
	MetodoPaypal    = "paypal"
	MetodoBilletera = "billetera"
)

// Métodos de payout a instructores.
const (
	PayoutPaypal        = "paypal"
	PayoutPayoneer      = "payoneer"
	PayoutTransferencia = "transferencia"
	PayoutSepa          = "sepa"
)

// FeePago es el desglose del fee de un método: tasa porcentual, componente
// fijo y monto resultante.
type FeePago struct {
	Tasa  decimal.Decimal `json:"tasa"`
	Fijo  decimal.Decimal `json:"fijo"`
	Monto decimal.Decimal `json:"monto"`
}

type feeEntry struct {
	tasa decimal.Decimal
	fijo decimal.Decimal
}

var tablaFees = map[string]feeEntry{
	MetodoTarjeta:       {tasa: dec("0.036"), fijo: dec("3.00")},
	MetodoPaypal:        {tasa: dec("0.029"), fijo: dec("0.30")},
	PayoutPayoneer:      {tasa: dec("0.015"), fijo: decimal.Zero},
	PayoutTransferencia: {tasa: decimal.Zero, fijo: decimal.Zero},
	PayoutSepa:          {tasa: dec("0.005"), fijo: decimal.Zero},
}

// CalcularFeePago devuelve el fee de tabla para un monto y método.
// Método desconocido o billetera: fee cero.
func CalcularFeePago(monto decimal.Decimal, metodo string) FeePago {
	entry, ok := tablaFees[metodo]
	if !ok {
		return FeePago{Tasa: decimal.Zero, Fijo: decimal.Zero, Monto: decimal.Zero}
	}
	return FeePago{
		Tasa:  entry.tasa,
		Fijo:  entry.fijo,
		Monto: monto.Mul(entry.tasa).Add(entry.fijo).Round(2),
	}
}

// ivaFee es el gross-up de IVA que el procesador de tarjetas aplica sobre su fee.
var ivaFee = dec("1.16")

// FeeProcesadorTarjeta reproduce la fórmula exacta del procesador de tarjetas:
//
//	fee = (monto × 0.036 + 3.00) × 1.16
//
// Los scripts de conciliación recalculan contra los valores almacenados — la
// fórmula no puede cambiar ni reordenarse.
func FeeProcesadorTarjeta(monto decimal.Decimal) decimal.Decimal {
	entry := tablaFees[MetodoTarjeta]
	return monto.Mul(entry.tasa).Add(entry.fijo).Mul(ivaFee).Round(2)
}
