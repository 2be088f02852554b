package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

var tasasPrueba = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"MXN": dec("17.00"),
	"EUR": dec("0.92"),
}

func TestConvertir(t *testing.T) {
	t.Run("identidad", func(t *testing.T) {
		out := convertir(dec("123.45"), "USD", "USD", tasasPrueba)
		assert.True(t, out.Equal(dec("123.45")))
	})

	t.Run("USD a MXN", func(t *testing.T) {
		out := convertir(dec("100.00"), "USD", "MXN", tasasPrueba)
		assert.True(t, out.Equal(dec("1700.00")), "out=%s", out)
	})

	t.Run("cruce via USD", func(t *testing.T) {
		// 1700 MXN → USD → EUR: 1700/17 × 0.92 = 92.00
		out := convertir(dec("1700.00"), "MXN", "EUR", tasasPrueba)
		assert.True(t, out.Equal(dec("92.00")), "out=%s", out)
	})

	t.Run("moneda sin tasa se trata como USD", func(t *testing.T) {
		out := convertir(dec("55.00"), "XXX", "USD", tasasPrueba)
		assert.True(t, out.Equal(dec("55.00")))
	})
}

func TestCalcularPayout_PerfilMexicano(t *testing.T) {
	svc := NewPayoutService(nil, nil, nil, nil)

	perfil := &model.PerfilFiscal{
		Pais:             "MX",
		Regimen:          "RESICO",
		MonedaPago:       "MXN",
		MetodoPago:       PayoutTransferencia,
		IngresoAcumulado: decimal.Zero,
	}

	d := svc.CalcularPayout(context.Background(), ParamsPayout{
		MontoVentaUSD: dec("100.00"),
		TasaComision:  dec("0.30"),
		Perfil:        perfil,
		Tasas:         tasasPrueba,
	})

	// 100 USD → 1700 MXN
	assert.True(t, d.MontoFiscal.Equal(dec("1700.00")), "montoFiscal=%s", d.MontoFiscal)
	assert.Equal(t, "MXN", d.MonedaFiscal)
	// comisión 30% → 510; restante 1190 incluye IVA
	assert.True(t, d.ComisionMonto.Equal(dec("510.00")), "comision=%s", d.ComisionMonto)
	// base = 1190 / 1.16 = 1025.86
	// iva = 164.14, retenido 82.07, trasladado 82.07
	assert.True(t, d.IVA.IVA.Equal(dec("164.14")), "iva=%s", d.IVA.IVA)
	assert.True(t, d.IVA.Retenido.Equal(dec("82.07")), "retenido=%s", d.IVA.Retenido)
	assert.True(t, d.IVA.Trasladado.Equal(dec("82.07")), "trasladado=%s", d.IVA.Trasladado)
	// isr = 1025.86 × 0.0125 = 12.82
	assert.True(t, d.ISR.Monto.Equal(dec("12.82")), "isr=%s", d.ISR.Monto)
	// neto = 1025.86 + 82.07 − 12.82 = 1095.11; transferencia sin fee
	assert.True(t, d.Neto.Equal(dec("1095.11")), "neto=%s", d.Neto)
	assert.True(t, d.FeeMetodoPago.Monto.IsZero())
	assert.True(t, d.MontoFinal.Equal(dec("1095.11")), "final=%s", d.MontoFinal)
	assert.Equal(t, "MXN", d.MonedaPago)
}

func TestCalcularPayout_SinPerfilUsaGenerico(t *testing.T) {
	svc := NewPayoutService(nil, nil, nil, nil)

	d := svc.CalcularPayout(context.Background(), ParamsPayout{
		MontoVentaUSD: dec("100.00"),
		TasaComision:  dec("0.30"),
		Perfil:        nil,
		Tasas:         tasasPrueba,
	})

	assert.Equal(t, "USD", d.MonedaFiscal)
	assert.True(t, d.IVA.IVA.IsZero())
	assert.True(t, d.ISR.Monto.IsZero())
	// neto = 100 − 30 = 70; fee paypal = 70 × 0.029 + 0.30 = 2.33
	assert.True(t, d.Neto.Equal(dec("70.00")), "neto=%s", d.Neto)
	assert.True(t, d.FeeMetodoPago.Monto.Equal(dec("2.33")), "fee=%s", d.FeeMetodoPago.Monto)
	assert.True(t, d.MontoFinal.Equal(dec("67.67")), "final=%s", d.MontoFinal)
}

// Tasa de comisión cero: la entrada ya viene neta (agregado de ganancias
// disponibles) y el pipeline no debe descontar nada extra.
func TestCalcularPayout_ComisionCero(t *testing.T) {
	svc := NewPayoutService(nil, nil, nil, nil)

	d := svc.CalcularPayout(context.Background(), ParamsPayout{
		MontoVentaUSD: dec("64.64"),
		TasaComision:  decimal.Zero,
		Perfil: &model.PerfilFiscal{
			Pais:       "US",
			Regimen:    "W9",
			MonedaPago: "USD",
			MetodoPago: PayoutTransferencia,
		},
		Tasas: tasasPrueba,
	})

	assert.True(t, d.ComisionMonto.IsZero())
	assert.True(t, d.MontoFinal.Equal(dec("64.64")), "final=%s", d.MontoFinal)
}

// El desglose siempre trae todos los campos, aunque valgan cero: la
// conciliación los lee posicionalmente.
func TestCalcularPayout_DesgloseCompleto(t *testing.T) {
	svc := NewPayoutService(nil, nil, nil, nil)

	d := svc.CalcularPayout(context.Background(), ParamsPayout{
		MontoVentaUSD: decimal.Zero,
		TasaComision:  decimal.Zero,
		Tasas:         tasasPrueba,
	})

	require.NotNil(t, d.TasasUsadas)
	assert.True(t, d.MontoVentaUSD.IsZero())
	assert.True(t, d.MontoFiscal.IsZero())
	assert.NotEmpty(t, d.MonedaFiscal)
	assert.NotEmpty(t, d.MonedaPago)
	// El fijo del método (paypal 0.30 por omisión) no aplica sobre un neto
	// vacío: el final queda en cero, nunca negativo.
	assert.True(t, d.FeeMetodoPago.Monto.IsZero())
	assert.True(t, d.MontoFinal.IsZero())
}

// El ISR del pipeline usa el acumulado previo: un instructor RAE con mucho
// acumulado paga el tramo alto sobre la venta entera.
func TestCalcularPayout_ISRPorAcumulado(t *testing.T) {
	svc := NewPayoutService(nil, nil, nil, nil)

	base := ParamsPayout{
		MontoVentaUSD: dec("100.00"),
		TasaComision:  decimal.Zero,
		Tasas:         tasasPrueba,
	}

	perfilBajo := &model.PerfilFiscal{Pais: "MX", Regimen: "RAE", MonedaPago: "MXN", MetodoPago: PayoutTransferencia, IngresoAcumulado: decimal.Zero}
	perfilAlto := &model.PerfilFiscal{Pais: "MX", Regimen: "RAE", MonedaPago: "MXN", MetodoPago: PayoutTransferencia, IngresoAcumulado: dec("2000000")}

	pBajo := base
	pBajo.Perfil = perfilBajo
	pAlto := base
	pAlto.Perfil = perfilAlto

	dBajo := svc.CalcularPayout(context.Background(), pBajo)
	dAlto := svc.CalcularPayout(context.Background(), pAlto)

	assert.True(t, dBajo.ISR.Tasa.Equal(dec("0.02")))
	assert.True(t, dAlto.ISR.Tasa.Equal(dec("0.08")))
	assert.True(t, dAlto.MontoFinal.LessThan(dBajo.MontoFinal))
}
