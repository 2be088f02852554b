package service

// comision_service.go — motor de split de comisión.
// gross → fee del procesador → venta neta → comisión de plataforma → ganancia
// del instructor. Todo redondeo monetario es a 2 decimales half-up EN CADA
// PASO, no solo al final: el tooling de conciliación depende del redondeo
// por paso.

import (
	"github.com/shopspring/decimal"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

// Tolerancias de conciliación: una ganancia almacenada que difiera de la
// recalculada más allá de esto "necesita corrección" — nunca se auto-corrige
// adivinando una tasa.
var (
	toleranciaTasa     = dec("0.001")
	toleranciaGanancia = dec("0.01")
)

// Split es el resultado del motor de comisión para una línea de venta.
type Split struct {
	Fee                decimal.Decimal `json:"fee"`
	VentaNeta          decimal.Decimal `json:"venta_neta"`
	ComisionPlataforma decimal.Decimal `json:"comision_plataforma"`
	GananciaInstructor decimal.Decimal `json:"ganancia_instructor"`
}

// CalcularSplit descompone el precio de venta de una línea:
//
//	billetera        ⇒ fee = 0
//	cualquier otro   ⇒ fee = fórmula del procesador de tarjetas
//	ventaNeta        = round2(precio − fee)
//	comision         = round2(ventaNeta × tasa)
//	ganancia         = round2(ventaNeta − comision)
//
// Aplicada dos veces sobre la misma entrada produce salida idéntica: no hay
// deriva por redondeos repetidos.
func CalcularSplit(precio decimal.Decimal, metodoPago string, tasaComision decimal.Decimal) Split {
	fee := decimal.Zero
	if metodoPago != MetodoBilletera {
		fee = FeeProcesadorTarjeta(precio)
	}

	ventaNeta := precio.Sub(fee).Round(2)
	comision := ventaNeta.Mul(tasaComision).Round(2)
	ganancia := ventaNeta.Sub(comision).Round(2)

	return Split{
		Fee:                fee,
		VentaNeta:          ventaNeta,
		ComisionPlataforma: comision,
		GananciaInstructor: ganancia,
	}
}

// TasaParaItem decide la tasa de comisión de una línea: la de referido cuando
// el cupón usado en la venta es de referido, cubre el producto de la línea y
// pertenece al instructor de la línea; la default en cualquier otro caso.
func TasaParaItem(cupon *model.Cupon, item *model.VentaItem, tasaDefault, tasaReferido decimal.Decimal) (decimal.Decimal, bool) {
	if cupon == nil || !cupon.EsReferido() {
		return tasaDefault, false
	}
	if cupon.InstructorID != item.InstructorID || cupon.ProductoTipo != item.ProductoTipo {
		return tasaDefault, false
	}
	for _, cp := range cupon.Productos {
		if cp.ProductoID == item.ProductoID {
			return tasaReferido, true
		}
	}
	return tasaDefault, false
}

// Verificacion es el veredicto de conciliación de una ganancia almacenada.
type Verificacion struct {
	OK                 bool  `json:"ok"`
	NecesitaCorreccion bool  `json:"necesita_correccion"`
	SplitEsperado      Split `json:"split_esperado"`
}

// VerificarGanancia recalcula el split de una ganancia almacenada con la tasa
// esperada y compara. Desvío de tasa > 0.001 o de ganancia > 0.01 se marca
// como "necesita corrección"; jamás se ajusta automáticamente.
func VerificarGanancia(g *model.GananciaInstructor, metodoPago string, tasaEsperada decimal.Decimal) Verificacion {
	esperado := CalcularSplit(g.Bruto, metodoPago, tasaEsperada)

	deltaTasa := g.TasaComision.Sub(tasaEsperada).Abs()
	deltaGanancia := g.GananciaNeta.Sub(esperado.GananciaInstructor).Abs()

	if deltaTasa.GreaterThan(toleranciaTasa) || deltaGanancia.GreaterThan(toleranciaGanancia) {
		return Verificacion{NecesitaCorreccion: true, SplitEsperado: esperado}
	}
	return Verificacion{OK: true, SplitEsperado: esperado}
}
