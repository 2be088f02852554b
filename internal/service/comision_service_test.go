package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

func TestFeeProcesadorTarjeta(t *testing.T) {
	// (100 × 0.036 + 3.00) × 1.16 = 7.656 → 7.66
	fee := FeeProcesadorTarjeta(dec("100.00"))
	assert.True(t, fee.Equal(dec("7.66")), "fee=%s", fee)

	// (0 × 0.036 + 3.00) × 1.16 = 3.48 — el fijo aplica aunque el monto sea cero
	fee = FeeProcesadorTarjeta(decimal.Zero)
	assert.True(t, fee.Equal(dec("3.48")), "fee=%s", fee)
}

func TestCalcularSplit_Tarjeta(t *testing.T) {
	s := CalcularSplit(dec("100.00"), MetodoTarjeta, dec("0.30"))

	assert.True(t, s.Fee.Equal(dec("7.66")), "fee=%s", s.Fee)
	assert.True(t, s.VentaNeta.Equal(dec("92.34")), "ventaNeta=%s", s.VentaNeta)
	assert.True(t, s.ComisionPlataforma.Equal(dec("27.70")), "comision=%s", s.ComisionPlataforma)
	assert.True(t, s.GananciaInstructor.Equal(dec("64.64")), "ganancia=%s", s.GananciaInstructor)
}

func TestCalcularSplit_TasaReferido(t *testing.T) {
	s := CalcularSplit(dec("100.00"), MetodoTarjeta, dec("0.20"))

	assert.True(t, s.ComisionPlataforma.Equal(dec("18.47")), "comision=%s", s.ComisionPlataforma)
	assert.True(t, s.GananciaInstructor.Equal(dec("73.87")), "ganancia=%s", s.GananciaInstructor)
}

func TestCalcularSplit_BilleteraSinFee(t *testing.T) {
	s := CalcularSplit(dec("50.00"), MetodoBilletera, dec("0.30"))

	assert.True(t, s.Fee.IsZero())
	assert.True(t, s.VentaNeta.Equal(dec("50.00")))
	assert.True(t, s.ComisionPlataforma.Equal(dec("15.00")))
	assert.True(t, s.GananciaInstructor.Equal(dec("35.00")))
}

// La suma de las partes reconstruye la venta neta sin deriva mayor al centavo.
func TestCalcularSplit_Conservacion(t *testing.T) {
	precios := []string{"9.99", "100.00", "249.50", "1333.33", "0.50"}
	for _, p := range precios {
		s := CalcularSplit(dec(p), MetodoTarjeta, dec("0.30"))
		suma := s.ComisionPlataforma.Add(s.GananciaInstructor)
		delta := suma.Sub(s.VentaNeta).Abs()
		assert.True(t, delta.LessThanOrEqual(dec("0.01")), "precio=%s delta=%s", p, delta)
	}
}

// Recalcular sobre la misma entrada produce salida idéntica: sin deriva.
func TestCalcularSplit_Idempotente(t *testing.T) {
	a := CalcularSplit(dec("123.45"), MetodoTarjeta, dec("0.30"))
	b := CalcularSplit(dec("123.45"), MetodoTarjeta, dec("0.30"))

	assert.True(t, a.Fee.Equal(b.Fee))
	assert.True(t, a.VentaNeta.Equal(b.VentaNeta))
	assert.True(t, a.ComisionPlataforma.Equal(b.ComisionPlataforma))
	assert.True(t, a.GananciaInstructor.Equal(b.GananciaInstructor))
}

func TestTasaParaItem(t *testing.T) {
	instructorID := uuid.New()
	productoID := uuid.New()
	tasaDefault := dec("0.30")
	tasaReferido := dec("0.20")

	item := &model.VentaItem{
		ProductoID:   productoID,
		ProductoTipo: "curso",
		InstructorID: instructorID,
	}

	cuponReferido := &model.Cupon{
		InstructorID: instructorID,
		ProductoTipo: "curso",
		Descuento:    decimal.Zero, // descuento cero ⇒ referido
		Productos:    []model.CuponProducto{{ProductoID: productoID}},
	}

	t.Run("sin cupon usa la default", func(t *testing.T) {
		tasa, esReferido := TasaParaItem(nil, item, tasaDefault, tasaReferido)
		assert.False(t, esReferido)
		assert.True(t, tasa.Equal(tasaDefault))
	})

	t.Run("cupon referido que cubre el producto", func(t *testing.T) {
		tasa, esReferido := TasaParaItem(cuponReferido, item, tasaDefault, tasaReferido)
		assert.True(t, esReferido)
		assert.True(t, tasa.Equal(tasaReferido))
	})

	t.Run("cupon de otro instructor no aplica", func(t *testing.T) {
		ajeno := &model.Cupon{
			InstructorID: uuid.New(),
			ProductoTipo: "curso",
			Descuento:    decimal.Zero,
			Productos:    []model.CuponProducto{{ProductoID: productoID}},
		}
		tasa, esReferido := TasaParaItem(ajeno, item, tasaDefault, tasaReferido)
		assert.False(t, esReferido)
		assert.True(t, tasa.Equal(tasaDefault))
	})

	t.Run("cupon que no cubre el producto no aplica", func(t *testing.T) {
		otro := &model.Cupon{
			InstructorID: instructorID,
			ProductoTipo: "curso",
			Descuento:    decimal.Zero,
			Productos:    []model.CuponProducto{{ProductoID: uuid.New()}},
		}
		tasa, esReferido := TasaParaItem(otro, item, tasaDefault, tasaReferido)
		assert.False(t, esReferido)
		assert.True(t, tasa.Equal(tasaDefault))
	})

	t.Run("cupon con descuento no es referido", func(t *testing.T) {
		descuento := &model.Cupon{
			InstructorID: instructorID,
			ProductoTipo: "curso",
			Descuento:    dec("15.00"),
			Productos:    []model.CuponProducto{{ProductoID: productoID}},
		}
		tasa, esReferido := TasaParaItem(descuento, item, tasaDefault, tasaReferido)
		assert.False(t, esReferido)
		assert.True(t, tasa.Equal(tasaDefault))
	})
}

func TestVerificarGanancia(t *testing.T) {
	tasa := dec("0.30")
	esperado := CalcularSplit(dec("100.00"), MetodoTarjeta, tasa)

	base := &model.GananciaInstructor{
		Bruto:        dec("100.00"),
		TasaComision: tasa,
		GananciaNeta: esperado.GananciaInstructor,
	}

	t.Run("ganancia consistente", func(t *testing.T) {
		v := VerificarGanancia(base, MetodoTarjeta, tasa)
		assert.True(t, v.OK)
		assert.False(t, v.NecesitaCorreccion)
	})

	t.Run("desvio de ganancia supera tolerancia", func(t *testing.T) {
		g := *base
		g.GananciaNeta = g.GananciaNeta.Add(dec("0.02"))
		v := VerificarGanancia(&g, MetodoTarjeta, tasa)
		assert.False(t, v.OK)
		assert.True(t, v.NecesitaCorreccion)
	})

	t.Run("desvio dentro de tolerancia", func(t *testing.T) {
		g := *base
		g.GananciaNeta = g.GananciaNeta.Add(dec("0.01"))
		v := VerificarGanancia(&g, MetodoTarjeta, tasa)
		assert.True(t, v.OK)
	})

	t.Run("tasa almacenada distinta", func(t *testing.T) {
		g := *base
		g.TasaComision = dec("0.25")
		v := VerificarGanancia(&g, MetodoTarjeta, tasa)
		require.True(t, v.NecesitaCorreccion)
		assert.True(t, v.SplitEsperado.GananciaInstructor.Equal(esperado.GananciaInstructor))
	})
}

func TestCalcularFeePago(t *testing.T) {
	t.Run("paypal", func(t *testing.T) {
		fee := CalcularFeePago(dec("100.00"), PayoutPaypal)
		// 100 × 0.029 + 0.30 = 3.20
		assert.True(t, fee.Monto.Equal(dec("3.20")), "monto=%s", fee.Monto)
	})

	t.Run("transferencia sin fee", func(t *testing.T) {
		fee := CalcularFeePago(dec("100.00"), PayoutTransferencia)
		assert.True(t, fee.Monto.IsZero())
	})

	t.Run("metodo desconocido fee cero", func(t *testing.T) {
		fee := CalcularFeePago(dec("100.00"), "cheque")
		assert.True(t, fee.Monto.IsZero())
	})
}
