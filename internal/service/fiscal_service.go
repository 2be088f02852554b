package service

// fiscal_service.go — resolver fiscal multi-país.
// Tablas estáticas inmutables cargadas una vez al inicio del proceso; ninguna
// ruta de código las muta en runtime. País o régimen desconocido degradan a un
// perfil genérico / impuesto cero — un instructor recién dado de alta suele no
// tener régimen asignado y eso no puede bloquear ninguna operación financiera.

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TramoISR es un escalón de retención: aplica su tasa cuando el ingreso
// acumulado no supera TechoAcumulado.
type TramoISR struct {
	TechoAcumulado decimal.Decimal
	Tasa           decimal.Decimal
}

// ReglaISR es plana (Tasa, sin tramos) o escalonada (Tramos ordenados por techo).
type ReglaISR struct {
	Tasa   decimal.Decimal
	Tramos []TramoISR
}

// RegimenFiscal describe cómo retiene la plataforma para un régimen concreto.
// TechoIngreso cero significa régimen sin techo anual.
type RegimenFiscal struct {
	Nombre       string
	RetencionIVA decimal.Decimal // fracción del IVA que la plataforma retiene
	ISR          ReglaISR
	TechoIngreso decimal.Decimal
}

// ConfigPais agrupa moneda y reglas fiscales de un país.
type ConfigPais struct {
	Pais         string
	Moneda       string
	MonedaFiscal string
	TasaIVA      decimal.Decimal
	Regimenes    map[string]RegimenFiscal
}

var (
	dos100 = decimal.NewFromInt(100)
	uno    = decimal.NewFromInt(1)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// configsPais es la tabla estática país → configuración fiscal.
// "INTL" es el perfil genérico de respaldo: sin IVA ni retenciones.
var configsPais = map[string]ConfigPais{
	"MX": {
		Pais:         "MX",
		Moneda:       "MXN",
		MonedaFiscal: "MXN",
		TasaIVA:      dec("0.16"),
		Regimenes: map[string]RegimenFiscal{
			// Régimen Simplificado de Confianza: ISR plano con techo anual.
			"RESICO": {
				Nombre:       "Régimen Simplificado de Confianza",
				RetencionIVA: dec("0.5"),
				ISR:          ReglaISR{Tasa: dec("0.0125")},
				TechoIngreso: dec("3500000"),
			},
			// Actividad empresarial: retención escalonada por ingreso acumulado.
			"RAE": {
				Nombre:       "Actividades Empresariales y Profesionales",
				RetencionIVA: dec("0.5"),
				ISR: ReglaISR{Tramos: []TramoISR{
					{TechoAcumulado: dec("300000"), Tasa: dec("0.02")},
					{TechoAcumulado: dec("1000000"), Tasa: dec("0.04")},
					{TechoAcumulado: dec("3000000"), Tasa: dec("0.08")},
				}},
			},
		},
	},
	"CO": {
		Pais:         "CO",
		Moneda:       "COP",
		MonedaFiscal: "COP",
		TasaIVA:      dec("0.19"),
		Regimenes: map[string]RegimenFiscal{
			"SIMPLE": {
				Nombre:       "Régimen Simple de Tributación",
				RetencionIVA: dec("0.15"),
				ISR:          ReglaISR{Tasa: dec("0.035")},
			},
			"ORDINARIO": {
				Nombre:       "Régimen Ordinario",
				RetencionIVA: decimal.Zero,
				ISR:          ReglaISR{Tasa: dec("0.11")},
			},
		},
	},
	"ES": {
		Pais:         "ES",
		Moneda:       "EUR",
		MonedaFiscal: "EUR",
		TasaIVA:      dec("0.21"),
		Regimenes: map[string]RegimenFiscal{
			"AUTONOMO": {
				Nombre:       "Trabajador Autónomo",
				RetencionIVA: decimal.Zero,
				ISR:          ReglaISR{Tasa: dec("0.15")},
			},
		},
	},
	"AR": {
		Pais:         "AR",
		Moneda:       "ARS",
		MonedaFiscal: "ARS",
		TasaIVA:      dec("0.21"),
		Regimenes: map[string]RegimenFiscal{
			"MONOTRIBUTO": {
				Nombre:       "Monotributo",
				RetencionIVA: decimal.Zero,
				ISR:          ReglaISR{Tasa: decimal.Zero},
			},
			"RI": {
				Nombre:       "Responsable Inscripto",
				RetencionIVA: dec("0.5"),
				ISR:          ReglaISR{Tasa: dec("0.06")},
			},
		},
	},
	"US": {
		Pais:         "US",
		Moneda:       "USD",
		MonedaFiscal: "USD",
		TasaIVA:      decimal.Zero,
		Regimenes: map[string]RegimenFiscal{
			"W9": {
				Nombre:       "US Person (W-9)",
				RetencionIVA: decimal.Zero,
				ISR:          ReglaISR{Tasa: decimal.Zero},
			},
		},
	},
	"INTL": {
		Pais:         "INTL",
		Moneda:       "USD",
		MonedaFiscal: "USD",
		TasaIVA:      decimal.Zero,
		Regimenes: map[string]RegimenFiscal{
			"GENERICO": {
				Nombre:       "Perfil internacional genérico",
				RetencionIVA: decimal.Zero,
				ISR:          ReglaISR{Tasa: decimal.Zero},
			},
		},
	},
}

// ObtenerConfigPais devuelve la configuración fiscal del país. Un código
// desconocido cae al perfil INTL — nunca devuelve error.
func ObtenerConfigPais(pais string) ConfigPais {
	if cfg, ok := configsPais[pais]; ok {
		return cfg
	}
	return configsPais["INTL"]
}

// ResultadoISR expone la tasa elegida y el monto retenido.
type ResultadoISR struct {
	Tasa  decimal.Decimal `json:"tasa"`
	Monto decimal.Decimal `json:"monto"`
}

// CalcularISR calcula la retención de ISR para la venta actual.
// Régimen desconocido: warn + {0,0}; degradación silenciosa, no error.
//
// En reglas escalonadas el tramo se elige por el ingreso acumulado ANTES de
// esta venta y su tasa plana se aplica al monto COMPLETO de la venta — no es
// tributación marginal por tramos. Si el acumulado supera todos los techos,
// aplica la tasa del último tramo. Los scripts de conciliación recalculan
// contra esta semántica exacta.
func CalcularISR(pais, regimen string, acumulado, montoVenta decimal.Decimal) ResultadoISR {
	cfg := ObtenerConfigPais(pais)
	reg, ok := cfg.Regimenes[regimen]
	if !ok {
		log.Warn().
			Str("pais", pais).
			Str("regimen", regimen).
			Msg("fiscal: régimen desconocido, ISR cero")
		return ResultadoISR{Tasa: decimal.Zero, Monto: decimal.Zero}
	}

	tasa := reg.ISR.Tasa
	if len(reg.ISR.Tramos) > 0 {
		tasa = reg.ISR.Tramos[len(reg.ISR.Tramos)-1].Tasa
		for _, tramo := range reg.ISR.Tramos {
			if tramo.TechoAcumulado.GreaterThanOrEqual(acumulado) {
				tasa = tramo.Tasa
				break
			}
		}
	}

	return ResultadoISR{
		Tasa:  tasa,
		Monto: montoVenta.Mul(tasa).Round(2),
	}
}

// DesgloseIVA separa el IVA entre lo retenido por la plataforma y lo trasladado
// al instructor.
type DesgloseIVA struct {
	IVA        decimal.Decimal `json:"iva"`
	Retenido   decimal.Decimal `json:"retenido"`
	Trasladado decimal.Decimal `json:"trasladado"`
}

// CalcularIVA: iva = monto × tasa del país; retenido = iva × fracción del
// régimen; trasladado = iva − retenido. Régimen desconocido retiene cero.
func CalcularIVA(pais, regimen string, monto decimal.Decimal) DesgloseIVA {
	cfg := ObtenerConfigPais(pais)
	iva := monto.Mul(cfg.TasaIVA).Round(2)

	retencion := decimal.Zero
	if reg, ok := cfg.Regimenes[regimen]; ok {
		retencion = reg.RetencionIVA
	}
	retenido := iva.Mul(retencion).Round(2)

	return DesgloseIVA{
		IVA:        iva,
		Retenido:   retenido,
		Trasladado: iva.Sub(retenido),
	}
}

// Niveles de alerta de límite de régimen.
const (
	AlertaAdvertencia = "advertencia"
	AlertaCritico     = "critico"
	AlertaBloqueado   = "bloqueado"
)

// AlertaFiscal avisa que el instructor se acerca al techo de su régimen.
type AlertaFiscal struct {
	Nivel      string          `json:"nivel"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
	Mensaje    string          `json:"mensaje"`
}

// ResultadoLimites reporta si el instructor puede seguir facturando bajo su
// régimen tras sumar el ingreso propuesto.
type ResultadoLimites struct {
	PuedeContinuar bool            `json:"puede_continuar"`
	Porcentaje     decimal.Decimal `json:"porcentaje"`
	Alertas        []AlertaFiscal  `json:"alertas"`
}

// ValidarLimitesFiscales evalúa (acumulado + ingreso) contra el techo del
// régimen: alerta a ≥80% y ≥90%, bloquea a ≥100%. Regímenes sin techo
// continúan siempre y sin alertas.
func ValidarLimitesFiscales(pais, regimen string, acumulado, ingreso decimal.Decimal) ResultadoLimites {
	cfg := ObtenerConfigPais(pais)
	reg, ok := cfg.Regimenes[regimen]
	if !ok || reg.TechoIngreso.IsZero() {
		return ResultadoLimites{PuedeContinuar: true, Porcentaje: decimal.Zero}
	}

	pct := acumulado.Add(ingreso).Div(reg.TechoIngreso).Mul(dos100).Round(2)

	res := ResultadoLimites{PuedeContinuar: true, Porcentaje: pct}
	switch {
	case pct.GreaterThanOrEqual(dos100):
		res.PuedeContinuar = false
		res.Alertas = append(res.Alertas, AlertaFiscal{
			Nivel:      AlertaBloqueado,
			Porcentaje: pct,
			Mensaje:    "Techo anual del régimen alcanzado: no se pueden registrar más ingresos bajo " + reg.Nombre,
		})
	case pct.GreaterThanOrEqual(decimal.NewFromInt(90)):
		res.Alertas = append(res.Alertas, AlertaFiscal{
			Nivel:      AlertaCritico,
			Porcentaje: pct,
			Mensaje:    "Ingresos al " + pct.StringFixed(2) + "% del techo del régimen",
		})
	case pct.GreaterThanOrEqual(decimal.NewFromInt(80)):
		res.Alertas = append(res.Alertas, AlertaFiscal{
			Nivel:      AlertaAdvertencia,
			Porcentaje: pct,
			Mensaje:    "Ingresos al " + pct.StringFixed(2) + "% del techo del régimen",
		})
	}
	return res
}

// AnioFiscalActual devuelve el año fiscal vigente (año calendario UTC).
func AnioFiscalActual() int { return time.Now().UTC().Year() }
