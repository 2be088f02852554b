package service

// payout_service.go — agregador de payouts.
// Pipeline fijo de siete pasos: USD → moneda fiscal → comisión → IVA
// desglosado → ISR (acumulado pre-venta) → neto → moneda de payout → fee del
// método. El desglose devuelve TODOS los campos aunque valgan cero: el
// tooling de conciliación los lee posicionalmente.

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

// DesglosePayout es el resultado completo de un cálculo de liquidación.
type DesglosePayout struct {
	MontoVentaUSD decimal.Decimal `json:"monto_venta_usd"`
	MontoFiscal   decimal.Decimal `json:"monto_fiscal"`
	MonedaFiscal  string          `json:"moneda_fiscal"`
	TasaComision  decimal.Decimal `json:"tasa_comision"`
	ComisionMonto decimal.Decimal `json:"comision_monto"`
	IVA           DesgloseIVA     `json:"iva"`
	ISR           ResultadoISR    `json:"isr"`
	Neto          decimal.Decimal `json:"neto"`
	MonedaPago    string          `json:"moneda_pago"`
	FeeMetodoPago FeePago         `json:"fee_metodo_pago"`
	MontoFinal    decimal.Decimal `json:"monto_final"`
	// TasasUsadas deja constancia de las tasas de cambio aplicadas (auditoría).
	TasasUsadas map[string]decimal.Decimal `json:"tasas_usadas"`
}

// ParamsPayout son las entradas del cálculo.
type ParamsPayout struct {
	MontoVentaUSD decimal.Decimal
	TasaComision  decimal.Decimal
	Perfil        *model.PerfilFiscal
	// Tasas contra base USD; nil obliga a consultarlas con fallback.
	Tasas map[string]decimal.Decimal
}

type PayoutService interface {
	CalcularPayout(ctx context.Context, params ParamsPayout) DesglosePayout
	// DesgloseParaInstructor calcula el payout de las ganancias disponibles
	// del instructor sin persistir nada.
	DesgloseParaInstructor(ctx context.Context, instructorID uuid.UUID) (*DesglosePayout, error)
	ValidarLimites(ctx context.Context, instructorID uuid.UUID, ingreso decimal.Decimal) (*ResultadoLimites, error)
}

type payoutService struct {
	perfilRepo   repository.PerfilFiscalRepository
	gananciaRepo repository.GananciaRepository
	exchange     *infra.ExchangeClient
	breaker      *infra.CircuitBreaker
}

func NewPayoutService(
	perfilRepo repository.PerfilFiscalRepository,
	gananciaRepo repository.GananciaRepository,
	exchange *infra.ExchangeClient,
	breaker *infra.CircuitBreaker,
) PayoutService {
	return &payoutService{
		perfilRepo:   perfilRepo,
		gananciaRepo: gananciaRepo,
		exchange:     exchange,
		breaker:      breaker,
	}
}

// convertir pasa un monto entre monedas con tasas base USD. Identidad cuando
// de == a; moneda sin tasa conocida se trata como USD (tasa 1).
func convertir(monto decimal.Decimal, de, a string, tasas map[string]decimal.Decimal) decimal.Decimal {
	if de == a {
		return monto
	}
	tasaDe, ok := tasas[de]
	if !ok || tasaDe.IsZero() {
		tasaDe = decimal.NewFromInt(1)
	}
	tasaA, ok := tasas[a]
	if !ok || tasaA.IsZero() {
		tasaA = decimal.NewFromInt(1)
	}
	// vía USD: monto/tasa(de) × tasa(a)
	return monto.Div(tasaDe).Mul(tasaA).Round(2)
}

// CalcularPayout ejecuta el pipeline. Nunca falla: sin tasas vivas usa la
// tabla estática, sin perfil aplica el genérico INTL.
func (s *payoutService) CalcularPayout(ctx context.Context, params ParamsPayout) DesglosePayout {
	perfil := params.Perfil
	if perfil == nil {
		perfil = &model.PerfilFiscal{Pais: "INTL", Regimen: "GENERICO", MonedaPago: "USD", MetodoPago: PayoutPaypal}
	}
	tasas := params.Tasas
	if tasas == nil {
		tasas = s.exchange.ObtenerTasasConFallback(ctx, s.breaker)
	}

	cfg := ObtenerConfigPais(perfil.Pais)

	// 1. USD → moneda fiscal
	montoFiscal := convertir(params.MontoVentaUSD, "USD", cfg.MonedaFiscal, tasas)

	// 2. Comisión de plataforma. Tasa cero es válida: significa que el monto
	// de entrada ya viene neto de comisión (agregado de ganancias).
	comision := montoFiscal.Mul(params.TasaComision).Round(2)
	restante := montoFiscal.Sub(comision)

	// 3. IVA: el restante lo incluye; se separa la base antes de desglosar.
	subtotal := restante
	var iva DesgloseIVA
	if !cfg.TasaIVA.IsZero() {
		subtotal = restante.Div(uno.Add(cfg.TasaIVA)).Round(2)
		iva = CalcularIVA(perfil.Pais, perfil.Regimen, subtotal)
	}

	// 4. ISR sobre la base, con el acumulado PREVIO a esta venta.
	isr := CalcularISR(perfil.Pais, perfil.Regimen, perfil.IngresoAcumulado, subtotal)

	// 5. Neto en moneda fiscal
	neto := subtotal.Add(iva.Trasladado).Sub(isr.Monto).Round(2)

	// 6. Moneda fiscal → moneda de payout
	netoPago := convertir(neto, cfg.MonedaFiscal, perfil.MonedaPago, tasas)

	// 7. Fee del método de payout. Un payout sin neto no paga fee: el
	// componente fijo del método dejaría el final en negativo.
	var fee FeePago
	final := netoPago
	if netoPago.IsPositive() {
		fee = CalcularFeePago(netoPago, perfil.MetodoPago)
		final = netoPago.Sub(fee.Monto).Round(2)
	}

	return DesglosePayout{
		MontoVentaUSD: params.MontoVentaUSD,
		MontoFiscal:   montoFiscal,
		MonedaFiscal:  cfg.MonedaFiscal,
		TasaComision:  params.TasaComision,
		ComisionMonto: comision,
		IVA:           iva,
		ISR:           isr,
		Neto:          neto,
		MonedaPago:    perfil.MonedaPago,
		FeeMetodoPago: fee,
		MontoFinal:    final,
		TasasUsadas:   tasas,
	}
}

func (s *payoutService) DesgloseParaInstructor(ctx context.Context, instructorID uuid.UUID) (*DesglosePayout, error) {
	disponible, err := s.gananciaRepo.SumDisponibles(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	perfil, err := s.perfilRepo.FindByInstructor(ctx, instructorID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	desglose := s.CalcularPayout(ctx, ParamsPayout{
		MontoVentaUSD: disponible,
		TasaComision:  decimal.Zero,
		Perfil:        perfil,
	})
	return &desglose, nil
}

func (s *payoutService) ValidarLimites(ctx context.Context, instructorID uuid.UUID, ingreso decimal.Decimal) (*ResultadoLimites, error) {
	perfil, err := s.perfilRepo.FindByInstructor(ctx, instructorID)
	if err != nil {
		res := ResultadoLimites{PuedeContinuar: true, Porcentaje: decimal.Zero}
		return &res, nil
	}
	res := ValidarLimitesFiscales(perfil.Pais, perfil.Regimen, perfil.IngresoAcumulado, ingreso)
	return &res, nil
}
