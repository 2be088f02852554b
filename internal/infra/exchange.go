package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ExchangeResponse es la respuesta del proveedor de tasas de cambio.
// Las tasas se expresan contra base USD.
type ExchangeResponse struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

// tasasFallback es la tabla estática de respaldo cuando el proveedor de tasas
// no responde. Desactualizada a propósito es preferible a bloquear un payout:
// el cálculo de liquidaciones nunca falla por tasas.
var tasasFallback = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"MXN": decimal.RequireFromString("18.50"),
	"COP": decimal.RequireFromString("4100.00"),
	"EUR": decimal.RequireFromString("0.92"),
	"ARS": decimal.RequireFromString("1050.00"),
	"PEN": decimal.RequireFromString("3.75"),
}

// TasasFallback devuelve una copia de la tabla estática de respaldo.
func TasasFallback() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(tasasFallback))
	for k, v := range tasasFallback {
		out[k] = v
	}
	return out
}

// ExchangeClient consulta el proveedor externo de tasas de cambio.
// Las llamadas pasan por el circuit breaker del composition root para no
// martillar un proveedor caído; quien llama decide el fallback.
type ExchangeClient struct {
	apiURL     string
	httpClient *http.Client
}

func NewExchangeClient(apiURL string) *ExchangeClient {
	return &ExchangeClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ObtenerTasas devuelve las tasas vigentes contra base USD.
func (c *ExchangeClient) ObtenerTasas(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange: proveedor inaccesible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange: proveedor respondió %d", resp.StatusCode)
	}

	var parsed ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("exchange: decode response: %w", err)
	}

	rates := make(map[string]decimal.Decimal, len(parsed.Rates))
	for code, rate := range parsed.Rates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	if _, ok := rates["USD"]; !ok {
		rates["USD"] = decimal.NewFromInt(1)
	}
	return rates, nil
}

// ObtenerTasasConFallback intenta la API a través del circuit breaker y cae a
// la tabla estática ante cualquier fallo. Nunca devuelve error.
func (c *ExchangeClient) ObtenerTasasConFallback(ctx context.Context, cb *CircuitBreaker) map[string]decimal.Decimal {
	var rates map[string]decimal.Decimal
	err := cb.Execute(func() error {
		r, err := c.ObtenerTasas(ctx)
		if err != nil {
			return err
		}
		rates = r
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("exchange: usando tabla de tasas de respaldo")
		return TasasFallback()
	}
	return rates
}
