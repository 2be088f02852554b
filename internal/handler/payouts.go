package handler

import (
	"errors"
	"net/http"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/apierror"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/middleware"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutsHandler struct {
	payoutSvc     service.PayoutService
	instructorSvc service.InstructorService
}

func NewPayoutsHandler(payoutSvc service.PayoutService, instructorSvc service.InstructorService) *PayoutsHandler {
	return &PayoutsHandler{payoutSvc: payoutSvc, instructorSvc: instructorSvc}
}

func desgloseToResponse(d *service.DesglosePayout) dto.DesglosePayoutResponse {
	return dto.DesglosePayoutResponse{
		MontoVentaUSD: d.MontoVentaUSD,
		MontoFiscal:   d.MontoFiscal,
		MonedaFiscal:  d.MonedaFiscal,
		ComisionMonto: d.ComisionMonto,
		IVAMonto:      d.IVA.IVA,
		IVARetenido:   d.IVA.Retenido,
		IVATrasladado: d.IVA.Trasladado,
		ISRTasa:       d.ISR.Tasa,
		ISRMonto:      d.ISR.Monto,
		Neto:          d.Neto,
		MonedaPago:    d.MonedaPago,
		FeeMetodoPago: d.FeeMetodoPago.Monto,
		MontoFinal:    d.MontoFinal,
	}
}

// Desglose godoc
// @Summary      Desglose del payout disponible
// @Description  Calcula, sin persistir nada, la liquidación que recibiría el instructor por sus ganancias disponibles: conversión, IVA desglosado, ISR por tramo y fee del método de pago.
// @Tags         payouts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.DesglosePayoutResponse
// @Failure      500 {object} apierror.APIError
// @Router       /v1/payouts/desglose [get]
func (h *PayoutsHandler) Desglose(c *gin.Context) {
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	d, err := h.payoutSvc.DesgloseParaInstructor(c.Request.Context(), instructorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al calcular el desglose"))
		return
	}
	c.JSON(http.StatusOK, desgloseToResponse(d))
}

// LimitesFiscales godoc
// @Summary      Consumo del techo de ingreso del régimen
// @Description  Evalúa el acumulado anual más un ingreso hipotético contra el techo del régimen fiscal. Alerta al 80% y 90%, bloquea al 100%.
// @Tags         payouts
// @Produce      json
// @Security     BearerAuth
// @Param        ingreso query string false "Ingreso hipotético a sumar (default 0)"
// @Success      200 {object} dto.LimitesFiscalesResponse
// @Router       /v1/payouts/limites-fiscales [get]
func (h *PayoutsHandler) LimitesFiscales(c *gin.Context) {
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	ingreso := decimal.Zero
	if v := c.Query("ingreso"); v != "" {
		parsed, err := decimal.NewFromString(v)
		if err != nil || parsed.IsNegative() {
			c.JSON(http.StatusBadRequest, apierror.New("ingreso invalido"))
			return
		}
		ingreso = parsed
	}

	res, err := h.payoutSvc.ValidarLimites(c.Request.Context(), instructorID, ingreso)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al validar limites"))
		return
	}
	resp := dto.LimitesFiscalesResponse{
		PuedeContinuar: res.PuedeContinuar,
		Porcentaje:     res.Porcentaje,
	}
	for _, a := range res.Alertas {
		resp.Alertas = append(resp.Alertas, dto.AlertaFiscalDTO{
			Nivel:      a.Nivel,
			Porcentaje: a.Porcentaje,
			Mensaje:    a.Mensaje,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetPerfilFiscal godoc
// @Summary      Perfil fiscal del instructor
// @Tags         payouts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.PerfilFiscalResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/payouts/perfil-fiscal [get]
func (h *PayoutsHandler) GetPerfilFiscal(c *gin.Context) {
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	perfil, err := h.instructorSvc.GetPerfil(c.Request.Context(), instructorID)
	if err != nil {
		if errors.Is(err, service.ErrPerfilNoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consultar el perfil"))
		return
	}
	c.JSON(http.StatusOK, perfil)
}

// GuardarPerfilFiscal godoc
// @Summary      Crear o actualizar el perfil fiscal
// @Description  El acumulado anual de ingresos no es editable; lo actualiza la corrida de payouts.
// @Tags         payouts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.PerfilFiscalRequest true "Perfil fiscal"
// @Success      200 {object} dto.PerfilFiscalResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/payouts/perfil-fiscal [put]
func (h *PayoutsHandler) GuardarPerfilFiscal(c *gin.Context) {
	var req dto.PerfilFiscalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	perfil, err := h.instructorSvc.GuardarPerfil(c.Request.Context(), instructorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, perfil)
}

// ListarLiquidaciones godoc
// @Summary      Historial de liquidaciones del instructor
// @Tags         payouts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LiquidacionResponse
// @Router       /v1/payouts/liquidaciones [get]
func (h *PayoutsHandler) ListarLiquidaciones(c *gin.Context) {
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	liqs, err := h.instructorSvc.ListLiquidaciones(c.Request.Context(), instructorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar liquidaciones"))
		return
	}
	c.JSON(http.StatusOK, liqs)
}
