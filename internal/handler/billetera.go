package handler

import (
	"net/http"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/apierror"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/middleware"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BilleteraHandler struct{ svc service.BilleteraService }

func NewBilleteraHandler(svc service.BilleteraService) *BilleteraHandler {
	return &BilleteraHandler{svc: svc}
}

// Saldo godoc
// @Summary      Saldo de la billetera del usuario autenticado
// @Tags         billetera
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.BilleteraResponse
// @Router       /v1/billetera [get]
func (h *BilleteraHandler) Saldo(c *gin.Context) {
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.GetBilletera(c.Request.Context(), usuarioID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consultar la billetera"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos godoc
// @Summary      Movimientos de la billetera
// @Tags         billetera
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Máximo de registros (default 50, tope 100)"
// @Success      200 {array} dto.MovimientoBilleteraResponse
// @Router       /v1/billetera/movimientos [get]
func (h *BilleteraHandler) Movimientos(c *gin.Context) {
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}
	resp, err := h.svc.ListMovimientos(c.Request.Context(), usuarioID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar movimientos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

type acreditarRequest struct {
	UsuarioID   string          `json:"usuario_id"  validate:"required,uuid"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Descripcion string          `json:"descripcion" validate:"required,min=5,max=200"`
}

// AcreditarManual godoc
// @Summary      Crédito administrativo a una billetera
// @Description  Acredita saldo fuera del flujo de reembolsos. Solo administradores.
// @Tags         billetera
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body acreditarRequest true "Crédito"
// @Success      201 {object} dto.MovimientoBilleteraResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/billetera/acreditar [post]
func (h *BilleteraHandler) AcreditarManual(c *gin.Context) {
	var req acreditarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !req.Monto.IsPositive() {
		c.JSON(http.StatusBadRequest, apierror.New("el monto debe ser positivo"))
		return
	}
	usuarioID, err := uuid.Parse(req.UsuarioID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("usuario_id invalido"))
		return
	}
	resp, err := h.svc.AcreditarManual(c.Request.Context(), usuarioID, req.Monto, req.Descripcion)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}
