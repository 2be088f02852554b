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
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// CrearVenta godoc
// @Summary      Crear una venta
// @Description  Crea una venta en estado Pendiente con sus ítems. El pago se confirma después por webhook o por un administrador.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearVentaRequest true "Detalle de la venta"
// @Success      201  {object} dto.VentaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/ventas [post]
func (h *VentasHandler) CrearVenta(c *gin.Context) {
	var req dto.CrearVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.CrearVenta(c.Request.Context(), usuarioID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MarcarPagada godoc
// @Summary      Confirmar el pago de una venta
// @Description  Marca la venta como pagada, genera los asientos de ganancia por ítem y las inscripciones a cursos. Idempotente frente a webhooks duplicados.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {object} dto.VentaResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/ventas/{id}/pagar [post]
func (h *VentasHandler) MarcarPagada(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.MarcarPagada(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVentaNoEncontrada):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		case errors.Is(err, service.ErrVentaYaAnulada):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnularVenta godoc
// @Summary      Anular venta pendiente
// @Description  Anula una venta que aún no fue pagada. Una venta pagada se revierte por el flujo de reembolsos.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID de la venta"
// @Param        body body dto.AnularVentaRequest true "Motivo de anulación"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/ventas/{id} [delete]
func (h *VentasHandler) AnularVenta(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AnularVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.AnularVenta(c.Request.Context(), id, req.Motivo); err != nil {
		switch {
		case errors.Is(err, service.ErrVentaNoEncontrada):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		case errors.Is(err, service.ErrVentaPagada), errors.Is(err, service.ErrVentaYaAnulada):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// GetVenta godoc
// @Summary      Detalle de una venta
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {object} dto.VentaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id} [get]
func (h *VentasHandler) GetVenta(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetVenta(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Venta no encontrada"))
		return
	}
	// Un estudiante solo puede ver sus propias ventas.
	claims := middleware.GetClaims(c)
	if claims.Rol == "estudiante" && resp.UsuarioID != claims.UserID {
		c.JSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarVentas godoc
// @Summary      Listar ventas
// @Description  Lista paginada filtrada por fecha, estado y usuario.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        fecha     query string false "Fecha YYYY-MM-DD"
// @Param        estado    query string false "Pendiente | Pagado | Anulado | all"
// @Param        usuario_id query string false "UUID del comprador"
// @Param        page      query int    false "Página (default 1)"
// @Param        limit     query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.VentaListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/ventas [get]
func (h *VentasHandler) ListarVentas(c *gin.Context) {
	var filter dto.VentaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	// Un estudiante solo lista sus propias compras.
	claims := middleware.GetClaims(c)
	if claims.Rol == "estudiante" {
		filter.UsuarioID = claims.UserID
	}
	resp, err := h.svc.ListVentas(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar ventas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
