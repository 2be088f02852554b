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

type ReembolsosHandler struct{ svc service.ReembolsoService }

func NewReembolsosHandler(svc service.ReembolsoService) *ReembolsosHandler {
	return &ReembolsosHandler{svc: svc}
}

// writeRechazo serializa un rechazo de precondición con su código estable.
// Los clientes mapean por codigo, nunca por mensaje.
func writeRechazo(c *gin.Context, r *service.RechazoReembolso) {
	status := http.StatusConflict
	switch r.Codigo {
	case service.RechazoVentaNoEncontrada, service.RechazoItemFueraDeVenta:
		status = http.StatusNotFound
	case service.RechazoVentanaVencida, service.RechazoMaximoAlcanzado:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, dto.RechazoResponse{Codigo: r.Codigo, Mensaje: r.Mensaje})
}

// Solicitar godoc
// @Summary      Solicitar un reembolso
// @Description  Registra la solicitud si pasa las precondiciones: venta pagada del solicitante, ítem en la venta, dentro de la ventana de 7 días, sin otro reembolso activo, bajo el tope por producto y con la ganancia del instructor aún no pagada.
// @Tags         reembolsos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SolicitarReembolsoRequest true "Solicitud"
// @Success      201 {object} dto.ReembolsoResponse
// @Failure      404 {object} dto.RechazoResponse
// @Failure      409 {object} dto.RechazoResponse
// @Failure      422 {object} dto.RechazoResponse
// @Router       /v1/reembolsos [post]
func (h *ReembolsosHandler) Solicitar(c *gin.Context) {
	var req dto.SolicitarReembolsoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.SolicitarReembolso(c.Request.Context(), usuarioID, req)
	if err != nil {
		var rechazo *service.RechazoReembolso
		if errors.As(err, &rechazo) {
			writeRechazo(c, rechazo)
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Revisar godoc
// @Summary      Aprobar o rechazar un reembolso
// @Description  Aprueba (acredita billetera, revierte la ganancia y elimina la inscripción más reciente, todo atómico) o rechaza con motivo. Si la ganancia ya se pagó al instructor, la aprobación se bloquea y el reembolso queda rechazado.
// @Tags         reembolsos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "UUID del reembolso"
// @Param        body body dto.RevisarReembolsoRequest true "Veredicto"
// @Success      200 {object} dto.ReembolsoResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} dto.RechazoResponse
// @Router       /v1/reembolsos/{id}/revisar [post]
func (h *ReembolsosHandler) Revisar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.RevisarReembolsoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	revisorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RevisarReembolso(c.Request.Context(), revisorID, id, req)
	if err != nil {
		var rechazo *service.RechazoReembolso
		if errors.As(err, &rechazo) {
			writeRechazo(c, rechazo)
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Detalle de un reembolso
// @Tags         reembolsos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del reembolso"
// @Success      200 {object} dto.ReembolsoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/reembolsos/{id} [get]
func (h *ReembolsosHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetReembolso(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Reembolso no encontrado"))
		return
	}
	claims := middleware.GetClaims(c)
	if claims.Rol == "estudiante" && resp.UsuarioID != claims.UserID {
		c.JSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPropios godoc
// @Summary      Listar los reembolsos del usuario autenticado
// @Tags         reembolsos
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ReembolsoResponse
// @Router       /v1/reembolsos [get]
func (h *ReembolsosHandler) ListarPropios(c *gin.Context) {
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.ListByUsuario(c.Request.Context(), usuarioID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar reembolsos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPendientes godoc
// @Summary      Cola de reembolsos pendientes de revisión
// @Tags         reembolsos
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Máximo de registros (default 50)"
// @Success      200 {array} dto.ReembolsoResponse
// @Router       /v1/reembolsos/pendientes [get]
func (h *ReembolsosHandler) ListarPendientes(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}
	resp, err := h.svc.ListPendientes(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar reembolsos pendientes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
