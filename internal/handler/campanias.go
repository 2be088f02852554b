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

type CampaniasHandler struct {
	campaniaSvc service.CampaniaService
	cuponSvc    service.CuponService
}

func NewCampaniasHandler(campaniaSvc service.CampaniaService, cuponSvc service.CuponService) *CampaniasHandler {
	return &CampaniasHandler{campaniaSvc: campaniaSvc, cuponSvc: cuponSvc}
}

// Crear godoc
// @Summary      Crear campaña de descuento
// @Description  Rechaza ventanas invertidas y solapes con otra campaña del mismo tipo sobre el mismo segmento.
// @Tags         campanias
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCampaniaRequest true "Campaña"
// @Success      201 {object} dto.CampaniaResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/campanias [post]
func (h *CampaniasHandler) Crear(c *gin.Context) {
	var req dto.CrearCampaniaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.campaniaSvc.CrearCampania(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCampaniaSolapada):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case errors.Is(err, service.ErrVentanaInvalida):
			c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar todas las campañas
// @Tags         campanias
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.CampaniaResponse
// @Router       /v1/campanias [get]
func (h *CampaniasHandler) Listar(c *gin.Context) {
	resp, err := h.campaniaSvc.ListCampanias(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar campañas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarVigentes godoc
// @Summary      Campañas vigentes (público)
// @Tags         campanias
// @Produce      json
// @Success      200 {array} dto.CampaniaResponse
// @Router       /v1/campanias/vigentes [get]
func (h *CampaniasHandler) ListarVigentes(c *gin.Context) {
	resp, err := h.campaniaSvc.ListVigentes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar campañas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar campaña
// @Tags         campanias
// @Security     BearerAuth
// @Param        id path string true "UUID de la campaña"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/campanias/{id} [delete]
func (h *CampaniasHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.campaniaSvc.EliminarCampania(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Campaña no encontrada"))
		return
	}
	c.Status(http.StatusNoContent)
}

// ─── Cupones ─────────────────────────────────────────────────────────────────

// CrearCupon godoc
// @Summary      Crear cupón de descuento o de referido
// @Description  Descuento cero crea un cupón de referido: en la venta baja la tasa de comisión de la plataforma sobre los productos cubiertos.
// @Tags         campanias
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCuponRequest true "Cupón"
// @Success      201 {object} dto.CuponResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cupones [post]
func (h *CampaniasHandler) CrearCupon(c *gin.Context) {
	var req dto.CrearCuponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.cuponSvc.CrearCupon(c.Request.Context(), instructorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetCupon godoc
// @Summary      Consultar cupón por código
// @Tags         campanias
// @Produce      json
// @Security     BearerAuth
// @Param        codigo path string true "Código del cupón"
// @Success      200 {object} dto.CuponResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cupones/{codigo} [get]
func (h *CampaniasHandler) GetCupon(c *gin.Context) {
	resp, err := h.cuponSvc.GetCupon(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Cupón no encontrado"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DesactivarCupon godoc
// @Summary      Desactivar cupón propio
// @Tags         campanias
// @Security     BearerAuth
// @Param        codigo path string true "Código del cupón"
// @Success      204
// @Failure      403 {object} apierror.APIError
// @Router       /v1/cupones/{codigo} [delete]
func (h *CampaniasHandler) DesactivarCupon(c *gin.Context) {
	claims := middleware.GetClaims(c)
	instructorID, _ := uuid.Parse(claims.UserID)

	if err := h.cuponSvc.DesactivarCupon(c.Request.Context(), instructorID, c.Param("codigo")); err != nil {
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
