package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

var (
	ErrCampaniaSolapada = errors.New("ya existe una campaña del mismo tipo sobre el segmento en esa ventana")
	ErrVentanaInvalida  = errors.New("la fecha de término debe ser posterior a la de inicio")
)

type CampaniaService interface {
	CrearCampania(ctx context.Context, req dto.CrearCampaniaRequest) (*dto.CampaniaResponse, error)
	ListCampanias(ctx context.Context) ([]dto.CampaniaResponse, error)
	ListVigentes(ctx context.Context) ([]dto.CampaniaResponse, error)
	EliminarCampania(ctx context.Context, id uuid.UUID) error
	// PrecioConDescuento aplica el descuento de la campaña a un precio:
	// porcentaje o monto fijo, nunca por debajo de cero.
	PrecioConDescuento(c *model.Campania, precio decimal.Decimal) decimal.Decimal
}

type campaniaService struct {
	repo repository.CampaniaRepository
}

func NewCampaniaService(repo repository.CampaniaRepository) CampaniaService {
	return &campaniaService{repo: repo}
}

// CrearCampania valida la ventana y rechaza solapamientos: dos campañas del
// mismo tipo sobre el mismo segmento no pueden cruzarse en el tiempo.
func (s *campaniaService) CrearCampania(ctx context.Context, req dto.CrearCampaniaRequest) (*dto.CampaniaResponse, error) {
	inicia, err := time.Parse(time.RFC3339, req.IniciaAt)
	if err != nil {
		return nil, fmt.Errorf("inicia_at inválido: %w", err)
	}
	termina, err := time.Parse(time.RFC3339, req.TerminaAt)
	if err != nil {
		return nil, fmt.Errorf("termina_at inválido: %w", err)
	}
	if !termina.After(inicia) {
		return nil, ErrVentanaInvalida
	}
	segmentoID, err := uuid.Parse(req.SegmentoID)
	if err != nil {
		return nil, fmt.Errorf("segmento_id inválido: %w", err)
	}

	solapa, err := s.repo.ExisteSolape(ctx, req.TipoCampania, req.TipoSegmento, segmentoID, inicia, termina)
	if err != nil {
		return nil, err
	}
	if solapa {
		return nil, ErrCampaniaSolapada
	}

	c := &model.Campania{
		Nombre:        req.Nombre,
		TipoCampania:  req.TipoCampania,
		TipoSegmento:  req.TipoSegmento,
		SegmentoID:    segmentoID,
		TipoDescuento: req.TipoDescuento,
		Descuento:     req.Descuento,
		IniciaAt:      inicia,
		TerminaAt:     termina,
		Activo:        true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return campaniaToResponse(c), nil
}

func (s *campaniaService) ListCampanias(ctx context.Context) ([]dto.CampaniaResponse, error) {
	cs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CampaniaResponse, 0, len(cs))
	for i := range cs {
		out = append(out, *campaniaToResponse(&cs[i]))
	}
	return out, nil
}

func (s *campaniaService) ListVigentes(ctx context.Context) ([]dto.CampaniaResponse, error) {
	cs, err := s.repo.ListVigentes(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	out := make([]dto.CampaniaResponse, 0, len(cs))
	for i := range cs {
		out = append(out, *campaniaToResponse(&cs[i]))
	}
	return out, nil
}

func (s *campaniaService) EliminarCampania(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *campaniaService) PrecioConDescuento(c *model.Campania, precio decimal.Decimal) decimal.Decimal {
	var rebajado decimal.Decimal
	switch c.TipoDescuento {
	case "porcentaje":
		rebajado = precio.Sub(precio.Mul(c.Descuento).Div(dos100)).Round(2)
	case "fijo":
		rebajado = precio.Sub(c.Descuento).Round(2)
	default:
		return precio
	}
	if rebajado.IsNegative() {
		return decimal.Zero
	}
	return rebajado
}

func campaniaToResponse(c *model.Campania) *dto.CampaniaResponse {
	ahora := time.Now()
	return &dto.CampaniaResponse{
		ID:            c.ID.String(),
		Nombre:        c.Nombre,
		TipoCampania:  c.TipoCampania,
		TipoSegmento:  c.TipoSegmento,
		SegmentoID:    c.SegmentoID.String(),
		TipoDescuento: c.TipoDescuento,
		Descuento:     c.Descuento,
		IniciaAt:      c.IniciaAt.Format(time.RFC3339),
		TerminaAt:     c.TerminaAt.Format(time.RFC3339),
		Vigente:       c.Activo && !ahora.Before(c.IniciaAt) && !ahora.After(c.TerminaAt),
	}
}
