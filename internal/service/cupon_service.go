package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

type CuponService interface {
	CrearCupon(ctx context.Context, instructorID uuid.UUID, req dto.CrearCuponRequest) (*dto.CuponResponse, error)
	GetCupon(ctx context.Context, codigo string) (*dto.CuponResponse, error)
	DesactivarCupon(ctx context.Context, instructorID uuid.UUID, codigo string) error
}

type cuponService struct {
	repo repository.CuponRepository
}

func NewCuponService(repo repository.CuponRepository) CuponService {
	return &cuponService{repo: repo}
}

func (s *cuponService) CrearCupon(ctx context.Context, instructorID uuid.UUID, req dto.CrearCuponRequest) (*dto.CuponResponse, error) {
	productos := make([]model.CuponProducto, 0, len(req.ProductoIDs))
	for _, raw := range req.ProductoIDs {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		productos = append(productos, model.CuponProducto{ProductoID: pid})
	}

	var venceAt *time.Time
	if req.VenceAt != nil {
		t, err := time.Parse(time.RFC3339, *req.VenceAt)
		if err != nil {
			return nil, fmt.Errorf("vence_at inválido: %w", err)
		}
		venceAt = &t
	}

	c := &model.Cupon{
		Codigo:       req.Codigo,
		InstructorID: instructorID,
		ProductoTipo: req.ProductoTipo,
		Descuento:    req.Descuento,
		VenceAt:      venceAt,
		Activo:       true,
		Productos:    productos,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return cuponToResponse(c), nil
}

func (s *cuponService) GetCupon(ctx context.Context, codigo string) (*dto.CuponResponse, error) {
	c, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, errors.New("cupón no encontrado")
	}
	return cuponToResponse(c), nil
}

func (s *cuponService) DesactivarCupon(ctx context.Context, instructorID uuid.UUID, codigo string) error {
	c, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		return errors.New("cupón no encontrado")
	}
	if c.InstructorID != instructorID {
		return errors.New("el cupón pertenece a otro instructor")
	}
	return s.repo.Desactivar(ctx, codigo)
}

func cuponToResponse(c *model.Cupon) *dto.CuponResponse {
	ids := make([]string, 0, len(c.Productos))
	for _, cp := range c.Productos {
		ids = append(ids, cp.ProductoID.String())
	}
	resp := &dto.CuponResponse{
		ID:           c.ID.String(),
		Codigo:       c.Codigo,
		InstructorID: c.InstructorID.String(),
		ProductoTipo: c.ProductoTipo,
		Descuento:    c.Descuento,
		EsReferido:   c.EsReferido(),
		ProductoIDs:  ids,
		Activo:       c.Activo,
	}
	if c.VenceAt != nil {
		v := c.VenceAt.Format(time.RFC3339)
		resp.VenceAt = &v
	}
	return resp
}
