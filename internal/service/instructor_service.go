package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

var ErrPerfilNoEncontrado = errors.New("perfil fiscal no encontrado")

// InstructorService administra el perfil fiscal del instructor y expone su
// historial de liquidaciones.
type InstructorService interface {
	GetPerfil(ctx context.Context, instructorID uuid.UUID) (*dto.PerfilFiscalResponse, error)
	GuardarPerfil(ctx context.Context, instructorID uuid.UUID, req dto.PerfilFiscalRequest) (*dto.PerfilFiscalResponse, error)
	ListLiquidaciones(ctx context.Context, instructorID uuid.UUID) ([]dto.LiquidacionResponse, error)
}

type instructorService struct {
	perfilRepo      repository.PerfilFiscalRepository
	liquidacionRepo repository.LiquidacionRepository
}

func NewInstructorService(perfilRepo repository.PerfilFiscalRepository, liquidacionRepo repository.LiquidacionRepository) InstructorService {
	return &instructorService{perfilRepo: perfilRepo, liquidacionRepo: liquidacionRepo}
}

func (s *instructorService) GetPerfil(ctx context.Context, instructorID uuid.UUID) (*dto.PerfilFiscalResponse, error) {
	perfil, err := s.perfilRepo.FindByInstructor(ctx, instructorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPerfilNoEncontrado
		}
		return nil, err
	}
	return perfilToResponse(perfil), nil
}

// GuardarPerfil crea o actualiza el perfil. El acumulado anual y el año
// fiscal NUNCA se tocan desde aquí; los mantiene el worker de payouts.
func (s *instructorService) GuardarPerfil(ctx context.Context, instructorID uuid.UUID, req dto.PerfilFiscalRequest) (*dto.PerfilFiscalResponse, error) {
	perfil := &model.PerfilFiscal{
		InstructorID: instructorID,
		Pais:         req.Pais,
		Regimen:      req.Regimen,
		MonedaPago:   req.MonedaPago,
		MetodoPago:   req.MetodoPago,
		AnioFiscal:   AnioFiscalActual(),
	}
	if err := s.perfilRepo.Upsert(ctx, perfil); err != nil {
		return nil, err
	}
	actualizado, err := s.perfilRepo.FindByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	return perfilToResponse(actualizado), nil
}

func (s *instructorService) ListLiquidaciones(ctx context.Context, instructorID uuid.UUID) ([]dto.LiquidacionResponse, error) {
	liqs, err := s.liquidacionRepo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LiquidacionResponse, 0, len(liqs))
	for i := range liqs {
		out = append(out, liquidacionToResponse(&liqs[i]))
	}
	return out, nil
}

func perfilToResponse(p *model.PerfilFiscal) *dto.PerfilFiscalResponse {
	return &dto.PerfilFiscalResponse{
		InstructorID:     p.InstructorID.String(),
		Pais:             p.Pais,
		Regimen:          p.Regimen,
		MonedaPago:       p.MonedaPago,
		MetodoPago:       p.MetodoPago,
		IngresoAcumulado: p.IngresoAcumulado,
		AnioFiscal:       p.AnioFiscal,
	}
}

func liquidacionToResponse(l *model.Liquidacion) dto.LiquidacionResponse {
	return dto.LiquidacionResponse{
		ID:           l.ID.String(),
		InstructorID: l.InstructorID.String(),
		Desglose: dto.DesglosePayoutResponse{
			MontoVentaUSD: l.MontoVentaUSD,
			MontoFiscal:   l.MontoFiscal,
			MonedaFiscal:  l.MonedaFiscal,
			ComisionMonto: l.ComisionMonto,
			IVAMonto:      l.IVAMonto,
			IVARetenido:   l.IVARetenido,
			IVATrasladado: l.IVATrasladado,
			ISRTasa:       l.ISRTasa,
			ISRMonto:      l.ISRMonto,
			Neto:          l.Neto,
			MonedaPago:    l.MonedaPago,
			FeeMetodoPago: l.FeeMetodoPago,
			MontoFinal:    l.MontoFinal,
		},
		Estado:    l.Estado,
		PDFPath:   l.PDFPath,
		CreatedAt: l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
