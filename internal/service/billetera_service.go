package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

type BilleteraService interface {
	GetBilletera(ctx context.Context, usuarioID uuid.UUID) (*dto.BilleteraResponse, error)
	ListMovimientos(ctx context.Context, usuarioID uuid.UUID, limit int) ([]dto.MovimientoBilleteraResponse, error)
	// AcreditarManual es el crédito administrativo; el resto de los créditos
	// los hace el flujo de reembolsos dentro de su propia transacción.
	AcreditarManual(ctx context.Context, usuarioID uuid.UUID, monto decimal.Decimal, descripcion string) (*dto.MovimientoBilleteraResponse, error)
}

type billeteraService struct {
	repo repository.BilleteraRepository
}

func NewBilleteraService(repo repository.BilleteraRepository) BilleteraService {
	return &billeteraService{repo: repo}
}

func (s *billeteraService) GetBilletera(ctx context.Context, usuarioID uuid.UUID) (*dto.BilleteraResponse, error) {
	b, err := s.repo.FindByUsuario(ctx, usuarioID)
	if err == gorm.ErrRecordNotFound {
		// Billetera inexistente = saldo cero; se crea al primer crédito.
		return &dto.BilleteraResponse{
			UsuarioID: usuarioID.String(),
			Saldo:     decimal.Zero,
			Moneda:    "USD",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.BilleteraResponse{
		UsuarioID: b.UsuarioID.String(),
		Saldo:     b.Saldo,
		Moneda:    b.Moneda,
	}, nil
}

func (s *billeteraService) ListMovimientos(ctx context.Context, usuarioID uuid.UUID, limit int) ([]dto.MovimientoBilleteraResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, usuarioID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoBilleteraResponse, 0, len(movs))
	for i := range movs {
		out = append(out, movimientoToResponse(&movs[i]))
	}
	return out, nil
}

func (s *billeteraService) AcreditarManual(ctx context.Context, usuarioID uuid.UUID, monto decimal.Decimal, descripcion string) (*dto.MovimientoBilleteraResponse, error) {
	var mov *model.MovimientoBilletera
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		m, err := s.repo.AcreditarTx(tx, usuarioID, monto, "USD", "credito_manual", descripcion, nil)
		if err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := movimientoToResponse(mov)
	return &resp, nil
}

func movimientoToResponse(m *model.MovimientoBilletera) dto.MovimientoBilleteraResponse {
	resp := dto.MovimientoBilleteraResponse{
		ID:             m.ID.String(),
		Tipo:           m.Tipo,
		Monto:          m.Monto,
		SaldoPosterior: m.SaldoPosterior,
		Descripcion:    m.Descripcion,
		CreatedAt:      m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.ReferenciaID != nil {
		ref := m.ReferenciaID.String()
		resp.ReferenciaID = &ref
	}
	return resp
}
