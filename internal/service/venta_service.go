package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

type VentaService interface {
	CrearVenta(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	// MarcarPagada confirma el pago de una venta (webhook del procesador o
	// acción de un administrador) y genera los asientos de ganancia.
	MarcarPagada(ctx context.Context, ventaID uuid.UUID) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID, motivo string) error
	GetVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo            repository.VentaRepository
	gananciaRepo    repository.GananciaRepository
	inscripcionRepo repository.InscripcionRepository
	cuponRepo       repository.CuponRepository
	tasaDefault     decimal.Decimal
	tasaReferido    decimal.Decimal
}

func NewVentaService(
	repo repository.VentaRepository,
	gananciaRepo repository.GananciaRepository,
	inscripcionRepo repository.InscripcionRepository,
	cuponRepo repository.CuponRepository,
	comisionDefault, comisionReferido float64,
) VentaService {
	return &ventaService{
		repo:            repo,
		gananciaRepo:    gananciaRepo,
		inscripcionRepo: inscripcionRepo,
		cuponRepo:       cuponRepo,
		tasaDefault:     decimal.NewFromFloat(comisionDefault),
		tasaReferido:    decimal.NewFromFloat(comisionReferido),
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

var (
	ErrVentaNoEncontrada = errors.New("venta no encontrada")
	ErrVentaNoPendiente  = errors.New("la venta no está pendiente de pago")
	ErrVentaYaAnulada    = errors.New("la venta ya está anulada")
	ErrVentaPagada       = errors.New("la venta tiene ganancias liquidadas; corresponde un reembolso")
)

// ── CrearVenta ────────────────────────────────────────────────────────────────

func (s *ventaService) CrearVenta(ctx context.Context, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	moneda := req.Moneda
	if moneda == "" {
		moneda = "USD"
	}

	total := decimal.Zero
	items := make([]model.VentaItem, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		iid, err := uuid.Parse(it.InstructorID)
		if err != nil {
			return nil, fmt.Errorf("instructor_id inválido: %w", err)
		}
		total = total.Add(it.PrecioUnitario)
		items = append(items, model.VentaItem{
			ProductoID:     pid,
			ProductoTipo:   it.ProductoTipo,
			Titulo:         it.Titulo,
			PrecioUnitario: it.PrecioUnitario,
			InstructorID:   iid,
		})
	}

	// El cupón se valida al crear pero se aplica (tasa de referido) al pagar.
	if req.CuponCodigo != nil {
		cupon, err := s.cuponRepo.FindByCodigo(ctx, *req.CuponCodigo)
		if err != nil {
			return nil, errors.New("cupón no encontrado")
		}
		if !cupon.Vigente(time.Now()) {
			return nil, errors.New("cupón vencido o inactivo")
		}
	}

	venta := model.Venta{
		UsuarioID:   usuarioID,
		Total:       total.Round(2),
		Moneda:      moneda,
		EstadoPago:  "Pendiente",
		MetodoPago:  req.MetodoPago,
		CuponCodigo: req.CuponCodigo,
		Items:       items,
	}
	if err := s.repo.Create(ctx, &venta); err != nil {
		return nil, err
	}
	return ventaToResponse(&venta), nil
}

// ── MarcarPagada ──────────────────────────────────────────────────────────────
// Transición Pendiente → Pagado. En la MISMA transacción:
//  1. actualizar estado de la venta
//  2. crear una GananciaInstructor por línea (split fee/comisión/ganancia)
//  3. inscribir al comprador en cada curso
//
// El índice único (venta_id, producto_id) de ganancias hace la operación
// idempotente frente a webhooks duplicados: el segundo intento falla el insert
// y la transacción completa se revierte sin efectos.

func (s *ventaService) MarcarPagada(ctx context.Context, ventaID uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, ventaID)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	switch venta.EstadoPago {
	case "Pagado":
		// Webhook repetido sobre una venta ya confirmada: respuesta idéntica,
		// cero efectos.
		return ventaToResponse(venta), nil
	case "Anulado":
		return nil, ErrVentaYaAnulada
	}

	// Resolver cupón fuera de la transacción (solo lectura).
	var cupon *model.Cupon
	if venta.CuponCodigo != nil {
		if c, err := s.cuponRepo.FindByCodigo(ctx, *venta.CuponCodigo); err == nil {
			cupon = c
		}
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateEstadoTx(tx, ventaID, "Pagado"); err != nil {
			return err
		}

		for i := range venta.Items {
			item := &venta.Items[i]
			tasa, esReferido := TasaParaItem(cupon, item, s.tasaDefault, s.tasaReferido)
			split := CalcularSplit(item.PrecioUnitario, venta.MetodoPago, tasa)

			g := &model.GananciaInstructor{
				InstructorID:  item.InstructorID,
				VentaID:       venta.ID,
				ProductoID:    item.ProductoID,
				ProductoTipo:  item.ProductoTipo,
				Bruto:         item.PrecioUnitario,
				FeeProcesador: split.Fee,
				VentaNeta:     split.VentaNeta,
				TasaComision:  tasa,
				ComisionMonto: split.ComisionPlataforma,
				GananciaNeta:  split.GananciaInstructor,
				EsReferido:    esReferido,
				Estado:        model.GananciaPendiente,
			}
			if err := s.gananciaRepo.CreateTx(tx, g); err != nil {
				return err
			}

			if item.ProductoTipo == "curso" {
				ventaRef := venta.ID
				ins := &model.Inscripcion{
					UsuarioID: venta.UsuarioID,
					CursoID:   item.ProductoID,
					VentaID:   &ventaRef,
				}
				if err := s.inscripcionRepo.CreateTx(tx, ins); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			// Carrera entre dos webhooks: otro proceso ya generó las ganancias.
			fresh, err := s.repo.FindByID(ctx, ventaID)
			if err != nil {
				return nil, err
			}
			return ventaToResponse(fresh), nil
		}
		return nil, txErr
	}

	venta.EstadoPago = "Pagado"
	return ventaToResponse(venta), nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Pendiente → Anulado es un cambio de estado simple. Pagado → Anulado solo
// procede mientras NINGUNA ganancia de la venta fue liquidada: en ese caso la
// misma transacción borra los asientos pendientes y las inscripciones de la
// venta. Con una ganancia en pagado/completado el dinero ya salió y el camino
// es el reembolso.

func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID, motivo string) error {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrVentaNoEncontrada
	}
	switch venta.EstadoPago {
	case "Anulado":
		return ErrVentaYaAnulada
	case "Pagado":
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			// Relectura con lock por línea: una liquidación concurrente no
			// puede colarse entre la guardia y la reversión.
			for i := range venta.Items {
				g, err := s.gananciaRepo.FindByVentaProductoTx(tx, venta.ID, venta.Items[i].ProductoID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						continue
					}
					return err
				}
				if g.Estado == model.GananciaPagada || g.Estado == model.GananciaCompletada {
					return ErrVentaPagada
				}
			}
			if err := s.gananciaRepo.EliminarPorVentaTx(tx, venta.ID); err != nil {
				return err
			}
			if _, err := s.inscripcionRepo.EliminarPorVentaTx(tx, venta.ID); err != nil {
				return err
			}
			return s.repo.UpdateEstadoTx(tx, venta.ID, "Anulado")
		})
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.UpdateEstadoTx(tx, id, "Anulado")
	})
}

func (s *ventaService) GetVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	return ventaToResponse(venta), nil
}

// ListVentas returns a paginated list of sales, filtered by date and estado.
func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = "Pagado"
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for _, v := range ventas {
		items = append(items, *ventaToResponse(&v))
	}
	return &dto.VentaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     item.ProductoID.String(),
			ProductoTipo:   item.ProductoTipo,
			Titulo:         item.Titulo,
			PrecioUnitario: item.PrecioUnitario,
			InstructorID:   item.InstructorID.String(),
		})
	}
	return &dto.VentaResponse{
		ID:          v.ID.String(),
		UsuarioID:   v.UsuarioID.String(),
		Total:       v.Total,
		Moneda:      v.Moneda,
		EstadoPago:  v.EstadoPago,
		MetodoPago:  v.MetodoPago,
		CuponCodigo: v.CuponCodigo,
		Items:       items,
		CreatedAt:   v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
