package service

// reembolso_service.go — máquina de estados de reembolsos.
// Solicitud: seis precondiciones en orden fijo, cada rechazo con un código
// estable que los clientes traducen. Aprobación: transacción única que marca
// la ganancia, acredita la billetera, completa el reembolso y revoca UNA
// inscripción; si cualquier paso falla se revierte todo.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

// Notificador encola avisos asíncronos al usuario. Lo satisface el
// Dispatcher del worker pool; en tests se sustituye por un stub.
type Notificador interface {
	EnqueueNotificacion(ctx context.Context, payload interface{}) error
}

const (
	// DiasLimiteReembolso es la ventana desde el pago de la venta dentro de la
	// cual se aceptan solicitudes.
	DiasLimiteReembolso = 7
	// MaxReembolsosPorProducto limita los reembolsos completados de un usuario
	// sobre un mismo producto.
	MaxReembolsosPorProducto = 2
)

// Códigos de rechazo estables — contrato con los clientes, no renombrar.
const (
	RechazoVentaNoEncontrada  = "sale_not_found"
	RechazoItemFueraDeVenta   = "item_not_in_sale"
	RechazoVentanaVencida     = "window_expired"
	RechazoYaActivo           = "refund_already_active"
	RechazoMaximoAlcanzado    = "max_refunds_reached"
	RechazoInstructorYaPagado = "instructor_already_paid"
)

// RechazoReembolso es un rechazo de precondición con código estable.
type RechazoReembolso struct {
	Codigo  string
	Mensaje string
}

func (r *RechazoReembolso) Error() string { return r.Codigo + ": " + r.Mensaje }

func rechazo(codigo, mensaje string) *RechazoReembolso {
	return &RechazoReembolso{Codigo: codigo, Mensaje: mensaje}
}

type ReembolsoService interface {
	SolicitarReembolso(ctx context.Context, usuarioID uuid.UUID, req dto.SolicitarReembolsoRequest) (*dto.ReembolsoResponse, error)
	RevisarReembolso(ctx context.Context, revisorID, reembolsoID uuid.UUID, req dto.RevisarReembolsoRequest) (*dto.ReembolsoResponse, error)
	GetReembolso(ctx context.Context, id uuid.UUID) (*dto.ReembolsoResponse, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]dto.ReembolsoResponse, error)
	ListPendientes(ctx context.Context, limit int) ([]dto.ReembolsoResponse, error)
}

type reembolsoService struct {
	repo            repository.ReembolsoRepository
	ventaRepo       repository.VentaRepository
	gananciaRepo    repository.GananciaRepository
	billeteraRepo   repository.BilleteraRepository
	inscripcionRepo repository.InscripcionRepository
	dispatcher      Notificador
}

func NewReembolsoService(
	repo repository.ReembolsoRepository,
	ventaRepo repository.VentaRepository,
	gananciaRepo repository.GananciaRepository,
	billeteraRepo repository.BilleteraRepository,
	inscripcionRepo repository.InscripcionRepository,
	dispatcher Notificador,
) ReembolsoService {
	return &reembolsoService{
		repo:            repo,
		ventaRepo:       ventaRepo,
		gananciaRepo:    gananciaRepo,
		billeteraRepo:   billeteraRepo,
		inscripcionRepo: inscripcionRepo,
		dispatcher:      dispatcher,
	}
}

// ── SolicitarReembolso ────────────────────────────────────────────────────────
// Precondiciones en orden; la primera que falla corta la evaluación:
//  1. la venta existe, es del usuario y está pagada
//  2. el ítem pertenece a la venta
//  3. la ventana de 7 días desde el pago sigue abierta
//  4. no hay otro reembolso activo para la terna (índice parcial único)
//  5. el usuario no agotó los 2 reembolsos completados del producto
//  6. la ganancia del instructor no está pagada ni completada
//
// La condición 4 se verifica dos veces: un pre-chequeo barato y el insert
// final, que es el árbitro real — dos solicitudes concurrentes que pasan el
// pre-chequeo se resuelven en el índice único.

func (s *reembolsoService) SolicitarReembolso(ctx context.Context, usuarioID uuid.UUID, req dto.SolicitarReembolsoRequest) (*dto.ReembolsoResponse, error) {
	ventaID, err := uuid.Parse(req.VentaID)
	if err != nil {
		return nil, rechazo(RechazoVentaNoEncontrada, "venta_id inválido")
	}
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, rechazo(RechazoItemFueraDeVenta, "producto_id inválido")
	}

	// 1. Venta pagada y del solicitante
	venta, err := s.ventaRepo.FindByID(ctx, ventaID)
	if err != nil || venta.UsuarioID != usuarioID || venta.EstadoPago != "Pagado" {
		return nil, rechazo(RechazoVentaNoEncontrada, "la venta no existe, no es tuya o no está pagada")
	}

	// 2. El ítem pertenece a la venta
	var item *model.VentaItem
	for i := range venta.Items {
		if venta.Items[i].ProductoID == productoID && venta.Items[i].ProductoTipo == req.ProductoTipo {
			item = &venta.Items[i]
			break
		}
	}
	if item == nil {
		return nil, rechazo(RechazoItemFueraDeVenta, "el producto no forma parte de la venta")
	}

	// 3. Ventana de reembolso
	limite := venta.CreatedAt.AddDate(0, 0, DiasLimiteReembolso)
	if time.Now().After(limite) {
		return nil, rechazo(RechazoVentanaVencida,
			fmt.Sprintf("la ventana de %d días venció el %s", DiasLimiteReembolso, limite.Format("2006-01-02")))
	}

	// 4. Pre-chequeo de reembolso activo. Resuelve el caso común con un
	// rechazo temprano; la carrera real la arbitra el insert final.
	activo, err := s.repo.ExisteActivo(ctx, ventaID, productoID, req.ProductoTipo)
	if err != nil {
		return nil, err
	}
	if activo {
		return nil, rechazo(RechazoYaActivo, "ya existe un reembolso activo para este producto")
	}

	// 5. Tope de reembolsos completados por producto
	completados, err := s.repo.CountCompletados(ctx, usuarioID, productoID)
	if err != nil {
		return nil, err
	}
	if completados >= MaxReembolsosPorProducto {
		return nil, rechazo(RechazoMaximoAlcanzado,
			fmt.Sprintf("máximo de %d reembolsos por producto alcanzado", MaxReembolsosPorProducto))
	}

	// 6. Ganancia del instructor todavía no pagada
	if g, err := s.gananciaRepo.FindByVentaProducto(ctx, ventaID, productoID); err == nil {
		if g.Estado == model.GananciaPagada || g.Estado == model.GananciaCompletada {
			return nil, rechazo(RechazoInstructorYaPagado, "la ganancia del instructor ya fue liquidada")
		}
	}

	rb := &model.Reembolso{
		VentaID:        ventaID,
		UsuarioID:      usuarioID,
		ProductoID:     productoID,
		ProductoTipo:   req.ProductoTipo,
		Titulo:         item.Titulo,
		PrecioUnitario: item.PrecioUnitario,
		MotivoUsuario:  req.Motivo,
		Estado:         model.ReembolsoPendiente,
	}
	// Re-chequeo de la condición 4: el índice parcial único resuelve la carrera.
	if err := s.repo.Create(ctx, rb); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, rechazo(RechazoYaActivo, "ya existe un reembolso activo para este producto")
		}
		return nil, err
	}

	log.Info().
		Str("reembolso_id", rb.ID.String()).
		Str("venta_id", ventaID.String()).
		Str("producto_id", productoID.String()).
		Msg("reembolso solicitado")

	return reembolsoToResponse(rb), nil
}

// ── RevisarReembolso ──────────────────────────────────────────────────────────
// Rechazo: solo marca estado + motivo. Aprobación, todo en UNA transacción:
//  1. releer la ganancia con lock (la liquidación pudo correr entre la
//     solicitud y la revisión) — si ya está pagada, el reembolso se rechaza
//  2. marcar la ganancia como reembolsada
//  3. acreditar la billetera del comprador; si el crédito falla, TODA la
//     aprobación se revierte
//  4. completar el reembolso
//  5. si es curso, borrar exactamente UNA inscripción (la más reciente)
// La notificación al usuario va fuera de la transacción, best-effort.

func (s *reembolsoService) RevisarReembolso(ctx context.Context, revisorID, reembolsoID uuid.UUID, req dto.RevisarReembolsoRequest) (*dto.ReembolsoResponse, error) {
	rb, err := s.repo.FindByID(ctx, reembolsoID)
	if err != nil {
		return nil, errors.New("reembolso no encontrado")
	}
	if rb.Estado != model.ReembolsoPendiente {
		return nil, fmt.Errorf("el reembolso ya fue revisado (estado %s)", rb.Estado)
	}

	ahora := time.Now()

	if !req.Aprobar {
		rb.Estado = model.ReembolsoRechazado
		rb.RevisorID = &revisorID
		rb.MotivoRevisor = &req.Motivo
		rb.RevisadoAt = &ahora
		if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.repo.UpdateTx(tx, rb)
		}); err != nil {
			return nil, err
		}
		s.notificar(ctx, rb)
		return reembolsoToResponse(rb), nil
	}

	var bloqueado *RechazoReembolso
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// 1. Lectura fresca con lock: el estado pudo cambiar desde la solicitud.
		g, err := s.gananciaRepo.FindByVentaProductoTx(tx, rb.VentaID, rb.ProductoID)
		if err != nil {
			return fmt.Errorf("ganancia de la línea no encontrada: %w", err)
		}
		if g.Estado == model.GananciaPagada || g.Estado == model.GananciaCompletada {
			bloqueado = rechazo(RechazoInstructorYaPagado, "la ganancia del instructor fue liquidada después de la solicitud")
			return errAbortarAprobacion
		}

		// 2. Ganancia fuera de toda liquidación futura
		if err := s.gananciaRepo.MarcarReembolsadaTx(tx, g.ID, rb.ID, ahora); err != nil {
			return err
		}

		// 3. Crédito a billetera — el fallo revierte la aprobación completa
		refID := rb.ID
		if _, err := s.billeteraRepo.AcreditarTx(tx, rb.UsuarioID, rb.PrecioUnitario, monedaVenta(rb),
			"credito_reembolso", "Reembolso de "+rb.Titulo, &refID); err != nil {
			return fmt.Errorf("acreditando billetera: %w", err)
		}

		// 4. Cierre del reembolso
		rb.Estado = model.ReembolsoCompletado
		rb.RevisorID = &revisorID
		rb.MotivoRevisor = &req.Motivo
		rb.RevisadoAt = &ahora
		if err := s.repo.UpdateTx(tx, rb); err != nil {
			return err
		}

		// 5. Revocar UNA inscripción; las recompras anteriores sobreviven
		if rb.ProductoTipo == "curso" {
			if _, err := s.inscripcionRepo.EliminarMasRecienteTx(tx, rb.UsuarioID, rb.ProductoID); err != nil {
				return err
			}
		}
		return nil
	})

	if txErr != nil {
		if bloqueado != nil {
			// La aprobación no procede: el reembolso queda rechazado con el
			// código de la guardia, en su propia transacción.
			motivo := bloqueado.Mensaje
			rb.Estado = model.ReembolsoRechazado
			rb.RevisorID = &revisorID
			rb.MotivoRevisor = &motivo
			rb.RevisadoAt = &ahora
			if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
				return s.repo.UpdateTx(tx, rb)
			}); err != nil {
				return nil, err
			}
			return nil, bloqueado
		}
		return nil, txErr
	}

	s.notificar(ctx, rb)
	return reembolsoToResponse(rb), nil
}

// errAbortarAprobacion es un centinela interno para revertir la transacción
// de aprobación cuando una guardia la bloquea.
var errAbortarAprobacion = errors.New("aprobación bloqueada")

// notificar encola el aviso al usuario; un fallo aquí jamás afecta el estado
// ya persistido.
func (s *reembolsoService) notificar(ctx context.Context, rb *model.Reembolso) {
	if s.dispatcher == nil {
		return
	}
	// Claves alineadas con NotificacionJobPayload del worker.
	payload := map[string]string{
		"usuario_id": rb.UsuarioID.String(),
		"tipo":       "reembolso_" + rb.Estado,
		"subject":    "Actualización de tu reembolso",
		"body":       fmt.Sprintf("Tu solicitud de reembolso de %q está %s.", rb.Titulo, rb.Estado),
	}
	if err := s.dispatcher.EnqueueNotificacion(ctx, payload); err != nil {
		log.Warn().Err(err).Str("reembolso_id", rb.ID.String()).Msg("no se pudo encolar la notificación")
	}
}

// monedaVenta devuelve la moneda de la venta asociada, con USD como respaldo.
func monedaVenta(rb *model.Reembolso) string {
	if rb.Venta != nil && rb.Venta.Moneda != "" {
		return rb.Venta.Moneda
	}
	return "USD"
}

func (s *reembolsoService) GetReembolso(ctx context.Context, id uuid.UUID) (*dto.ReembolsoResponse, error) {
	rb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("reembolso no encontrado")
	}
	return reembolsoToResponse(rb), nil
}

func (s *reembolsoService) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]dto.ReembolsoResponse, error) {
	rbs, err := s.repo.ListByUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReembolsoResponse, 0, len(rbs))
	for i := range rbs {
		out = append(out, *reembolsoToResponse(&rbs[i]))
	}
	return out, nil
}

func (s *reembolsoService) ListPendientes(ctx context.Context, limit int) ([]dto.ReembolsoResponse, error) {
	rbs, err := s.repo.ListPendientes(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReembolsoResponse, 0, len(rbs))
	for i := range rbs {
		out = append(out, *reembolsoToResponse(&rbs[i]))
	}
	return out, nil
}

func reembolsoToResponse(rb *model.Reembolso) *dto.ReembolsoResponse {
	resp := &dto.ReembolsoResponse{
		ID:             rb.ID.String(),
		VentaID:        rb.VentaID.String(),
		UsuarioID:      rb.UsuarioID.String(),
		ProductoID:     rb.ProductoID.String(),
		ProductoTipo:   rb.ProductoTipo,
		Titulo:         rb.Titulo,
		PrecioUnitario: rb.PrecioUnitario,
		MotivoUsuario:  rb.MotivoUsuario,
		Estado:         rb.Estado,
		MotivoRevisor:  rb.MotivoRevisor,
		CreatedAt:      rb.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if rb.RevisadoAt != nil {
		revisado := rb.RevisadoAt.Format("2006-01-02T15:04:05Z")
		resp.RevisadoAt = &revisado
	}
	return resp
}
