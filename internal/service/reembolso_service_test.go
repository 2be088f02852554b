package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

type reembolsoFixture struct {
	svc             ReembolsoService
	repo            *stubReembolsoRepo
	ventaRepo       *stubVentaRepo
	gananciaRepo    *stubGananciaRepo
	billeteraRepo   *stubBilleteraRepo
	inscripcionRepo *stubInscripcionRepo
	notif           *stubNotificador

	usuarioID uuid.UUID
	venta     *model.Venta
}

// nuevaCompraPagada arma una venta pagada hace `hace` con un único curso de
// 80.00 MXN y los stubs alrededor, lista para solicitar o revisar reembolsos.
func nuevaCompraPagada(hace time.Duration) *reembolsoFixture {
	usuarioID := uuid.New()
	ventaID := uuid.New()
	venta := &model.Venta{
		ID:         ventaID,
		UsuarioID:  usuarioID,
		Total:      dec("80.00"),
		Moneda:     "MXN",
		EstadoPago: "Pagado",
		MetodoPago: "tarjeta",
		CreatedAt:  time.Now().Add(-hace),
		Items: []model.VentaItem{{
			ID:             uuid.New(),
			VentaID:        ventaID,
			ProductoID:     uuid.New(),
			ProductoTipo:   "curso",
			Titulo:         "Go desde cero",
			PrecioUnitario: dec("80.00"),
			InstructorID:   uuid.New(),
		}},
	}

	f := &reembolsoFixture{
		repo:            newStubReembolsoRepo(),
		ventaRepo:       newStubVentaRepo(venta),
		billeteraRepo:   &stubBilleteraRepo{},
		inscripcionRepo: &stubInscripcionRepo{},
		notif:           &stubNotificador{},
		usuarioID:       usuarioID,
		venta:           venta,
	}
	f.gananciaRepo = newStubGananciaRepo(&model.GananciaInstructor{
		InstructorID: venta.Items[0].InstructorID,
		VentaID:      ventaID,
		ProductoID:   venta.Items[0].ProductoID,
		ProductoTipo: "curso",
		Bruto:        dec("80.00"),
		GananciaNeta: dec("51.71"),
		Estado:       model.GananciaPendiente,
	})
	f.svc = NewReembolsoService(f.repo, f.ventaRepo, f.gananciaRepo, f.billeteraRepo, f.inscripcionRepo, f.notif)
	return f
}

func (f *reembolsoFixture) solicitud() dto.SolicitarReembolsoRequest {
	return dto.SolicitarReembolsoRequest{
		VentaID:      f.venta.ID.String(),
		ProductoID:   f.venta.Items[0].ProductoID.String(),
		ProductoTipo: f.venta.Items[0].ProductoTipo,
		Motivo:       "el contenido no era lo que esperaba",
	}
}

func esRechazo(t *testing.T, err error, codigo string) *RechazoReembolso {
	t.Helper()
	var rz *RechazoReembolso
	require.ErrorAs(t, err, &rz)
	assert.Equal(t, codigo, rz.Codigo)
	return rz
}

// ── Solicitud ─────────────────────────────────────────────────────────────────

func TestSolicitarReembolso_OK(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)

	resp, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
	require.NoError(t, err)
	assert.Equal(t, model.ReembolsoPendiente, resp.Estado)
	assert.Equal(t, "Go desde cero", resp.Titulo)
	assert.True(t, resp.PrecioUnitario.Equal(dec("80.00")))
	assert.Len(t, f.repo.porID, 1)
}

func TestSolicitarReembolso_VentaNoEncontrada(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)

	t.Run("venta inexistente", func(t *testing.T) {
		req := f.solicitud()
		req.VentaID = uuid.NewString()
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, req)
		esRechazo(t, err, RechazoVentaNoEncontrada)
	})

	t.Run("venta de otro usuario", func(t *testing.T) {
		_, err := f.svc.SolicitarReembolso(context.Background(), uuid.New(), f.solicitud())
		esRechazo(t, err, RechazoVentaNoEncontrada)
	})

	t.Run("venta sin pagar", func(t *testing.T) {
		f := nuevaCompraPagada(48 * time.Hour)
		f.venta.EstadoPago = "Pendiente"
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
		esRechazo(t, err, RechazoVentaNoEncontrada)
	})
}

func TestSolicitarReembolso_ItemFueraDeVenta(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)

	t.Run("producto ajeno", func(t *testing.T) {
		req := f.solicitud()
		req.ProductoID = uuid.NewString()
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, req)
		esRechazo(t, err, RechazoItemFueraDeVenta)
	})

	t.Run("tipo que no coincide", func(t *testing.T) {
		req := f.solicitud()
		req.ProductoTipo = "proyecto"
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, req)
		esRechazo(t, err, RechazoItemFueraDeVenta)
	})
}

// La ventana cierra exactamente a los 7 días calendario del pago (AddDate,
// no 168h: sobrevive cambios de horario).
func TestSolicitarReembolso_Ventana(t *testing.T) {
	t.Run("un segundo antes del límite se acepta", func(t *testing.T) {
		f := nuevaCompraPagada(0)
		f.venta.CreatedAt = time.Now().AddDate(0, 0, -DiasLimiteReembolso).Add(time.Second)
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
		require.NoError(t, err)
	})

	t.Run("un segundo después del límite se rechaza", func(t *testing.T) {
		f := nuevaCompraPagada(0)
		f.venta.CreatedAt = time.Now().AddDate(0, 0, -DiasLimiteReembolso).Add(-time.Second)
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
		esRechazo(t, err, RechazoVentanaVencida)
	})
}

func TestSolicitarReembolso_YaActivo(t *testing.T) {
	t.Run("el pre-chequeo corta antes del insert", func(t *testing.T) {
		f := nuevaCompraPagada(48 * time.Hour)
		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
		require.NoError(t, err)

		_, err = f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
		esRechazo(t, err, RechazoYaActivo)
		assert.Len(t, f.repo.porID, 1)
	})

	t.Run("la carrera la arbitra el índice único", func(t *testing.T) {
		f := nuevaCompraPagada(48 * time.Hour)
		// El insert concurrente ya pasó el pre-chequeo; el índice parcial
		// responde con clave duplicada.
		f.repo.createErr = gorm.ErrDuplicatedKey

		_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
		esRechazo(t, err, RechazoYaActivo)
	})
}

func TestSolicitarReembolso_MaximoAlcanzado(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)
	f.repo.completados = MaxReembolsosPorProducto

	_, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
	esRechazo(t, err, RechazoMaximoAlcanzado)
}

func TestSolicitarReembolso_InstructorYaPagado(t *testing.T) {
	for _, estado := range []string{model.GananciaPagada, model.GananciaCompletada} {
		t.Run(estado, func(t *testing.T) {
			f := nuevaCompraPagada(48 * time.Hour)
			g, err := f.gananciaRepo.FindByVentaProducto(context.Background(), f.venta.ID, f.venta.Items[0].ProductoID)
			require.NoError(t, err)
			g.Estado = estado

			_, err = f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
			esRechazo(t, err, RechazoInstructorYaPagado)
		})
	}
}

// ── Revisión ──────────────────────────────────────────────────────────────────

// solicitado deja un reembolso pendiente en el fixture y lo devuelve.
func (f *reembolsoFixture) solicitado(t *testing.T) *model.Reembolso {
	t.Helper()
	resp, err := f.svc.SolicitarReembolso(context.Background(), f.usuarioID, f.solicitud())
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	rb := f.repo.porID[id]
	require.NotNil(t, rb)
	// El repo real precarga la venta para resolver la moneda del crédito.
	rb.Venta = f.venta
	return rb
}

func TestRevisarReembolso_AprobarAcreditaYRevoca(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)
	rb := f.solicitado(t)
	revisor := uuid.New()

	resp, err := f.svc.RevisarReembolso(context.Background(), revisor, rb.ID,
		dto.RevisarReembolsoRequest{Aprobar: true, Motivo: "procede la devolución"})
	require.NoError(t, err)
	assert.Equal(t, model.ReembolsoCompletado, resp.Estado)

	// Ganancia bloqueada para toda liquidación futura.
	g, err := f.gananciaRepo.FindByVentaProducto(context.Background(), rb.VentaID, rb.ProductoID)
	require.NoError(t, err)
	assert.Equal(t, model.GananciaReembolsada, g.Estado)
	require.NotNil(t, g.ReembolsoID)
	assert.Equal(t, rb.ID, *g.ReembolsoID)

	// Crédito por el precio pagado, en la moneda de la venta.
	require.Len(t, f.billeteraRepo.acreditos, 1)
	mov := f.billeteraRepo.acreditos[0]
	assert.Equal(t, f.usuarioID, mov.UsuarioID)
	assert.True(t, mov.Monto.Equal(dec("80.00")))
	assert.Equal(t, "MXN", mov.Moneda)
	assert.Equal(t, "credito_reembolso", mov.Tipo)
	require.NotNil(t, mov.ReferenciaID)
	assert.Equal(t, rb.ID, *mov.ReferenciaID)

	// Exactamente UNA inscripción revocada, la del curso reembolsado.
	require.Len(t, f.inscripcionRepo.eliminadas, 1)
	assert.Equal(t, rb.ProductoID, f.inscripcionRepo.eliminadas[0])

	assert.Equal(t, revisor, *rb.RevisorID)
	assert.Len(t, f.notif.payloads, 1)
}

func TestRevisarReembolso_ProyectoNoTocaInscripciones(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)
	f.venta.Items[0].ProductoTipo = "proyecto"
	f.gananciaRepo.porLinea[lineaKey(f.venta.ID, f.venta.Items[0].ProductoID)].ProductoTipo = "proyecto"
	rb := f.solicitado(t)

	_, err := f.svc.RevisarReembolso(context.Background(), uuid.New(), rb.ID,
		dto.RevisarReembolsoRequest{Aprobar: true, Motivo: "procede la devolución"})
	require.NoError(t, err)
	assert.Empty(t, f.inscripcionRepo.eliminadas)
	assert.Len(t, f.billeteraRepo.acreditos, 1)
}

func TestRevisarReembolso_GananciaLiquidadaEntreMedio(t *testing.T) {
	// La liquidación corrió entre la solicitud y la revisión: la relectura con
	// lock detecta la ganancia pagada y el reembolso termina rechazado.
	f := nuevaCompraPagada(48 * time.Hour)
	rb := f.solicitado(t)
	g, err := f.gananciaRepo.FindByVentaProducto(context.Background(), rb.VentaID, rb.ProductoID)
	require.NoError(t, err)
	g.Estado = model.GananciaPagada

	_, err = f.svc.RevisarReembolso(context.Background(), uuid.New(), rb.ID,
		dto.RevisarReembolsoRequest{Aprobar: true, Motivo: "procede la devolución"})
	esRechazo(t, err, RechazoInstructorYaPagado)

	assert.Equal(t, model.ReembolsoRechazado, rb.Estado)
	require.NotNil(t, rb.MotivoRevisor)
	assert.Empty(t, f.billeteraRepo.acreditos)
	assert.Empty(t, f.inscripcionRepo.eliminadas)
}

func TestRevisarReembolso_FalloBilleteraAbortaAprobacion(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)
	rb := f.solicitado(t)
	f.billeteraRepo.fallo = errors.New("billetera no disponible")

	_, err := f.svc.RevisarReembolso(context.Background(), uuid.New(), rb.ID,
		dto.RevisarReembolsoRequest{Aprobar: true, Motivo: "procede la devolución"})
	require.Error(t, err)

	// El cierre nunca se alcanzó: el reembolso sigue pendiente y revisable.
	assert.Equal(t, model.ReembolsoPendiente, rb.Estado)
	assert.Empty(t, f.inscripcionRepo.eliminadas)
	assert.Empty(t, f.notif.payloads)
}

func TestRevisarReembolso_Rechazar(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)
	rb := f.solicitado(t)
	revisor := uuid.New()

	resp, err := f.svc.RevisarReembolso(context.Background(), revisor, rb.ID,
		dto.RevisarReembolsoRequest{Aprobar: false, Motivo: "fuera de política"})
	require.NoError(t, err)
	assert.Equal(t, model.ReembolsoRechazado, resp.Estado)

	g, err := f.gananciaRepo.FindByVentaProducto(context.Background(), rb.VentaID, rb.ProductoID)
	require.NoError(t, err)
	assert.Equal(t, model.GananciaPendiente, g.Estado)
	assert.Empty(t, f.billeteraRepo.acreditos)
	assert.Empty(t, f.inscripcionRepo.eliminadas)
	assert.Len(t, f.notif.payloads, 1)
}

func TestRevisarReembolso_YaRevisado(t *testing.T) {
	f := nuevaCompraPagada(48 * time.Hour)
	rb := f.solicitado(t)
	rb.Estado = model.ReembolsoCompletado

	_, err := f.svc.RevisarReembolso(context.Background(), uuid.New(), rb.ID,
		dto.RevisarReembolsoRequest{Aprobar: true, Motivo: "procede la devolución"})
	require.Error(t, err)
	assert.Empty(t, f.billeteraRepo.acreditos)
}
