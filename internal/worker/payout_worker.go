package worker

// payout_worker.go
// Processes liquidation jobs from QueuePayout. Aggregates an instructor's
// available earnings, computes the payout breakdown, persists the Liquidacion
// and flips the earnings to "pagado" in one transaction, then generates the
// PDF statement and enqueues the notification email.
// Exponential backoff (max 3 attempts); an exhausted first pass persists the
// Liquidacion in estado "error" so the cron can re-enqueue it, and only a
// liquidation that also exhausts its scheduled retries goes to the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/service"
)

// PayoutJobPayload is the job envelope sent to QueuePayout. LiquidacionID is
// set only on retry jobs re-enqueued by the cron: the Liquidacion row already
// exists in estado "error" and only the payment leg needs to be replayed.
type PayoutJobPayload struct {
	InstructorID  string `json:"instructor_id"`
	LiquidacionID string `json:"liquidacion_id,omitempty"`
}

// PayoutWorker liquidates one instructor per job.
type PayoutWorker struct {
	gananciaRepo    repository.GananciaRepository
	perfilRepo      repository.PerfilFiscalRepository
	liquidacionRepo repository.LiquidacionRepository
	usuarioRepo     repository.UsuarioRepository
	payoutSvc       service.PayoutService
	dispatcher      *Dispatcher
	rdb             *redis.Client
	pdfStoragePath  string
}

func NewPayoutWorker(
	gananciaRepo repository.GananciaRepository,
	perfilRepo repository.PerfilFiscalRepository,
	liquidacionRepo repository.LiquidacionRepository,
	usuarioRepo repository.UsuarioRepository,
	payoutSvc service.PayoutService,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	pdfStoragePath string,
) *PayoutWorker {
	return &PayoutWorker{
		gananciaRepo:    gananciaRepo,
		perfilRepo:      perfilRepo,
		liquidacionRepo: liquidacionRepo,
		usuarioRepo:     usuarioRepo,
		payoutSvc:       payoutSvc,
		dispatcher:      dispatcher,
		rdb:             rdb,
		pdfStoragePath:  pdfStoragePath,
	}
}

// Process handles a single payout job:
//  1. Parse PayoutJobPayload
//  2. Sum the instructor's "disponible" earnings — nothing to do if zero
//  3. Compute the breakdown (fiscal profile + live/fallback rates)
//  4. TX: create Liquidacion, mark earnings "pagado", bump accumulated income
//  5. Generate the PDF statement (best effort)
//  6. Enqueue the notification email
func (w *PayoutWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PayoutJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("payout_worker: invalid payload")
		return
	}
	instructorID, err := uuid.Parse(payload.InstructorID)
	if err != nil {
		log.Error().Str("instructor_id", payload.InstructorID).Msg("payout_worker: invalid instructor_id")
		return
	}
	if payload.LiquidacionID != "" {
		w.reintentarLiquidacion(ctx, payload, instructorID)
		return
	}

	ganancias, err := w.gananciaRepo.ListDisponibles(ctx, instructorID)
	if err != nil {
		log.Error().Err(err).Str("instructor_id", payload.InstructorID).
			Msg("payout_worker: no se pudieron leer las ganancias")
		return
	}
	if len(ganancias) == 0 {
		log.Debug().Str("instructor_id", payload.InstructorID).Msg("payout_worker: sin ganancias disponibles")
		return
	}

	total := decimal.Zero
	for i := range ganancias {
		total = total.Add(ganancias[i].GananciaNeta)
	}

	perfil, err := w.perfilRepo.FindByInstructor(ctx, instructorID)
	if err != nil && err != gorm.ErrRecordNotFound {
		log.Error().Err(err).Str("instructor_id", payload.InstructorID).
			Msg("payout_worker: no se pudo leer el perfil fiscal")
		return
	}

	// El monto ya viene neto de comisión: tasa cero en el pipeline.
	desglose := w.payoutSvc.CalcularPayout(ctx, service.ParamsPayout{
		MontoVentaUSD: total,
		TasaComision:  decimal.Zero,
		Perfil:        perfil,
	})

	liq := &model.Liquidacion{
		InstructorID:  instructorID,
		MontoVentaUSD: desglose.MontoVentaUSD,
		MontoFiscal:   desglose.MontoFiscal,
		MonedaFiscal:  desglose.MonedaFiscal,
		ComisionMonto: desglose.ComisionMonto,
		IVAMonto:      desglose.IVA.IVA,
		IVARetenido:   desglose.IVA.Retenido,
		IVATrasladado: desglose.IVA.Trasladado,
		ISRTasa:       desglose.ISR.Tasa,
		ISRMonto:      desglose.ISR.Monto,
		Neto:          desglose.Neto,
		MonedaPago:    desglose.MonedaPago,
		FeeMetodoPago: desglose.FeeMetodoPago.Monto,
		MontoFinal:    desglose.MontoFinal,
		Estado:        model.LiquidacionDespachada,
	}

	anio := service.AnioFiscalActual()
	txErr := withRetry(ctx, 3, func(attempt int) error {
		return w.liquidacionRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := w.liquidacionRepo.CreateTx(tx, liq); err != nil {
				return err
			}
			if err := w.gananciaRepo.MarcarPagadasTx(tx, instructorID, liq.ID); err != nil {
				return err
			}
			if perfil != nil {
				// El acumulado crece DESPUÉS del cálculo: los umbrales se
				// evalúan siempre con el acumulado previo.
				return w.perfilRepo.IncrementarAcumuladoTx(tx, instructorID, desglose.MontoFiscal, anio)
			}
			return nil
		})
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("instructor_id", payload.InstructorID).
			Msg("payout_worker: liquidación fallida tras todos los reintentos")
		// Persistir la liquidación en estado error para que el cron la
		// re-encole con backoff; la DLQ queda sólo para cuando ni siquiera
		// ese registro se pudo escribir.
		msg := txErr.Error()
		next := time.Now().Add(time.Minute)
		liq.Estado = model.LiquidacionError
		liq.LastError = &msg
		liq.NextRetryAt = &next
		liq.RetryCount = 1
		if err := w.liquidacionRepo.Create(ctx, liq); err != nil {
			log.Error().Err(err).Str("instructor_id", payload.InstructorID).
				Msg("payout_worker: no se pudo registrar la liquidación en error")
			SendToDLQ(ctx, w.rdb, QueuePayout, "payout", raw,
				fmt.Sprintf("liquidación fallida: %v", txErr), 3)
		}
		return
	}

	log.Info().
		Str("liquidacion_id", liq.ID.String()).
		Str("instructor_id", payload.InstructorID).
		Str("monto_final", desglose.MontoFinal.String()).
		Int("ganancias", len(ganancias)).
		Msg("payout_worker: liquidación creada")

	nombre := payload.InstructorID
	if u, err := w.usuarioRepo.FindByID(ctx, instructorID); err == nil {
		nombre = u.Nombre
	}

	// PDF best-effort: su fallo no revierte la liquidación.
	pdfPath, pdfErr := infra.GenerateLiquidacionPDF(liq, nombre, w.pdfStoragePath)
	if pdfErr != nil {
		log.Warn().Err(pdfErr).Str("liquidacion_id", liq.ID.String()).Msg("payout_worker: PDF generation failed")
	} else {
		liq.PDFPath = &pdfPath
		_ = w.liquidacionRepo.Update(ctx, liq)
	}

	notif := NotificacionJobPayload{
		UsuarioID: payload.InstructorID,
		Tipo:      "liquidacion",
		Subject:   "Tu liquidación fue despachada",
		Body: fmt.Sprintf("Se liquidaron %d ganancias por un total de %s %s.",
			len(ganancias), desglose.MontoFinal.StringFixed(2), desglose.MonedaPago),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueNotificacion(ctx, notif); err != nil {
		log.Warn().Err(err).Str("liquidacion_id", liq.ID.String()).
			Msg("payout_worker: failed to enqueue notification")
	}
}

// reintentarLiquidacion replays the payment leg of a Liquidacion left in
// estado "error". The row and its breakdown already exist; only the earnings
// flip and the acumulado bump are pending. The breakdown is never recomputed:
// the amounts the instructor was notified about stay fixed.
func (w *PayoutWorker) reintentarLiquidacion(ctx context.Context, payload PayoutJobPayload, instructorID uuid.UUID) {
	liqID, err := uuid.Parse(payload.LiquidacionID)
	if err != nil {
		log.Error().Str("liquidacion_id", payload.LiquidacionID).Msg("payout_worker: invalid liquidacion_id")
		return
	}
	liq, err := w.liquidacionRepo.FindByID(ctx, liqID)
	if err != nil {
		log.Error().Err(err).Str("liquidacion_id", payload.LiquidacionID).
			Msg("payout_worker: no se pudo leer la liquidación a reintentar")
		return
	}
	if liq.Estado != model.LiquidacionError {
		// Otro worker ya la despachó, o fue intervenida a mano.
		log.Debug().Str("liquidacion_id", payload.LiquidacionID).Str("estado", liq.Estado).
			Msg("payout_worker: reintento descartado, la liquidación ya no está en error")
		return
	}

	perfil, err := w.perfilRepo.FindByInstructor(ctx, instructorID)
	if err != nil && err != gorm.ErrRecordNotFound {
		log.Error().Err(err).Str("instructor_id", payload.InstructorID).
			Msg("payout_worker: no se pudo leer el perfil fiscal")
		return
	}

	anio := service.AnioFiscalActual()
	txErr := w.liquidacionRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := w.gananciaRepo.MarcarPagadasTx(tx, instructorID, liq.ID); err != nil {
			return err
		}
		if perfil != nil {
			if err := w.perfilRepo.IncrementarAcumuladoTx(tx, instructorID, liq.MontoFiscal, anio); err != nil {
				return err
			}
		}
		return w.liquidacionRepo.MarcarDespachadaTx(tx, liq.ID)
	})
	if txErr != nil {
		if liq.RetryCount >= 3 {
			// Sin más reintentos: se congela el registro y el job va a la DLQ
			// para intervención manual.
			msg := txErr.Error()
			liq.LastError = &msg
			liq.NextRetryAt = nil
			if err := w.liquidacionRepo.Update(ctx, liq); err != nil {
				log.Error().Err(err).Str("liquidacion_id", liq.ID.String()).
					Msg("payout_worker: no se pudo congelar la liquidación agotada")
			}
			raw, _ := json.Marshal(payload)
			SendToDLQ(ctx, w.rdb, QueuePayout, "payout", raw,
				fmt.Sprintf("reintentos de liquidación agotados: %v", txErr), liq.RetryCount)
			return
		}
		next := time.Now().Add(time.Duration(1<<uint(liq.RetryCount)) * time.Minute)
		if err := w.liquidacionRepo.MarcarError(ctx, liq.ID, txErr.Error(), next); err != nil {
			log.Error().Err(err).Str("liquidacion_id", liq.ID.String()).
				Msg("payout_worker: no se pudo reprogramar el reintento")
		}
		return
	}

	// El struct en memoria se alinea con lo que MarcarDespachadaTx dejó en la
	// base; un Save posterior (PDF) no debe revivir el estado de error.
	liq.Estado = model.LiquidacionDespachada
	liq.LastError = nil
	liq.NextRetryAt = nil

	log.Info().
		Str("liquidacion_id", liq.ID.String()).
		Str("instructor_id", payload.InstructorID).
		Int("retry_count", liq.RetryCount).
		Msg("payout_worker: liquidación despachada en reintento")

	if liq.PDFPath == nil {
		nombre := payload.InstructorID
		if u, err := w.usuarioRepo.FindByID(ctx, instructorID); err == nil {
			nombre = u.Nombre
		}
		if pdfPath, pdfErr := infra.GenerateLiquidacionPDF(liq, nombre, w.pdfStoragePath); pdfErr != nil {
			log.Warn().Err(pdfErr).Str("liquidacion_id", liq.ID.String()).Msg("payout_worker: PDF generation failed")
		} else {
			liq.PDFPath = &pdfPath
			_ = w.liquidacionRepo.Update(ctx, liq)
		}
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
