package worker

// payout_cron.go
// Background goroutine with two duties per tick:
//  1. Promote "pendiente" earnings to "disponible" once the refund window
//     closed — this is the async mutator the refund TOCTOU guard defends
//     against.
//  2. Enqueue one payout job per instructor holding "disponible" earnings,
//     plus re-enqueue liquidations stuck in "error" whose next_retry_at
//     passed. Skips the tick while the exchange-rate circuit breaker is open.

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

const (
	payoutTickInterval = 60 * time.Second
	payoutRetryBatch   = 10
	// diasVentanaReembolso must match the refund request window: an earning
	// only becomes payable once no refund can be requested against it.
	diasVentanaReembolso = 7
)

// PayoutCronConfig holds all dependencies for the payout goroutine.
type PayoutCronConfig struct {
	GananciaRepo    repository.GananciaRepository
	LiquidacionRepo repository.LiquidacionRepository
	Dispatcher      *Dispatcher
	CB              *infra.CircuitBreaker
	RDB             *redis.Client
}

// StartPayoutCron launches a background goroutine that ticks every minute.
// It respects the context for graceful shutdown.
func StartPayoutCron(ctx context.Context, cfg PayoutCronConfig) {
	go func() {
		ticker := time.NewTicker(payoutTickInterval)
		defer ticker.Stop()

		log.Info().Msg("payout_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("payout_cron: shutting down")
				return
			case <-ticker.C:
				processPayoutTick(ctx, cfg)
			}
		}
	}()
}

func processPayoutTick(ctx context.Context, cfg PayoutCronConfig) {
	// 1. Promote earnings whose refund window closed.
	corte := time.Now().AddDate(0, 0, -diasVentanaReembolso)
	promovidas, err := cfg.GananciaRepo.PromoverDisponibles(ctx, corte)
	if err != nil {
		log.Error().Err(err).Msg("payout_cron: failed to promote earnings")
	} else if promovidas > 0 {
		log.Info().Int64("count", promovidas).Msg("payout_cron: earnings promoted to disponible")
	}

	// Liquidating needs exchange rates; with the breaker open every job would
	// land on the stale fallback table, so hold the queue until it closes.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("payout_cron: circuit breaker is open, skipping dispatch")
		return
	}

	// 2. One payout job per instructor with disponible earnings.
	instructores, err := cfg.GananciaRepo.InstructoresConDisponibles(ctx)
	if err != nil {
		log.Error().Err(err).Msg("payout_cron: failed to list instructors")
		return
	}
	for _, id := range instructores {
		payload := PayoutJobPayload{InstructorID: id.String()}
		if err := cfg.Dispatcher.EnqueuePayout(ctx, payload); err != nil {
			log.Error().Err(err).Str("instructor_id", id.String()).
				Msg("payout_cron: failed to enqueue payout job")
		}
	}
	if len(instructores) > 0 {
		log.Info().Int("count", len(instructores)).Msg("payout_cron: payout jobs enqueued")
	}

	// 3. Re-enqueue failed liquidations whose backoff expired.
	pendientes, err := cfg.LiquidacionRepo.ListPendingRetries(ctx, payoutRetryBatch)
	if err != nil {
		log.Error().Err(err).Msg("payout_cron: failed to query pending retries")
		return
	}
	for i := range pendientes {
		payload := PayoutJobPayload{
			InstructorID:  pendientes[i].InstructorID.String(),
			LiquidacionID: pendientes[i].ID.String(),
		}
		if err := cfg.Dispatcher.EnqueuePayout(ctx, payload); err != nil {
			log.Error().Err(err).Str("liquidacion_id", pendientes[i].ID.String()).
				Msg("payout_cron: failed to re-enqueue liquidation")
		}
	}
}
