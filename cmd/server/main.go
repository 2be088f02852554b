package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/config"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/router"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/service"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Circuit breaker for the exchange-rate provider. Shared by the HTTP
	// layer (health, breakdown preview) and the payout worker.
	exchangeCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	exchange := infra.NewExchangeClient(cfg.ExchangeAPIURL)
	mailer := infra.NewMailer(cfg)

	// Composition root for the async side: the payout worker aggregates
	// "disponible" earnings into liquidations, the notification worker
	// delivers the resulting emails.
	usuarioRepo := repository.NewUsuarioRepository(db)
	gananciaRepo := repository.NewGananciaRepository(db)
	perfilRepo := repository.NewPerfilFiscalRepository(db)
	liquidacionRepo := repository.NewLiquidacionRepository(db)

	dispatcher := worker.NewDispatcher(rdb)
	payoutSvc := service.NewPayoutService(perfilRepo, gananciaRepo, exchange, exchangeCB)

	handlers := worker.Handlers{
		Payout:       worker.NewPayoutWorker(gananciaRepo, perfilRepo, liquidacionRepo, usuarioRepo, payoutSvc, dispatcher, rdb, cfg.PDFStoragePath),
		Notificacion: worker.NewNotificacionWorker(mailer, usuarioRepo),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	// Cron: promueve ganancias fuera de la ventana de reembolso y despacha
	// las corridas de payout pendientes.
	worker.StartPayoutCron(ctx, worker.PayoutCronConfig{
		GananciaRepo:    gananciaRepo,
		LiquidacionRepo: liquidacionRepo,
		Dispatcher:      dispatcher,
		CB:              exchangeCB,
		RDB:             rdb,
	})

	r := router.New(cfg, db, rdb, exchangeCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("plataforma backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
