package router

import (
	"time"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/config"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/handler"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/middleware"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/service"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, exchangeCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	exchange := infra.NewExchangeClient(cfg.ExchangeAPIURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	gananciaRepo := repository.NewGananciaRepository(db)
	inscripcionRepo := repository.NewInscripcionRepository(db)
	cuponRepo := repository.NewCuponRepository(db)
	campaniaRepo := repository.NewCampaniaRepository(db)
	reembolsoRepo := repository.NewReembolsoRepository(db)
	billeteraRepo := repository.NewBilleteraRepository(db)
	perfilRepo := repository.NewPerfilFiscalRepository(db)
	liquidacionRepo := repository.NewLiquidacionRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	ventaSvc := service.NewVentaService(ventaRepo, gananciaRepo, inscripcionRepo, cuponRepo, cfg.ComisionDefault, cfg.ComisionReferido)
	reembolsoSvc := service.NewReembolsoService(reembolsoRepo, ventaRepo, gananciaRepo, billeteraRepo, inscripcionRepo, dispatcher)
	payoutSvc := service.NewPayoutService(perfilRepo, gananciaRepo, exchange, exchangeCB)
	instructorSvc := service.NewInstructorService(perfilRepo, liquidacionRepo)
	campaniaSvc := service.NewCampaniaService(campaniaRepo)
	cuponSvc := service.NewCuponService(cuponRepo)
	billeteraSvc := service.NewBilleteraService(billeteraRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	reembolsosH := handler.NewReembolsosHandler(reembolsoSvc)
	payoutsH := handler.NewPayoutsHandler(payoutSvc, instructorSvc)
	campaniasH := handler.NewCampaniasHandler(campaniaSvc, cuponSvc)
	billeteraH := handler.NewBilleteraHandler(billeteraSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, exchangeCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Campañas vigentes — público, el catálogo las consulta sin sesión
	r.GET("/v1/campanias/vigentes", campaniasH.ListarVigentes)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: estudiante, instructor, administrador — declared per-endpoint
		v1.POST("/ventas", middleware.RequireRole("estudiante", "instructor", "administrador"), ventasH.CrearVenta)
		v1.GET("/ventas", middleware.RequireRole("estudiante", "instructor", "administrador"), ventasH.ListarVentas)
		v1.GET("/ventas/:id", middleware.RequireRole("estudiante", "instructor", "administrador"), ventasH.GetVenta)
		// Confirmación de pago: webhook del procesador (autenticado como
		// administrador) o acción manual de backoffice.
		v1.POST("/ventas/:id/pagar", middleware.RequireRole("administrador"), ventasH.MarcarPagada)
		v1.DELETE("/ventas/:id", middleware.RequireRole("administrador"), ventasH.AnularVenta)

		reemb := v1.Group("/reembolsos")
		{
			reemb.POST("", middleware.RequireRole("estudiante", "administrador"), reembolsosH.Solicitar)
			reemb.GET("", middleware.RequireRole("estudiante", "instructor", "administrador"), reembolsosH.ListarPropios)
			reemb.GET("/pendientes", middleware.RequireRole("administrador"), reembolsosH.ListarPendientes)
			reemb.GET("/:id", middleware.RequireRole("estudiante", "instructor", "administrador"), reembolsosH.Get)
			reemb.POST("/:id/revisar", middleware.RequireRole("administrador"), reembolsosH.Revisar)
		}

		payouts := v1.Group("/payouts", middleware.RequireRole("instructor", "administrador"))
		{
			payouts.GET("/desglose", payoutsH.Desglose)
			payouts.GET("/limites-fiscales", payoutsH.LimitesFiscales)
			payouts.GET("/perfil-fiscal", payoutsH.GetPerfilFiscal)
			payouts.PUT("/perfil-fiscal", payoutsH.GuardarPerfilFiscal)
			payouts.GET("/liquidaciones", payoutsH.ListarLiquidaciones)
		}

		campanias := v1.Group("/campanias", middleware.RequireRole("administrador"))
		{
			campanias.POST("", campaniasH.Crear)
			campanias.GET("", campaniasH.Listar)
			campanias.DELETE("/:id", campaniasH.Eliminar)
		}

		cupones := v1.Group("/cupones")
		{
			cupones.POST("", middleware.RequireRole("instructor", "administrador"), campaniasH.CrearCupon)
			cupones.GET("/:codigo", middleware.RequireRole("estudiante", "instructor", "administrador"), campaniasH.GetCupon)
			cupones.DELETE("/:codigo", middleware.RequireRole("instructor", "administrador"), campaniasH.DesactivarCupon)
		}

		billetera := v1.Group("/billetera")
		{
			billetera.GET("", middleware.RequireRole("estudiante", "instructor", "administrador"), billeteraH.Saldo)
			billetera.GET("/movimientos", middleware.RequireRole("estudiante", "instructor", "administrador"), billeteraH.Movimientos)
			billetera.POST("/acreditar", middleware.RequireRole("administrador"), billeteraH.AcreditarManual)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
