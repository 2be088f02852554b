//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Escenarios:
//   - Ciclo completo de compra: crear venta → confirmar pago → ganancias e
//     inscripción generadas; confirmación duplicada es idempotente.
//   - Reembolso aprobado acredita la billetera del comprador.
//   - Anulación de venta pagada: revierte asientos mientras nada fue
//     liquidado; con ganancia liquidada responde conflicto.
//   - La revocación de inscripción borra la recompra, no la compra original.
//   - Una liquidación en error se re-despacha al reintentar: ganancias
//     pagadas, registro limpio y fuera de la cola de reintentos.

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/config"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/router"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server       *httptest.Server
	adminToken   string
	instructorID string
	engine       *gin.Engine
	db           *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// Start Postgres container
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("plataforma_test"),
		tcPostgres.WithUsername("plataforma"),
		tcPostgres.WithPassword("plataforma"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start Redis container
	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		ExchangeAPIURL:     "http://localhost:9999", // breaker abre y cae al fallback estático
		ComisionDefault:    0.30,
		ComisionReferido:   0.20,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(db))

	// Seed admin + instructor
	usuarioRepo := repository.NewUsuarioRepository(db)
	hash, err := bcrypt.GenerateFromPassword([]byte("clave-e2e-1234"), 10)
	require.NoError(t, err)

	admin := &model.Usuario{Email: "admin@e2e.test", Nombre: "Admin E2E", PasswordHash: string(hash), Rol: "administrador", Activo: true}
	require.NoError(t, usuarioRepo.Create(ctx, admin))
	instructor := &model.Usuario{Email: "instructor@e2e.test", Nombre: "Instructor E2E", PasswordHash: string(hash), Rol: "instructor", Activo: true}
	require.NoError(t, usuarioRepo.Create(ctx, instructor))

	exchangeCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := router.New(cfg, db, rdb, exchangeCB)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": "admin@e2e.test", "password": "clave-e2e-1234"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server:       srv,
		adminToken:   loginBody.AccessToken,
		instructorID: instructor.ID.String(),
		engine:       r,
		db:           db,
	}
}

// crearVentaPagada crea una venta de un curso y confirma su pago.
func crearVentaPagada(t *testing.T, env *testEnv, productoID string, precio string) (ventaID string) {
	t.Helper()
	ventaResp := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"metodo_pago": "tarjeta",
			"items": []map[string]any{
				{
					"producto_id":     productoID,
					"producto_tipo":   "curso",
					"titulo":          "Curso de Go",
					"precio_unitario": precio,
					"instructor_id":   env.instructorID,
				},
			},
		}), env.adminToken)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	var venta struct {
		ID         string `json:"id"`
		EstadoPago string `json:"estado_pago"`
	}
	decodeJSON(t, ventaResp, &venta)
	require.Equal(t, "Pendiente", venta.EstadoPago)

	pagarResp := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/pagar", jsonBody(t, map[string]any{}), env.adminToken)
	require.Equal(t, http.StatusOK, pagarResp.StatusCode)
	var pagada struct {
		EstadoPago string `json:"estado_pago"`
	}
	decodeJSON(t, pagarResp, &pagada)
	require.Equal(t, "Pagado", pagada.EstadoPago)

	return venta.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CicloCompraCompleto(t *testing.T) {
	env := setupTestEnv(t)
	productoID := "550e8400-e29b-41d4-a716-446655440001"

	ventaID := crearVentaPagada(t, env, productoID, "100.00")

	// Confirmación duplicada (webhook repetido) → idempotente, mismo estado.
	repagarResp := do(t, env.server, "POST", "/v1/ventas/"+ventaID+"/pagar", jsonBody(t, map[string]any{}), env.adminToken)
	assert.Equal(t, http.StatusOK, repagarResp.StatusCode)
	var repagada struct {
		EstadoPago string `json:"estado_pago"`
	}
	decodeJSON(t, repagarResp, &repagada)
	assert.Equal(t, "Pagado", repagada.EstadoPago)

	// La venta aparece listada como pagada.
	listResp := do(t, env.server, "GET", "/v1/ventas?estado=Pagado", nil, env.adminToken)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Data  []struct{ ID string } `json:"data"`
		Total int64                 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(1), list.Total)
}

func TestE2E_ReembolsoAcreditaBilletera(t *testing.T) {
	env := setupTestEnv(t)
	productoID := "550e8400-e29b-41d4-a716-446655440002"

	ventaID := crearVentaPagada(t, env, productoID, "80.00")

	// Solicitar reembolso (el comprador es el admin del test)
	solResp := do(t, env.server, "POST", "/v1/reembolsos",
		jsonBody(t, map[string]any{
			"venta_id":      ventaID,
			"producto_id":   productoID,
			"producto_tipo": "curso",
			"motivo":        "El contenido no era lo esperado",
		}), env.adminToken)
	require.Equal(t, http.StatusCreated, solResp.StatusCode)
	var reembolso struct {
		ID     string `json:"id"`
		Estado string `json:"estado"`
	}
	decodeJSON(t, solResp, &reembolso)
	require.Equal(t, "pendiente", reembolso.Estado)

	// Segunda solicitud sobre la misma terna → rechazada por activo duplicado.
	dupResp := do(t, env.server, "POST", "/v1/reembolsos",
		jsonBody(t, map[string]any{
			"venta_id":      ventaID,
			"producto_id":   productoID,
			"producto_tipo": "curso",
			"motivo":        "Intento duplicado de reembolso",
		}), env.adminToken)
	require.Equal(t, http.StatusConflict, dupResp.StatusCode)
	var rechazo struct {
		Codigo string `json:"codigo"`
	}
	decodeJSON(t, dupResp, &rechazo)
	assert.Equal(t, "refund_already_active", rechazo.Codigo)

	// Aprobar
	aprResp := do(t, env.server, "POST", "/v1/reembolsos/"+reembolso.ID+"/revisar",
		jsonBody(t, map[string]any{"aprobar": true, "motivo": "Caso dentro de política"}), env.adminToken)
	require.Equal(t, http.StatusOK, aprResp.StatusCode)
	var aprobado struct {
		Estado string `json:"estado"`
	}
	decodeJSON(t, aprResp, &aprobado)
	assert.Equal(t, "completado", aprobado.Estado)

	// El precio completo quedó acreditado en la billetera del comprador.
	billResp := do(t, env.server, "GET", "/v1/billetera", nil, env.adminToken)
	require.Equal(t, http.StatusOK, billResp.StatusCode)
	var billetera struct {
		Saldo decimal.Decimal `json:"saldo"`
	}
	decodeJSON(t, billResp, &billetera)
	assert.True(t, billetera.Saldo.Equal(decimal.RequireFromString("80.00")), "saldo=%s", billetera.Saldo)
}

func TestE2E_AnulacionDeVentaPagada(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("sin ganancias liquidadas se revierte", func(t *testing.T) {
		productoID := "550e8400-e29b-41d4-a716-446655440003"
		ventaID := crearVentaPagada(t, env, productoID, "45.50")

		anularResp := do(t, env.server, "DELETE", "/v1/ventas/"+ventaID,
			jsonBody(t, map[string]any{"motivo": "Contracargo del procesador"}), env.adminToken)
		assert.Equal(t, http.StatusNoContent, anularResp.StatusCode)

		var restantes int64
		require.NoError(t, env.db.Model(&model.GananciaInstructor{}).
			Where("venta_id = ?", ventaID).Count(&restantes).Error)
		assert.Zero(t, restantes)
		require.NoError(t, env.db.Model(&model.Inscripcion{}).
			Where("venta_id = ?", ventaID).Count(&restantes).Error)
		assert.Zero(t, restantes)
	})

	t.Run("con ganancia liquidada exige reembolso", func(t *testing.T) {
		productoID := "550e8400-e29b-41d4-a716-446655440004"
		ventaID := crearVentaPagada(t, env, productoID, "60.00")

		require.NoError(t, env.db.Model(&model.GananciaInstructor{}).
			Where("venta_id = ?", ventaID).
			Update("estado", model.GananciaPagada).Error)

		anularResp := do(t, env.server, "DELETE", "/v1/ventas/"+ventaID,
			jsonBody(t, map[string]any{"motivo": "Anulación tardía en test"}), env.adminToken)
		assert.Equal(t, http.StatusConflict, anularResp.StatusCode)
	})
}

func TestE2E_RevocacionBorraLaInscripcionMasReciente(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	inscripcionRepo := repository.NewInscripcionRepository(env.db)

	usuarioID := uuid.New()
	cursoID := uuid.New()
	antigua := &model.Inscripcion{UsuarioID: usuarioID, CursoID: cursoID, CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, inscripcionRepo.Create(ctx, antigua))
	reciente := &model.Inscripcion{UsuarioID: usuarioID, CursoID: cursoID, CreatedAt: time.Now()}
	require.NoError(t, inscripcionRepo.Create(ctx, reciente))

	require.NoError(t, env.db.Transaction(func(tx *gorm.DB) error {
		borradas, err := inscripcionRepo.EliminarMasRecienteTx(tx, usuarioID, cursoID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), borradas)
		return nil
	}))

	// La compra original sobrevive; la recompra es la que cae.
	restantes, err := inscripcionRepo.ListByUsuario(ctx, usuarioID)
	require.NoError(t, err)
	require.Len(t, restantes, 1)
	assert.Equal(t, antigua.ID, restantes[0].ID)
}

func TestE2E_ReintentoDeLiquidacionEnError(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	productoID := "550e8400-e29b-41d4-a716-446655440005"

	ventaID := crearVentaPagada(t, env, productoID, "100.00")
	require.NoError(t, env.db.Model(&model.GananciaInstructor{}).
		Where("venta_id = ?", ventaID).
		Update("estado", model.GananciaDisponible).Error)

	// Liquidación que quedó en error en un despacho previo, con el backoff
	// ya vencido. El desglose se congela tal cual se calculó entonces.
	liqRepo := repository.NewLiquidacionRepository(env.db)
	msg := "ERROR: deadlock detected (SQLSTATE 40P01)"
	vencido := time.Now().Add(-time.Minute)
	liq := &model.Liquidacion{
		InstructorID:  uuid.MustParse(env.instructorID),
		MontoVentaUSD: decimal.RequireFromString("64.64"),
		MontoFiscal:   decimal.RequireFromString("64.64"),
		MonedaFiscal:  "USD",
		Neto:          decimal.RequireFromString("64.64"),
		MonedaPago:    "USD",
		MontoFinal:    decimal.RequireFromString("64.64"),
		Estado:        model.LiquidacionError,
		RetryCount:    1,
		NextRetryAt:   &vencido,
		LastError:     &msg,
	}
	require.NoError(t, liqRepo.Create(ctx, liq))

	// El cron la levanta de la cola de reintentos.
	pendientes, err := liqRepo.ListPendingRetries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pendientes, 1)
	require.Equal(t, liq.ID, pendientes[0].ID)

	w := worker.NewPayoutWorker(
		repository.NewGananciaRepository(env.db),
		repository.NewPerfilFiscalRepository(env.db),
		liqRepo,
		repository.NewUsuarioRepository(env.db),
		nil, nil, nil,
		t.TempDir(),
	)
	raw, err := json.Marshal(worker.PayoutJobPayload{
		InstructorID:  env.instructorID,
		LiquidacionID: liq.ID.String(),
	})
	require.NoError(t, err)
	w.Process(ctx, raw)

	// La liquidación queda despachada y fuera de la cola.
	despachada, err := liqRepo.FindByID(ctx, liq.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LiquidacionDespachada, despachada.Estado)
	assert.Nil(t, despachada.NextRetryAt)
	assert.Nil(t, despachada.LastError)

	pendientes, err = liqRepo.ListPendingRetries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pendientes)

	// Las ganancias del instructor quedaron pagadas contra esa liquidación.
	var ganancias []model.GananciaInstructor
	require.NoError(t, env.db.Where("venta_id = ?", ventaID).Find(&ganancias).Error)
	require.Len(t, ganancias, 1)
	assert.Equal(t, model.GananciaPagada, ganancias[0].Estado)
	require.NotNil(t, ganancias[0].LiquidacionID)
	assert.Equal(t, liq.ID, *ganancias[0].LiquidacionID)
}
