package service

// stubs_test.go — repositorios en memoria compartidos por las pruebas de
// servicio. Todos devuelven DB() == nil, de modo que runTx ejecuta la función
// directamente; no hay rollback real, así que las pruebas de fallo afirman
// sobre lo que el servicio dejó de hacer, no sobre reversiones.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	ventas     map[uuid.UUID]*model.Venta
	lastFilter dto.VentaFilter
}

func newStubVentaRepo(vs ...*model.Venta) *stubVentaRepo {
	r := &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
	for _, v := range vs {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		r.ventas[v.ID] = v
	}
	return r
}

func (r *stubVentaRepo) Create(_ context.Context, v *model.Venta) error {
	v.ID = uuid.New()
	for i := range v.Items {
		v.Items[i].ID = uuid.New()
		v.Items[i].VentaID = v.ID
	}
	v.CreatedAt = time.Now()
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.EstadoPago = estado
	return nil
}

func (r *stubVentaRepo) List(_ context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	r.lastFilter = filter
	out := make([]model.Venta, 0, len(r.ventas))
	for _, v := range r.ventas {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

// ── Ganancias ─────────────────────────────────────────────────────────────────

type stubGananciaRepo struct {
	porLinea  map[string]*model.GananciaInstructor
	creadas   []*model.GananciaInstructor
	createErr error
}

func newStubGananciaRepo(gs ...*model.GananciaInstructor) *stubGananciaRepo {
	r := &stubGananciaRepo{porLinea: make(map[string]*model.GananciaInstructor)}
	for _, g := range gs {
		if g.ID == uuid.Nil {
			g.ID = uuid.New()
		}
		r.porLinea[lineaKey(g.VentaID, g.ProductoID)] = g
	}
	return r
}

func lineaKey(ventaID, productoID uuid.UUID) string {
	return ventaID.String() + "|" + productoID.String()
}

func (r *stubGananciaRepo) CreateTx(_ *gorm.DB, g *model.GananciaInstructor) error {
	if r.createErr != nil {
		return r.createErr
	}
	g.ID = uuid.New()
	r.creadas = append(r.creadas, g)
	r.porLinea[lineaKey(g.VentaID, g.ProductoID)] = g
	return nil
}

func (r *stubGananciaRepo) FindByVentaProducto(_ context.Context, ventaID, productoID uuid.UUID) (*model.GananciaInstructor, error) {
	g, ok := r.porLinea[lineaKey(ventaID, productoID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (r *stubGananciaRepo) FindByVentaProductoTx(_ *gorm.DB, ventaID, productoID uuid.UUID) (*model.GananciaInstructor, error) {
	return r.FindByVentaProducto(context.Background(), ventaID, productoID)
}

func (r *stubGananciaRepo) MarcarReembolsadaTx(_ *gorm.DB, id, reembolsoID uuid.UUID, cuando time.Time) error {
	for _, g := range r.porLinea {
		if g.ID == id {
			g.Estado = model.GananciaReembolsada
			g.ReembolsoID = &reembolsoID
			g.ReembolsadoAt = &cuando
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubGananciaRepo) EliminarPorVentaTx(_ *gorm.DB, ventaID uuid.UUID) error {
	for k, g := range r.porLinea {
		if g.VentaID == ventaID {
			delete(r.porLinea, k)
		}
	}
	resto := r.creadas[:0]
	for _, g := range r.creadas {
		if g.VentaID != ventaID {
			resto = append(resto, g)
		}
	}
	r.creadas = resto
	return nil
}

func (r *stubGananciaRepo) PromoverDisponibles(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (r *stubGananciaRepo) InstructoresConDisponibles(context.Context) ([]uuid.UUID, error) {
	return nil, nil
}
func (r *stubGananciaRepo) ListDisponibles(context.Context, uuid.UUID) ([]model.GananciaInstructor, error) {
	return nil, nil
}
func (r *stubGananciaRepo) SumDisponibles(context.Context, uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (r *stubGananciaRepo) MarcarPagadasTx(*gorm.DB, uuid.UUID, uuid.UUID) error { return nil }
func (r *stubGananciaRepo) ListByInstructor(context.Context, uuid.UUID, string) ([]model.GananciaInstructor, error) {
	return nil, nil
}
func (r *stubGananciaRepo) DB() *gorm.DB { return nil }

// ── Reembolsos ────────────────────────────────────────────────────────────────

type stubReembolsoRepo struct {
	porID       map[uuid.UUID]*model.Reembolso
	createErr   error
	completados int64
}

func newStubReembolsoRepo(rbs ...*model.Reembolso) *stubReembolsoRepo {
	r := &stubReembolsoRepo{porID: make(map[uuid.UUID]*model.Reembolso)}
	for _, rb := range rbs {
		if rb.ID == uuid.Nil {
			rb.ID = uuid.New()
		}
		r.porID[rb.ID] = rb
	}
	return r
}

func (r *stubReembolsoRepo) Create(_ context.Context, rb *model.Reembolso) error {
	if r.createErr != nil {
		return r.createErr
	}
	rb.ID = uuid.New()
	rb.CreatedAt = time.Now()
	r.porID[rb.ID] = rb
	return nil
}

func (r *stubReembolsoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reembolso, error) {
	rb, ok := r.porID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rb, nil
}

func (r *stubReembolsoRepo) CountCompletados(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return r.completados, nil
}

func (r *stubReembolsoRepo) ExisteActivo(_ context.Context, ventaID, productoID uuid.UUID, productoTipo string) (bool, error) {
	for _, rb := range r.porID {
		if rb.VentaID == ventaID && rb.ProductoID == productoID && rb.ProductoTipo == productoTipo &&
			(rb.Estado == model.ReembolsoPendiente || rb.Estado == model.ReembolsoProcesando) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubReembolsoRepo) UpdateTx(_ *gorm.DB, rb *model.Reembolso) error {
	r.porID[rb.ID] = rb
	return nil
}

func (r *stubReembolsoRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Reembolso, error) {
	var out []model.Reembolso
	for _, rb := range r.porID {
		if rb.UsuarioID == usuarioID {
			out = append(out, *rb)
		}
	}
	return out, nil
}

func (r *stubReembolsoRepo) ListPendientes(_ context.Context, limit int) ([]model.Reembolso, error) {
	var out []model.Reembolso
	for _, rb := range r.porID {
		if rb.Estado == model.ReembolsoPendiente && len(out) < limit {
			out = append(out, *rb)
		}
	}
	return out, nil
}

func (r *stubReembolsoRepo) DB() *gorm.DB { return nil }

// ── Billetera ─────────────────────────────────────────────────────────────────

type acreditacion struct {
	UsuarioID    uuid.UUID
	Monto        decimal.Decimal
	Moneda       string
	Tipo         string
	ReferenciaID *uuid.UUID
}

type stubBilleteraRepo struct {
	acreditos []acreditacion
	fallo     error
}

func (r *stubBilleteraRepo) FindByUsuario(_ context.Context, usuarioID uuid.UUID) (*model.Billetera, error) {
	return &model.Billetera{UsuarioID: usuarioID, Moneda: "USD"}, nil
}

func (r *stubBilleteraRepo) AcreditarTx(_ *gorm.DB, usuarioID uuid.UUID, monto decimal.Decimal, moneda, tipo, descripcion string, referenciaID *uuid.UUID) (*model.MovimientoBilletera, error) {
	if r.fallo != nil {
		return nil, r.fallo
	}
	r.acreditos = append(r.acreditos, acreditacion{
		UsuarioID:    usuarioID,
		Monto:        monto,
		Moneda:       moneda,
		Tipo:         tipo,
		ReferenciaID: referenciaID,
	})
	return &model.MovimientoBilletera{Tipo: tipo, Monto: monto, Descripcion: descripcion}, nil
}

func (r *stubBilleteraRepo) DebitarTx(_ *gorm.DB, _ uuid.UUID, monto decimal.Decimal, tipo, descripcion string, _ *uuid.UUID) (*model.MovimientoBilletera, error) {
	return &model.MovimientoBilletera{Tipo: tipo, Monto: monto, Descripcion: descripcion}, nil
}

func (r *stubBilleteraRepo) ListMovimientos(context.Context, uuid.UUID, int) ([]model.MovimientoBilletera, error) {
	return nil, nil
}

func (r *stubBilleteraRepo) DB() *gorm.DB { return nil }

// ── Inscripciones ─────────────────────────────────────────────────────────────

type stubInscripcionRepo struct {
	creadas    []model.Inscripcion
	eliminadas []uuid.UUID // curso de cada revocación
}

func (r *stubInscripcionRepo) Create(_ context.Context, ins *model.Inscripcion) error {
	r.creadas = append(r.creadas, *ins)
	return nil
}

func (r *stubInscripcionRepo) CreateTx(_ *gorm.DB, ins *model.Inscripcion) error {
	r.creadas = append(r.creadas, *ins)
	return nil
}

func (r *stubInscripcionRepo) CountByUsuarioCurso(_ context.Context, usuarioID, cursoID uuid.UUID) (int64, error) {
	var n int64
	for _, ins := range r.creadas {
		if ins.UsuarioID == usuarioID && ins.CursoID == cursoID {
			n++
		}
	}
	return n, nil
}

func (r *stubInscripcionRepo) EliminarMasRecienteTx(_ *gorm.DB, _, cursoID uuid.UUID) (int64, error) {
	r.eliminadas = append(r.eliminadas, cursoID)
	return 1, nil
}

func (r *stubInscripcionRepo) EliminarPorVentaTx(_ *gorm.DB, ventaID uuid.UUID) (int64, error) {
	var n int64
	resto := r.creadas[:0]
	for _, ins := range r.creadas {
		if ins.VentaID != nil && *ins.VentaID == ventaID {
			n++
			continue
		}
		resto = append(resto, ins)
	}
	r.creadas = resto
	return n, nil
}

func (r *stubInscripcionRepo) ListByUsuario(context.Context, uuid.UUID) ([]model.Inscripcion, error) {
	return nil, nil
}

func (r *stubInscripcionRepo) DB() *gorm.DB { return nil }

// ── Cupones ───────────────────────────────────────────────────────────────────

type stubCuponRepo struct {
	cupones map[string]*model.Cupon
}

func newStubCuponRepo(cs ...*model.Cupon) *stubCuponRepo {
	r := &stubCuponRepo{cupones: make(map[string]*model.Cupon)}
	for _, c := range cs {
		r.cupones[c.Codigo] = c
	}
	return r
}

func (r *stubCuponRepo) Create(_ context.Context, c *model.Cupon) error {
	r.cupones[c.Codigo] = c
	return nil
}

func (r *stubCuponRepo) FindByCodigo(_ context.Context, codigo string) (*model.Cupon, error) {
	c, ok := r.cupones[codigo]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCuponRepo) List(context.Context) ([]model.Cupon, error) { return nil, nil }

func (r *stubCuponRepo) Update(_ context.Context, c *model.Cupon) error {
	r.cupones[c.Codigo] = c
	return nil
}

func (r *stubCuponRepo) Desactivar(_ context.Context, codigo string) error {
	if c, ok := r.cupones[codigo]; ok {
		c.Activo = false
	}
	return nil
}

func (r *stubCuponRepo) DB() *gorm.DB { return nil }

// ── Campañas ──────────────────────────────────────────────────────────────────

type stubCampaniaRepo struct {
	solapa     bool
	creadas    []*model.Campania
	vigentes   []model.Campania
	eliminadas []uuid.UUID
}

func (r *stubCampaniaRepo) Create(_ context.Context, c *model.Campania) error {
	c.ID = uuid.New()
	r.creadas = append(r.creadas, c)
	return nil
}

func (r *stubCampaniaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Campania, error) {
	for _, c := range r.creadas {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCampaniaRepo) ExisteSolape(context.Context, string, string, uuid.UUID, time.Time, time.Time) (bool, error) {
	return r.solapa, nil
}

func (r *stubCampaniaRepo) ListVigentes(context.Context, time.Time) ([]model.Campania, error) {
	return r.vigentes, nil
}

func (r *stubCampaniaRepo) List(context.Context) ([]model.Campania, error) {
	out := make([]model.Campania, 0, len(r.creadas))
	for _, c := range r.creadas {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCampaniaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.eliminadas = append(r.eliminadas, id)
	return nil
}

func (r *stubCampaniaRepo) DB() *gorm.DB { return nil }

// ── Notificador ───────────────────────────────────────────────────────────────

type stubNotificador struct {
	payloads []interface{}
}

func (n *stubNotificador) EnqueueNotificacion(_ context.Context, payload interface{}) error {
	n.payloads = append(n.payloads, payload)
	return nil
}
