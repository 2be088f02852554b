package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/dto"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

func campaniaRequest(inicia, termina time.Time) dto.CrearCampaniaRequest {
	return dto.CrearCampaniaRequest{
		Nombre:        "Flash de temporada",
		TipoCampania:  "flash",
		TipoSegmento:  "curso",
		SegmentoID:    uuid.NewString(),
		TipoDescuento: "porcentaje",
		Descuento:     dec("25"),
		IniciaAt:      inicia.Format(time.RFC3339),
		TerminaAt:     termina.Format(time.RFC3339),
	}
}

func TestCrearCampania(t *testing.T) {
	ahora := time.Now()

	t.Run("ok", func(t *testing.T) {
		repo := &stubCampaniaRepo{}
		svc := NewCampaniaService(repo)

		resp, err := svc.CrearCampania(context.Background(), campaniaRequest(ahora.Add(-time.Hour), ahora.Add(48*time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "flash", resp.TipoCampania)
		assert.True(t, resp.Descuento.Equal(dec("25")))
		assert.True(t, resp.Vigente)
		require.Len(t, repo.creadas, 1)
		assert.True(t, repo.creadas[0].Activo)
	})

	t.Run("ventana invertida", func(t *testing.T) {
		svc := NewCampaniaService(&stubCampaniaRepo{})
		_, err := svc.CrearCampania(context.Background(), campaniaRequest(ahora.Add(48*time.Hour), ahora))
		assert.ErrorIs(t, err, ErrVentanaInvalida)
	})

	t.Run("ventana vacía", func(t *testing.T) {
		svc := NewCampaniaService(&stubCampaniaRepo{})
		_, err := svc.CrearCampania(context.Background(), campaniaRequest(ahora, ahora))
		assert.ErrorIs(t, err, ErrVentanaInvalida)
	})

	t.Run("solapada", func(t *testing.T) {
		svc := NewCampaniaService(&stubCampaniaRepo{solapa: true})
		_, err := svc.CrearCampania(context.Background(), campaniaRequest(ahora, ahora.Add(48*time.Hour)))
		assert.ErrorIs(t, err, ErrCampaniaSolapada)
	})
}

func TestPrecioConDescuento(t *testing.T) {
	svc := NewCampaniaService(&stubCampaniaRepo{})

	t.Run("porcentaje", func(t *testing.T) {
		c := &model.Campania{TipoDescuento: "porcentaje", Descuento: dec("25")}
		out := svc.PrecioConDescuento(c, dec("100.00"))
		assert.True(t, out.Equal(dec("75.00")), "out=%s", out)
	})

	t.Run("fijo", func(t *testing.T) {
		c := &model.Campania{TipoDescuento: "fijo", Descuento: dec("5.00")}
		out := svc.PrecioConDescuento(c, dec("20.00"))
		assert.True(t, out.Equal(dec("15.00")))
	})

	t.Run("fijo mayor al precio queda en cero", func(t *testing.T) {
		c := &model.Campania{TipoDescuento: "fijo", Descuento: dec("30.00")}
		out := svc.PrecioConDescuento(c, dec("20.00"))
		assert.True(t, out.IsZero())
	})

	t.Run("tipo desconocido no descuenta", func(t *testing.T) {
		c := &model.Campania{TipoDescuento: "puntos", Descuento: dec("10")}
		out := svc.PrecioConDescuento(c, dec("20.00"))
		assert.True(t, out.Equal(dec("20.00")))
	})
}
