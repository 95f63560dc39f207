package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCrearPartida_VersionRaiz(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Uno")

	resp, err := e.partidas.Crear(ctx, adminActor(), dto.CrearPartidaRequest{
		ContratoID:     contratoID.String(),
		Item:           "1.01",
		Descripcion:    ptr("Hormigon H30"),
		Cantidad:       decimalFrom(100),
		PrecioUnitario: decimalFrom(250),
	})
	require.NoError(t, err)

	assert.True(t, resp.Vigente)
	assert.Nil(t, resp.NocID)
	assert.Nil(t, resp.VersionPrevID)
	// La raiz se referencia a si misma.
	require.NotNil(t, resp.VersionRootID)
	assert.Equal(t, resp.ID, *resp.VersionRootID)
	// Total derivado, nunca aceptado del cliente.
	assert.True(t, resp.Total.Equal(decimalFrom(25000)))
}

func TestCrearPartida_ContratoInvalido(t *testing.T) {
	e := buildEntorno()
	_, err := e.partidas.Crear(context.Background(), adminActor(), dto.CrearPartidaRequest{
		ContratoID: "no-es-uuid",
		Item:       "1.01",
	})
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
}

func TestActualizarPartida_RecalculaTotal(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Dos")
	p := e.seedPartida(contratoID, "2.01", 10, 100)

	resp, err := e.partidas.Actualizar(ctx, adminActor(), p.ID, dto.ActualizarPartidaRequest{
		Cantidad: dec(12),
	})
	require.NoError(t, err)
	assert.True(t, resp.Cantidad.Equal(decimalFrom(12)))
	assert.True(t, resp.Total.Equal(decimalFrom(1200)))
}

func TestActualizarPartida_CamposBloqueadosTrasNoc(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	admin := adminActor()
	contratoID := e.seedContrato("Obra Tres")
	p := e.seedPartida(contratoID, "3.01", 10, 100)

	noc := e.seedNoc(contratoID, "NOC-100")
	e.seedLinea(noc.ID, p.ID, dec(15), nil)
	_, err := e.nocs.Aplicar(ctx, admin, noc.ID)
	require.NoError(t, err)

	// El origen quedo tocado (noc_id en la sucesora, version_prev en la
	// cadena); la sucesora tiene noc_id y por tanto bloquea identidad.
	lineas, err := e.nocRepo.ListLineas(ctx, noc.ID)
	require.NoError(t, err)
	sucesoraID := *lineas[0].PartidaResultanteID

	_, err = e.partidas.Actualizar(ctx, admin, sucesoraID, dto.ActualizarPartidaRequest{
		Item:    ptr("3.99"),
		Vigente: ptr(false),
	})
	var bloqueo *service.CamposBloqueadosError
	require.True(t, errors.As(err, &bloqueo))
	assert.ElementsMatch(t, []string{"item", "vigente"}, bloqueo.Campos)

	// Descripcion, cantidad y precio siguen editables en versiones tocadas.
	resp, err := e.partidas.Actualizar(ctx, admin, sucesoraID, dto.ActualizarPartidaRequest{
		Descripcion:    ptr("ajuste de obra"),
		PrecioUnitario: dec(110),
	})
	require.NoError(t, err)
	assert.True(t, resp.PrecioUnitario.Equal(decimalFrom(110)))
}

func TestCambiarVigente_SoloPartidasNoTocadas(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	admin := adminActor()
	contratoID := e.seedContrato("Obra Cuatro")
	libre := e.seedPartida(contratoID, "4.01", 10, 100)

	resp, err := e.partidas.CambiarVigente(ctx, admin, libre.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.Vigente)

	tocada := e.seedPartida(contratoID, "4.02", 10, 100)
	noc := e.seedNoc(contratoID, "NOC-101")
	e.seedLinea(noc.ID, tocada.ID, dec(11), nil)
	_, err = e.nocs.Aplicar(ctx, admin, noc.ID)
	require.NoError(t, err)

	lineas, err := e.nocRepo.ListLineas(ctx, noc.ID)
	require.NoError(t, err)
	sucesoraID := *lineas[0].PartidaResultanteID

	_, err = e.partidas.CambiarVigente(ctx, admin, sucesoraID, false)
	var bloqueo *service.CamposBloqueadosError
	assert.True(t, errors.As(err, &bloqueo))
}

func TestCadenaVersiones_RaizPrimero(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	admin := adminActor()
	contratoID := e.seedContrato("Obra Cinco")
	raiz := e.seedPartida(contratoID, "5.01", 10, 100)

	noc1 := e.seedNoc(contratoID, "NOC-102")
	e.seedLinea(noc1.ID, raiz.ID, dec(12), nil)
	r1, err := e.nocs.Aplicar(ctx, admin, noc1.ID)
	require.NoError(t, err)
	v2ID := mustUUID(t, r1.Resultantes[0].PartidaResultanteID)

	noc2 := e.seedNoc(contratoID, "NOC-103")
	e.seedLinea(noc2.ID, v2ID, dec(14), nil)
	r2, err := e.nocs.Aplicar(ctx, admin, noc2.ID)
	require.NoError(t, err)
	v3ID := mustUUID(t, r2.Resultantes[0].PartidaResultanteID)

	cadena, err := e.partidas.CadenaVersiones(ctx, admin, v3ID)
	require.NoError(t, err)
	require.Len(t, cadena.Chain, 3)

	// Raiz primero, version pedida al final; depth cuenta desde la pedida.
	assert.Equal(t, raiz.ID.String(), cadena.Chain[0].ID)
	assert.Equal(t, 2, cadena.Chain[0].Depth)
	assert.Equal(t, v2ID.String(), cadena.Chain[1].ID)
	assert.Equal(t, 1, cadena.Chain[1].Depth)
	assert.Equal(t, v3ID.String(), cadena.Chain[2].ID)
	assert.Equal(t, 0, cadena.Chain[2].Depth)

	// Pedir la cadena desde la raiz devuelve solo la raiz: el enlace es
	// hacia atras.
	soloRaiz, err := e.partidas.CadenaVersiones(ctx, admin, raiz.ID)
	require.NoError(t, err)
	assert.Len(t, soloRaiz.Chain, 1)
}

func TestPartidas_GateDeAcceso(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Privada")
	e.seedPartida(contratoID, "6.01", 10, 100)

	viewer := viewerActor()
	_, err := e.partidas.ListarPorContrato(ctx, viewer, contratoID)
	assert.ErrorIs(t, err, service.ErrAccesoDenegado)

	// Con grant el viewer lee pero sigue sin poder escribir.
	require.NoError(t, e.grantsRepo.Grant(ctx, viewer.UsuarioID, contratoID))
	listado, err := e.partidas.ListarPorContrato(ctx, viewer, contratoID)
	require.NoError(t, err)
	assert.Len(t, listado, 1)

	_, err = e.partidas.Crear(ctx, viewer, dto.CrearPartidaRequest{
		ContratoID:     contratoID.String(),
		Item:           "6.02",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, service.ErrAccesoDenegado)

	// Editor con grant escribe.
	editor := editorActor()
	require.NoError(t, e.grantsRepo.Grant(ctx, editor.UsuarioID, contratoID))
	_, err = e.partidas.Crear(ctx, editor, dto.CrearPartidaRequest{
		ContratoID:     contratoID.String(),
		Item:           "6.02",
		Cantidad:       decimal.NewFromInt(1),
		PrecioUnitario: decimal.NewFromInt(1),
	})
	assert.NoError(t, err)
}

func TestActualizarPartida_NoEncontrada(t *testing.T) {
	e := buildEntorno()
	_, err := e.partidas.Actualizar(context.Background(), adminActor(), mustUUID(t, "00000000-0000-0000-0000-000000000001"), dto.ActualizarPartidaRequest{})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}
