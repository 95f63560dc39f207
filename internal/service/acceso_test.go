package service_test

import (
	"context"
	"testing"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificarLectura_AdminImplicito(t *testing.T) {
	e := buildEntorno()
	contratoID := e.seedContrato("Obra Admin")

	// Admin lee y escribe sin grant.
	admin := adminActor()
	assert.NoError(t, e.acceso.VerificarLectura(context.Background(), admin.UsuarioID, admin.Rol, contratoID))
	assert.NoError(t, e.acceso.VerificarEscritura(context.Background(), admin.UsuarioID, admin.Rol, contratoID))
}

func TestVerificarLectura_RequiereGrant(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Grant")

	editor := editorActor()
	err := e.acceso.VerificarLectura(ctx, editor.UsuarioID, editor.Rol, contratoID)
	assert.ErrorIs(t, err, service.ErrAccesoDenegado)

	require.NoError(t, e.grantsRepo.Grant(ctx, editor.UsuarioID, contratoID))
	assert.NoError(t, e.acceso.VerificarLectura(ctx, editor.UsuarioID, editor.Rol, contratoID))
	assert.NoError(t, e.acceso.VerificarEscritura(ctx, editor.UsuarioID, editor.Rol, contratoID))
}

func TestVerificarEscritura_ViewerNunca(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Viewer")

	viewer := viewerActor()
	require.NoError(t, e.grantsRepo.Grant(ctx, viewer.UsuarioID, contratoID))

	// El grant habilita lectura; el rol viewer bloquea escritura igual.
	assert.NoError(t, e.acceso.VerificarLectura(ctx, viewer.UsuarioID, viewer.Rol, contratoID))
	err := e.acceso.VerificarEscritura(ctx, viewer.UsuarioID, viewer.Rol, contratoID)
	assert.ErrorIs(t, err, service.ErrAccesoDenegado)
}

func TestAsignar_ValidaExistencia(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Asignable")

	u := &model.Usuario{Email: "editor@obras.local", Nombre: "Editor", Rol: model.RolEditor, Activo: true}
	require.NoError(t, e.usuarioRepo.Create(ctx, u))

	// Usuario inexistente.
	err := e.acceso.Asignar(ctx, uuid.New(), contratoID)
	assert.ErrorIs(t, err, service.ErrNoEncontrado)

	// Contrato inexistente.
	err = e.acceso.Asignar(ctx, u.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNoEncontrado)

	// Asignacion valida, idempotente.
	require.NoError(t, e.acceso.Asignar(ctx, u.ID, contratoID))
	require.NoError(t, e.acceso.Asignar(ctx, u.ID, contratoID))

	usuarios, err := e.acceso.UsuariosDe(ctx, contratoID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u.ID}, usuarios)
}

func TestRevocar_CortaElAcceso(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	contratoID := e.seedContrato("Obra Revocable")

	editor := editorActor()
	require.NoError(t, e.grantsRepo.Grant(ctx, editor.UsuarioID, contratoID))
	require.NoError(t, e.acceso.Revocar(ctx, editor.UsuarioID, contratoID))

	err := e.acceso.VerificarLectura(ctx, editor.UsuarioID, editor.Rol, contratoID)
	assert.ErrorIs(t, err, service.ErrAccesoDenegado)
}

func TestContratosDe(t *testing.T) {
	e := buildEntorno()
	ctx := context.Background()
	c1 := e.seedContrato("Obra Alfa")
	e.seedContrato("Obra Beta")

	editor := editorActor()
	require.NoError(t, e.grantsRepo.Grant(ctx, editor.UsuarioID, c1))

	// El editor ve solo su contrato asignado.
	propios, err := e.acceso.ContratosDe(ctx, editor.UsuarioID, editor.Rol)
	require.NoError(t, err)
	require.Len(t, propios, 1)
	assert.Equal(t, c1, propios[0].ID)

	// El admin ve todos.
	admin := adminActor()
	todos, err := e.acceso.ContratosDe(ctx, admin.UsuarioID, admin.Rol)
	require.NoError(t, err)
	assert.Len(t, todos, 2)
}

func TestPuedeEscribir(t *testing.T) {
	assert.True(t, model.PuedeEscribir(model.RolAdmin))
	assert.True(t, model.PuedeEscribir(model.RolEditor))
	assert.False(t, model.PuedeEscribir(model.RolViewer))
	assert.False(t, model.PuedeEscribir("desconocido"))
}
