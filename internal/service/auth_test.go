package service_test

import (
	"context"
	"testing"

	"github.com/strabagdev/control-costos-contrato-app/internal/config"
	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAuthSvc(e *entorno) service.AuthService {
	cfg := &config.Config{
		JWTSecret:          "secreto-de-prueba",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
	return service.NewAuthService(e.usuarioRepo, cfg)
}

func TestLogin_CredencialesValidas(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)
	ctx := context.Background()

	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email:    "ana@obras.local",
		Nombre:   "Ana",
		Password: "clave-segura",
		Rol:      "editor",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@obras.local", Password: "clave-segura"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "editor", resp.User.Rol)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)
	ctx := context.Background()

	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email:    "luis@obras.local",
		Nombre:   "Luis",
		Password: "clave-segura",
		Rol:      "viewer",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "luis@obras.local", Password: "otra-clave"})
	assert.Error(t, err)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)
	ctx := context.Background()

	u, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email:    "baja@obras.local",
		Nombre:   "Baja",
		Password: "clave-segura",
		Rol:      "editor",
	})
	require.NoError(t, err)
	require.NoError(t, svc.DesactivarUsuario(ctx, mustUUID(t, u.ID)))

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "baja@obras.local", Password: "clave-segura"})
	assert.Error(t, err)

	// Reactivado vuelve a entrar.
	require.NoError(t, svc.ReactivarUsuario(ctx, mustUUID(t, u.ID)))
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "baja@obras.local", Password: "clave-segura"})
	assert.NoError(t, err)
}

func TestRefresh_RotaTokens(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)
	ctx := context.Background()

	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email:    "rot@obras.local",
		Nombre:   "Rot",
		Password: "clave-segura",
		Rol:      "admin",
	})
	require.NoError(t, err)

	login, err := svc.Login(ctx, dto.LoginRequest{Email: "rot@obras.local", Password: "clave-segura"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
}

func TestRefresh_TokenInvalido(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)

	_, err := svc.Refresh(context.Background(), "no.es.un.jwt")
	assert.Error(t, err)
}

func TestCrearUsuario_EmailDuplicado(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)
	ctx := context.Background()

	req := dto.CrearUsuarioRequest{
		Email:    "dup@obras.local",
		Nombre:   "Dup",
		Password: "clave-segura",
		Rol:      "viewer",
	}
	_, err := svc.CrearUsuario(ctx, req)
	require.NoError(t, err)

	_, err = svc.CrearUsuario(ctx, req)
	assert.ErrorIs(t, err, service.ErrEntradaInvalida)
}

func TestListarUsuarios_FiltraInactivos(t *testing.T) {
	e := buildEntorno()
	svc := buildAuthSvc(e)
	ctx := context.Background()

	activo, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email: "act@obras.local", Nombre: "Act", Password: "clave-segura", Rol: "editor",
	})
	require.NoError(t, err)
	inactivo, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email: "inact@obras.local", Nombre: "Inact", Password: "clave-segura", Rol: "viewer",
	})
	require.NoError(t, err)
	require.NoError(t, svc.DesactivarUsuario(ctx, mustUUID(t, inactivo.ID)))

	soloActivos, err := svc.ListarUsuarios(ctx, false)
	require.NoError(t, err)
	require.Len(t, soloActivos, 1)
	assert.Equal(t, activo.ID, soloActivos[0].ID)

	todos, err := svc.ListarUsuarios(ctx, true)
	require.NoError(t, err)
	assert.Len(t, todos, 2)
}
