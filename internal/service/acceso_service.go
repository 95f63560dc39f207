package service

import (
	"context"
	"fmt"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller for gate checks.
type Actor struct {
	UsuarioID uuid.UUID
	Rol       string
}

// AccesoService is the authorization gate: it maps a caller to the contratos
// they may read or write. Other services consult it; it never owns business
// rows. Admin has implicit access to every contrato; editor and viewer need a
// user_contract grant. Write operations additionally require rol admin or
// editor.
type AccesoService interface {
	VerificarLectura(ctx context.Context, usuarioID uuid.UUID, rol string, contratoID uuid.UUID) error
	VerificarEscritura(ctx context.Context, usuarioID uuid.UUID, rol string, contratoID uuid.UUID) error
	ContratosDe(ctx context.Context, usuarioID uuid.UUID, rol string) ([]model.Contrato, error)

	Asignar(ctx context.Context, usuarioID, contratoID uuid.UUID) error
	Revocar(ctx context.Context, usuarioID, contratoID uuid.UUID) error
	UsuariosDe(ctx context.Context, contratoID uuid.UUID) ([]uuid.UUID, error)
}

type accesoService struct {
	grants    repository.UserContractRepository
	contratos repository.ContratoRepository
	usuarios  repository.UsuarioRepository
}

func NewAccesoService(
	grants repository.UserContractRepository,
	contratos repository.ContratoRepository,
	usuarios repository.UsuarioRepository,
) AccesoService {
	return &accesoService{grants: grants, contratos: contratos, usuarios: usuarios}
}

func (s *accesoService) VerificarLectura(ctx context.Context, usuarioID uuid.UUID, rol string, contratoID uuid.UUID) error {
	if rol == model.RolAdmin {
		return nil
	}
	ok, err := s.grants.HasAccess(ctx, usuarioID, contratoID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: sin acceso al contrato", ErrAccesoDenegado)
	}
	return nil
}

func (s *accesoService) VerificarEscritura(ctx context.Context, usuarioID uuid.UUID, rol string, contratoID uuid.UUID) error {
	if !model.PuedeEscribir(rol) {
		return fmt.Errorf("%w: rol sin permiso de escritura", ErrAccesoDenegado)
	}
	return s.VerificarLectura(ctx, usuarioID, rol, contratoID)
}

func (s *accesoService) ContratosDe(ctx context.Context, usuarioID uuid.UUID, rol string) ([]model.Contrato, error) {
	if rol == model.RolAdmin {
		conteos, err := s.contratos.ListWithCounts(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]model.Contrato, 0, len(conteos))
		for _, c := range conteos {
			out = append(out, c.Contrato)
		}
		return out, nil
	}
	return s.grants.ListContratosByUsuario(ctx, usuarioID)
}

// Asignar grants a usuario access to a contrato. Idempotent; both sides must
// exist.
func (s *accesoService) Asignar(ctx context.Context, usuarioID, contratoID uuid.UUID) error {
	if _, err := s.usuarios.FindByID(ctx, usuarioID); err != nil {
		return fmt.Errorf("%w: usuario", ErrNoEncontrado)
	}
	if _, err := s.contratos.FindByID(ctx, contratoID); err != nil {
		return fmt.Errorf("%w: contrato", ErrNoEncontrado)
	}
	return s.grants.Grant(ctx, usuarioID, contratoID)
}

func (s *accesoService) Revocar(ctx context.Context, usuarioID, contratoID uuid.UUID) error {
	return s.grants.Revoke(ctx, usuarioID, contratoID)
}

func (s *accesoService) UsuariosDe(ctx context.Context, contratoID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.contratos.FindByID(ctx, contratoID); err != nil {
		return nil, fmt.Errorf("%w: contrato", ErrNoEncontrado)
	}
	return s.grants.ListUsuariosByContrato(ctx, contratoID)
}
