package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/model"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContratoService interface {
	Crear(ctx context.Context, req dto.CrearContratoRequest) (*dto.ContratoResponse, error)
	Listar(ctx context.Context) ([]dto.ContratoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarContratoRequest) (*dto.ContratoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type contratoService struct {
	repo     repository.ContratoRepository
	partidas repository.PartidaRepository
	nocs     repository.NocRepository
	grants   repository.UserContractRepository
}

func NewContratoService(
	repo repository.ContratoRepository,
	partidas repository.PartidaRepository,
	nocs repository.NocRepository,
	grants repository.UserContractRepository,
) ContratoService {
	return &contratoService{repo: repo, partidas: partidas, nocs: nocs, grants: grants}
}

func (s *contratoService) Crear(ctx context.Context, req dto.CrearContratoRequest) (*dto.ContratoResponse, error) {
	c := &model.Contrato{Nombre: req.Nombre, Descripcion: req.Descripcion}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := mapContrato(c, 0, 0, 0)
	return &resp, nil
}

func (s *contratoService) Listar(ctx context.Context) ([]dto.ContratoResponse, error) {
	conteos, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ContratoResponse, 0, len(conteos))
	for _, cc := range conteos {
		out = append(out, mapContrato(&cc.Contrato, cc.PartidasCount, cc.NocCount, cc.UserLinksCount))
	}
	return out, nil
}

func (s *contratoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarContratoRequest) (*dto.ContratoResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contrato", ErrNoEncontrado)
		}
		return nil, err
	}
	c.Nombre = req.Nombre
	c.Descripcion = req.Descripcion
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := mapContrato(c, 0, 0, 0)
	return &resp, nil
}

// Eliminar refuses to delete a contrato while any partida, NOC or user grant
// depends on it.
func (s *contratoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contrato", ErrNoEncontrado)
		}
		return err
	}

	tienePartidas, err := s.partidas.ExisteByContrato(ctx, id)
	if err != nil {
		return err
	}
	if tienePartidas {
		return fmt.Errorf("%w: partidas", ErrTieneDependencias)
	}

	tieneNocs, err := s.nocs.ExisteByContrato(ctx, id)
	if err != nil {
		return err
	}
	if tieneNocs {
		return fmt.Errorf("%w: notas de cambio", ErrTieneDependencias)
	}

	tieneGrants, err := s.grants.ExisteByContrato(ctx, id)
	if err != nil {
		return err
	}
	if tieneGrants {
		return fmt.Errorf("%w: asignaciones de usuario", ErrTieneDependencias)
	}

	return s.repo.Delete(ctx, id)
}

func mapContrato(c *model.Contrato, partidas, nocs, links int64) dto.ContratoResponse {
	return dto.ContratoResponse{
		ID:             c.ID.String(),
		Nombre:         c.Nombre,
		Descripcion:    c.Descripcion,
		PartidasCount:  partidas,
		NocCount:       nocs,
		UserLinksCount: links,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}
