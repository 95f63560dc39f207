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

type PartidaService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearPartidaRequest) (*dto.PartidaResponse, error)
	ListarPorContrato(ctx context.Context, actor Actor, contratoID uuid.UUID) ([]dto.PartidaResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarPartidaRequest) (*dto.PartidaResponse, error)
	CambiarVigente(ctx context.Context, actor Actor, id uuid.UUID, vigente bool) (*dto.PartidaResponse, error)
	CadenaVersiones(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CadenaVersionesResponse, error)
}

type partidaService struct {
	repo   repository.PartidaRepository
	acceso AccesoService
}

func NewPartidaService(repo repository.PartidaRepository, acceso AccesoService) PartidaService {
	return &partidaService{repo: repo, acceso: acceso}
}

// Crear inserts a root version: no predecessor, self-referential root,
// vigente=true. Total is derived in the model hook.
func (s *partidaService) Crear(ctx context.Context, actor Actor, req dto.CrearPartidaRequest) (*dto.PartidaResponse, error) {
	contratoID, err := uuid.Parse(req.ContratoID)
	if err != nil {
		return nil, fmt.Errorf("%w: contrato_id", ErrEntradaInvalida)
	}
	if err := s.acceso.VerificarEscritura(ctx, actor.UsuarioID, actor.Rol, contratoID); err != nil {
		return nil, err
	}
	familiaID, err := parseUUIDPtr(req.FamiliaID, "familia_id")
	if err != nil {
		return nil, err
	}
	subfamiliaID, err := parseUUIDPtr(req.SubfamiliaID, "subfamilia_id")
	if err != nil {
		return nil, err
	}
	grupoID, err := parseUUIDPtr(req.GrupoID, "grupo_id")
	if err != nil {
		return nil, err
	}
	unidadID, err := parseUUIDPtr(req.UnidadID, "unidad_id")
	if err != nil {
		return nil, err
	}

	p := &model.Partida{
		ContratoID:     contratoID,
		Item:           req.Item,
		Descripcion:    req.Descripcion,
		FamiliaID:      familiaID,
		SubfamiliaID:   subfamiliaID,
		GrupoID:        grupoID,
		UnidadID:       unidadID,
		Cantidad:       req.Cantidad,
		PrecioUnitario: req.PrecioUnitario,
		Vigente:        true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, traducirErrorBD(err)
	}
	resp := mapPartida(p)
	return &resp, nil
}

func (s *partidaService) ListarPorContrato(ctx context.Context, actor Actor, contratoID uuid.UUID) ([]dto.PartidaResponse, error) {
	if err := s.acceso.VerificarLectura(ctx, actor.UsuarioID, actor.Rol, contratoID); err != nil {
		return nil, err
	}
	partidas, err := s.repo.ListByContrato(ctx, contratoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PartidaResponse, 0, len(partidas))
	for i := range partidas {
		out = append(out, mapPartida(&partidas[i]))
	}
	return out, nil
}

// camposBloqueados lists the fields of the request that a NOC-touched partida
// no longer allows. Descripcion, cantidad and precio_unitario stay editable on
// every version.
func camposBloqueados(req dto.ActualizarPartidaRequest) []string {
	var bloqueados []string
	if req.Item != nil {
		bloqueados = append(bloqueados, "item")
	}
	if req.FamiliaID != nil {
		bloqueados = append(bloqueados, "familia_id")
	}
	if req.SubfamiliaID != nil {
		bloqueados = append(bloqueados, "subfamilia_id")
	}
	if req.GrupoID != nil {
		bloqueados = append(bloqueados, "grupo_id")
	}
	if req.UnidadID != nil {
		bloqueados = append(bloqueados, "unidad_id")
	}
	if req.Vigente != nil {
		bloqueados = append(bloqueados, "vigente")
	}
	return bloqueados
}

// Actualizar applies PATCH semantics under the edit-lock policy: once a
// partida was touched by a NOC, only descripcion/cantidad/precio_unitario may
// change. Requests touching a locked field are rejected whole.
func (s *partidaService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarPartidaRequest) (*dto.PartidaResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: partida", ErrNoEncontrado)
		}
		return nil, err
	}
	if err := s.acceso.VerificarEscritura(ctx, actor.UsuarioID, actor.Rol, p.ContratoID); err != nil {
		return nil, err
	}

	if p.Tocada() {
		if bloqueados := camposBloqueados(req); len(bloqueados) > 0 {
			return nil, &CamposBloqueadosError{Campos: bloqueados}
		}
	}

	if req.Item != nil {
		if *req.Item == "" {
			return nil, fmt.Errorf("%w: item no puede ser vacio", ErrEntradaInvalida)
		}
		p.Item = *req.Item
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.FamiliaID != nil {
		if p.FamiliaID, err = parseUUIDPtr(req.FamiliaID, "familia_id"); err != nil {
			return nil, err
		}
	}
	if req.SubfamiliaID != nil {
		if p.SubfamiliaID, err = parseUUIDPtr(req.SubfamiliaID, "subfamilia_id"); err != nil {
			return nil, err
		}
	}
	if req.GrupoID != nil {
		if p.GrupoID, err = parseUUIDPtr(req.GrupoID, "grupo_id"); err != nil {
			return nil, err
		}
	}
	if req.UnidadID != nil {
		if p.UnidadID, err = parseUUIDPtr(req.UnidadID, "unidad_id"); err != nil {
			return nil, err
		}
	}
	if req.Cantidad != nil {
		if req.Cantidad.IsNegative() {
			return nil, fmt.Errorf("%w: cantidad negativa", ErrEntradaInvalida)
		}
		p.Cantidad = *req.Cantidad
	}
	if req.PrecioUnitario != nil {
		if req.PrecioUnitario.IsNegative() {
			return nil, fmt.Errorf("%w: precio_unitario negativo", ErrEntradaInvalida)
		}
		p.PrecioUnitario = *req.PrecioUnitario
	}
	if req.Vigente != nil {
		p.Vigente = *req.Vigente
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, traducirErrorBD(err)
	}
	resp := mapPartida(p)
	return &resp, nil
}

// CambiarVigente toggles vigente directly. Subsumed by the edit-lock policy:
// only partidas never touched by a NOC allow it; versioned lineages manage
// vigente exclusively through the apply engine.
func (s *partidaService) CambiarVigente(ctx context.Context, actor Actor, id uuid.UUID, vigente bool) (*dto.PartidaResponse, error) {
	v := vigente
	return s.Actualizar(ctx, actor, id, dto.ActualizarPartidaRequest{Vigente: &v})
}

// CadenaVersiones walks version_prev_id from the requested version back to
// the root. The chain is returned deepest-first (root first); depth counts
// from the requested version (0) towards the root.
func (s *partidaService) CadenaVersiones(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CadenaVersionesResponse, error) {
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: partida", ErrNoEncontrado)
		}
		return nil, err
	}
	if err := s.acceso.VerificarLectura(ctx, actor.UsuarioID, actor.Rol, cur.ContratoID); err != nil {
		return nil, err
	}

	chain := []model.Partida{*cur}
	seen := map[uuid.UUID]bool{cur.ID: true}
	for cur.VersionPrevID != nil {
		prev, err := s.repo.FindByID(ctx, *cur.VersionPrevID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		if seen[prev.ID] {
			break
		}
		seen[prev.ID] = true
		chain = append(chain, *prev)
		cur = prev
	}

	// chain is currently newest-first; emit root-first with explicit depth.
	out := make([]dto.VersionPartida, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, dto.VersionPartida{
			PartidaResponse: mapPartida(&chain[i]),
			Depth:           i,
		})
	}
	return &dto.CadenaVersionesResponse{Chain: out}, nil
}

func parseUUIDPtr(s *string, campo string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntradaInvalida, campo)
	}
	return &id, nil
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func mapPartida(p *model.Partida) dto.PartidaResponse {
	return dto.PartidaResponse{
		ID:             p.ID.String(),
		ContratoID:     p.ContratoID.String(),
		Item:           p.Item,
		Descripcion:    p.Descripcion,
		FamiliaID:      uuidPtrString(p.FamiliaID),
		SubfamiliaID:   uuidPtrString(p.SubfamiliaID),
		GrupoID:        uuidPtrString(p.GrupoID),
		UnidadID:       uuidPtrString(p.UnidadID),
		Cantidad:       p.Cantidad,
		PrecioUnitario: p.PrecioUnitario,
		Total:          p.Total,
		Vigente:        p.Vigente,
		NocID:          uuidPtrString(p.NocID),
		VersionPrevID:  uuidPtrString(p.VersionPrevID),
		VersionRootID:  uuidPtrString(p.VersionRootID),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}
