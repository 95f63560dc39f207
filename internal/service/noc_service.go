package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/model"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"
	"github.com/strabagdev/control-costos-contrato-app/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const fechaLayout = "2006-01-02"

type NocService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearNocRequest) (*dto.NocResponse, error)
	ListarPorContrato(ctx context.Context, actor Actor, contratoID uuid.UUID) ([]dto.NocResponse, error)
	Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*dto.NocResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarNocRequest) (*dto.NocResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error

	CrearLinea(ctx context.Context, actor Actor, nocID uuid.UUID, req dto.CrearLineaRequest) (*dto.LineaResponse, error)
	ListarLineas(ctx context.Context, actor Actor, nocID uuid.UUID) (*dto.ListaLineasResponse, error)
	ActualizarLinea(ctx context.Context, actor Actor, nocID uuid.UUID, req dto.ActualizarLineaRequest) (*dto.LineaResponse, error)
	EliminarLinea(ctx context.Context, actor Actor, nocID, lineaID uuid.UUID) error

	Aplicar(ctx context.Context, actor Actor, nocID uuid.UUID) (*dto.AplicarNocResponse, error)
}

type nocService struct {
	nocs       repository.NocRepository
	partidas   repository.PartidaRepository
	acceso     AccesoService
	dispatcher *worker.Dispatcher
}

// NewNocService wires the change-order service. dispatcher may be nil; the
// KPI refresh job is then skipped (unit tests, degraded mode without Redis).
func NewNocService(
	nocs repository.NocRepository,
	partidas repository.PartidaRepository,
	acceso AccesoService,
	dispatcher *worker.Dispatcher,
) NocService {
	return &nocService{nocs: nocs, partidas: partidas, acceso: acceso, dispatcher: dispatcher}
}

// runTx opens a transaction when a real DB is present. A nil db runs fn
// directly with a nil tx; repository stubs in unit tests operate in memory.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// cambio models one proposed field revision. A nil proposal keeps the current
// value; zero is a real proposal, not "keep".
type cambio struct {
	valor *decimal.Decimal
}

func propuesta(v *decimal.Decimal) cambio { return cambio{valor: v} }

func (c cambio) sobre(actual decimal.Decimal) decimal.Decimal {
	if c.valor == nil {
		return actual
	}
	return *c.valor
}

// ─── NOC header ──────────────────────────────────────────────────────────────

func (s *nocService) Crear(ctx context.Context, actor Actor, req dto.CrearNocRequest) (*dto.NocResponse, error) {
	contratoID, err := uuid.Parse(req.ContratoID)
	if err != nil {
		return nil, fmt.Errorf("%w: contrato_id", ErrEntradaInvalida)
	}
	if err := s.acceso.VerificarEscritura(ctx, actor.UsuarioID, actor.Rol, contratoID); err != nil {
		return nil, err
	}
	fecha, err := parseFechaPtr(req.Fecha)
	if err != nil {
		return nil, err
	}

	n := &model.Noc{
		ContratoID: contratoID,
		Numero:     req.Numero,
		Motivo:     req.Motivo,
		Fecha:      fecha,
		Status:     model.NocStatusDraft,
	}
	if err := s.nocs.Create(ctx, n); err != nil {
		return nil, traducirErrorBD(err)
	}
	resp := mapNoc(n)
	return &resp, nil
}

func (s *nocService) ListarPorContrato(ctx context.Context, actor Actor, contratoID uuid.UUID) ([]dto.NocResponse, error) {
	if err := s.acceso.VerificarLectura(ctx, actor.UsuarioID, actor.Rol, contratoID); err != nil {
		return nil, err
	}
	nocs, err := s.nocs.ListByContrato(ctx, contratoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NocResponse, 0, len(nocs))
	for i := range nocs {
		out = append(out, mapNoc(&nocs[i]))
	}
	return out, nil
}

func (s *nocService) Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*dto.NocResponse, error) {
	n, err := s.findNocConLectura(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := mapNoc(n)
	return &resp, nil
}

// Actualizar edits the descriptive header only. Numero, motivo and fecha do
// not affect applied partidas, so applied NOCs allow it without dirtying.
func (s *nocService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarNocRequest) (*dto.NocResponse, error) {
	n, err := s.findNocConEscritura(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Numero != nil {
		if *req.Numero == "" {
			return nil, fmt.Errorf("%w: numero no puede ser vacio", ErrEntradaInvalida)
		}
		n.Numero = *req.Numero
	}
	if req.Motivo != nil {
		n.Motivo = req.Motivo
	}
	if req.Fecha != nil {
		fecha, err := parseFechaPtr(req.Fecha)
		if err != nil {
			return nil, err
		}
		n.Fecha = fecha
	}
	if err := s.nocs.Save(ctx, n); err != nil {
		return nil, traducirErrorBD(err)
	}
	resp := mapNoc(n)
	return &resp, nil
}

// Eliminar removes a NOC and its lineas. Blocked once any linea was applied:
// the resulting partida versions reference the NOC and must stay auditable.
func (s *nocService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.findNocConEscritura(ctx, actor, id); err != nil {
		return err
	}
	aplicadas, err := s.nocs.CountLineasAplicadas(ctx, id)
	if err != nil {
		return err
	}
	if aplicadas > 0 {
		return fmt.Errorf("%w: la NOC tiene lineas aplicadas", ErrYaAplicada)
	}
	return s.nocs.Delete(ctx, id)
}

// ─── Lineas ──────────────────────────────────────────────────────────────────

func (s *nocService) CrearLinea(ctx context.Context, actor Actor, nocID uuid.UUID, req dto.CrearLineaRequest) (*dto.LineaResponse, error) {
	n, err := s.findNocConEscritura(ctx, actor, nocID)
	if err != nil {
		return nil, err
	}
	if req.NuevaCantidad == nil && req.NuevoPrecioUnitario == nil {
		return nil, fmt.Errorf("%w: la linea no propone ningun cambio", ErrEntradaInvalida)
	}

	origenID, err := uuid.Parse(req.PartidaOrigenID)
	if err != nil {
		return nil, fmt.Errorf("%w: partida_origen_id", ErrEntradaInvalida)
	}
	origen, err := s.findPartida(ctx, origenID)
	if err != nil {
		return nil, err
	}
	if origen.ContratoID != n.ContratoID {
		return nil, ErrContratoDistinto
	}

	l := &model.NocLinea{
		NocID:               nocID,
		PartidaOrigenID:     origenID,
		NuevaCantidad:       req.NuevaCantidad,
		NuevoPrecioUnitario: req.NuevoPrecioUnitario,
		Observacion:         req.Observacion,
	}
	if err := s.nocs.CreateLinea(ctx, l); err != nil {
		return nil, traducirErrorBD(err)
	}
	if err := s.nocs.MarcarDirtySiAplicada(ctx, nocID); err != nil {
		return nil, err
	}
	l.PartidaOrigen = origen
	resp := mapLinea(l)
	return &resp, nil
}

func (s *nocService) ListarLineas(ctx context.Context, actor Actor, nocID uuid.UUID) (*dto.ListaLineasResponse, error) {
	if _, err := s.findNocConLectura(ctx, actor, nocID); err != nil {
		return nil, err
	}
	lineas, err := s.nocs.ListLineas(ctx, nocID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LineaResponse, 0, len(lineas))
	for i := range lineas {
		out = append(out, mapLinea(&lineas[i]))
	}
	return &dto.ListaLineasResponse{Lines: out}, nil
}

// ActualizarLinea patches a draft linea. Applied lineas are immutable; the
// partida version they produced records exactly what was proposed.
func (s *nocService) ActualizarLinea(ctx context.Context, actor Actor, nocID uuid.UUID, req dto.ActualizarLineaRequest) (*dto.LineaResponse, error) {
	n, err := s.findNocConEscritura(ctx, actor, nocID)
	if err != nil {
		return nil, err
	}
	lineaID, err := uuid.Parse(req.NocLineaID)
	if err != nil {
		return nil, fmt.Errorf("%w: noc_linea_id", ErrEntradaInvalida)
	}
	l, err := s.findLinea(ctx, nocID, lineaID)
	if err != nil {
		return nil, err
	}
	if l.Aplicada() {
		return nil, fmt.Errorf("%w: la linea ya genero una partida", ErrYaAplicada)
	}

	if req.PartidaOrigenID != nil {
		origenID, err := uuid.Parse(*req.PartidaOrigenID)
		if err != nil {
			return nil, fmt.Errorf("%w: partida_origen_id", ErrEntradaInvalida)
		}
		origen, err := s.findPartida(ctx, origenID)
		if err != nil {
			return nil, err
		}
		if origen.ContratoID != n.ContratoID {
			return nil, ErrContratoDistinto
		}
		l.PartidaOrigenID = origenID
	}
	if req.NuevaCantidad != nil {
		l.NuevaCantidad = req.NuevaCantidad
	}
	if req.NuevoPrecioUnitario != nil {
		l.NuevoPrecioUnitario = req.NuevoPrecioUnitario
	}
	if req.Observacion != nil {
		l.Observacion = req.Observacion
	}
	if l.NuevaCantidad == nil && l.NuevoPrecioUnitario == nil {
		return nil, fmt.Errorf("%w: la linea no propone ningun cambio", ErrEntradaInvalida)
	}

	if err := s.nocs.SaveLinea(ctx, l); err != nil {
		return nil, traducirErrorBD(err)
	}
	if err := s.nocs.MarcarDirtySiAplicada(ctx, nocID); err != nil {
		return nil, err
	}
	l.PartidaOrigen = nil
	resp := mapLinea(l)
	return &resp, nil
}

func (s *nocService) EliminarLinea(ctx context.Context, actor Actor, nocID, lineaID uuid.UUID) error {
	if _, err := s.findNocConEscritura(ctx, actor, nocID); err != nil {
		return err
	}
	l, err := s.findLinea(ctx, nocID, lineaID)
	if err != nil {
		return err
	}
	if l.Aplicada() {
		return fmt.Errorf("%w: la linea ya genero una partida", ErrYaAplicada)
	}
	if err := s.nocs.DeleteLinea(ctx, lineaID); err != nil {
		return err
	}
	return s.nocs.MarcarDirtySiAplicada(ctx, nocID)
}

// ─── Apply engine ────────────────────────────────────────────────────────────

// aplicacionLinea carries the per-line state between the validation pass and
// the mutation pass inside the apply transaction.
type aplicacionLinea struct {
	linea  model.NocLinea
	origen *model.Partida
}

// Aplicar executes a NOC atomically: every linea archives its origin partida
// and inserts a successor version, then the NOC flips to applied. All rows
// involved are locked FOR UPDATE first, and every violation is detected
// before the first mutating statement runs, so a failure leaves no partial
// state even without rollback support.
func (s *nocService) Aplicar(ctx context.Context, actor Actor, nocID uuid.UUID) (*dto.AplicarNocResponse, error) {
	n, err := s.findNocConEscritura(ctx, actor, nocID)
	if err != nil {
		return nil, err
	}

	var resultantes []dto.ResultanteLinea
	err = runTx(ctx, s.nocs.DB(), func(tx *gorm.DB) error {
		locked, err := s.nocs.FindForUpdateTx(tx, nocID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: noc", ErrNoEncontrado)
			}
			return err
		}
		if locked.Status == model.NocStatusApplied {
			return fmt.Errorf("%w: la NOC ya fue aplicada", ErrYaAplicada)
		}

		lineas, err := s.nocs.ListLineasForUpdateTx(tx, nocID)
		if err != nil {
			return err
		}
		if len(lineas) == 0 {
			return ErrSinLineas
		}

		// Validation pass. Lock every origin partida and reject the whole
		// NOC on the first violation; nothing has been written yet.
		planes := make([]aplicacionLinea, 0, len(lineas))
		origenesVistos := make(map[uuid.UUID]bool, len(lineas))
		for _, l := range lineas {
			if l.Aplicada() {
				return fmt.Errorf("%w: la linea %s ya genero una partida", ErrYaAplicada, l.ID)
			}
			if l.NuevaCantidad == nil && l.NuevoPrecioUnitario == nil {
				return fmt.Errorf("%w: la linea %s no propone ningun cambio", ErrEntradaInvalida, l.ID)
			}
			origen, err := s.partidas.FindForUpdateTx(tx, l.PartidaOrigenID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: partida origen %s", ErrNoEncontrado, l.PartidaOrigenID)
				}
				return err
			}
			if origen.ContratoID != locked.ContratoID {
				return fmt.Errorf("%w: partida %s", ErrContratoDistinto, origen.ID)
			}
			if !origen.Vigente {
				return fmt.Errorf("%w: partida %s", ErrNoVigente, origen.ID)
			}
			// Two lineas over the same origin would both claim to supersede
			// the same vigente version.
			if origenesVistos[origen.ID] {
				return fmt.Errorf("%w: partida %s referida por mas de una linea", ErrNoVigente, origen.ID)
			}
			origenesVistos[origen.ID] = true
			planes = append(planes, aplicacionLinea{linea: l, origen: origen})
		}

		// Mutation pass. Archive before insert so the one-vigente-per-item
		// partial unique index never sees two live versions.
		for _, plan := range planes {
			origen := plan.origen
			if err := s.partidas.ArchivarTx(tx, origen.ID); err != nil {
				return err
			}
			rootID := origen.RootID()
			prevID := origen.ID
			sucesora := &model.Partida{
				ContratoID:     origen.ContratoID,
				Item:           origen.Item,
				Descripcion:    origen.Descripcion,
				FamiliaID:      origen.FamiliaID,
				SubfamiliaID:   origen.SubfamiliaID,
				GrupoID:        origen.GrupoID,
				UnidadID:       origen.UnidadID,
				Cantidad:       propuesta(plan.linea.NuevaCantidad).sobre(origen.Cantidad),
				PrecioUnitario: propuesta(plan.linea.NuevoPrecioUnitario).sobre(origen.PrecioUnitario),
				Vigente:        true,
				NocID:          &nocID,
				VersionPrevID:  &prevID,
				VersionRootID:  &rootID,
			}
			if err := s.partidas.CreateTx(tx, sucesora); err != nil {
				return err
			}
			if err := s.nocs.SetResultanteTx(tx, plan.linea.ID, sucesora.ID); err != nil {
				return err
			}
			resultantes = append(resultantes, dto.ResultanteLinea{
				NocLineaID:          plan.linea.ID.String(),
				PartidaResultanteID: sucesora.ID.String(),
			})
		}

		return s.nocs.MarcarAplicadaTx(tx, nocID, actor.UsuarioID)
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		payload := worker.ResumenJobPayload{ContratoID: n.ContratoID.String()}
		if err := s.dispatcher.EnqueueResumen(ctx, payload); err != nil {
			log.Warn().Err(err).
				Str("contrato_id", n.ContratoID.String()).
				Msg("no se pudo encolar el recalculo de KPIs")
		}
	}

	return &dto.AplicarNocResponse{
		OK:          true,
		Applied:     len(resultantes),
		Resultantes: resultantes,
	}, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (s *nocService) findNoc(ctx context.Context, id uuid.UUID) (*model.Noc, error) {
	n, err := s.nocs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: noc", ErrNoEncontrado)
		}
		return nil, err
	}
	return n, nil
}

func (s *nocService) findNocConLectura(ctx context.Context, actor Actor, id uuid.UUID) (*model.Noc, error) {
	n, err := s.findNoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.acceso.VerificarLectura(ctx, actor.UsuarioID, actor.Rol, n.ContratoID); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *nocService) findNocConEscritura(ctx context.Context, actor Actor, id uuid.UUID) (*model.Noc, error) {
	n, err := s.findNoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.acceso.VerificarEscritura(ctx, actor.UsuarioID, actor.Rol, n.ContratoID); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *nocService) findLinea(ctx context.Context, nocID, lineaID uuid.UUID) (*model.NocLinea, error) {
	l, err := s.nocs.FindLineaByID(ctx, nocID, lineaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: noc_linea", ErrNoEncontrado)
		}
		return nil, err
	}
	return l, nil
}

func (s *nocService) findPartida(ctx context.Context, id uuid.UUID) (*model.Partida, error) {
	p, err := s.partidas.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: partida", ErrNoEncontrado)
		}
		return nil, err
	}
	return p, nil
}

func parseFechaPtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(fechaLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha debe ser YYYY-MM-DD", ErrEntradaInvalida)
	}
	return &t, nil
}

func mapNoc(n *model.Noc) dto.NocResponse {
	var fecha *string
	if n.Fecha != nil {
		f := n.Fecha.Format(fechaLayout)
		fecha = &f
	}
	var appliedAt *string
	if n.AppliedAt != nil {
		a := n.AppliedAt.Format(time.RFC3339)
		appliedAt = &a
	}
	return dto.NocResponse{
		ID:         n.ID.String(),
		ContratoID: n.ContratoID.String(),
		Numero:     n.Numero,
		Motivo:     n.Motivo,
		Fecha:      fecha,
		Status:     n.Status,
		IsDirty:    n.IsDirty,
		AppliedAt:  appliedAt,
		AppliedBy:  uuidPtrString(n.AppliedBy),
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
}

func mapLinea(l *model.NocLinea) dto.LineaResponse {
	resp := dto.LineaResponse{
		ID:                  l.ID.String(),
		NocID:               l.NocID.String(),
		PartidaOrigenID:     l.PartidaOrigenID.String(),
		PartidaResultanteID: uuidPtrString(l.PartidaResultanteID),
		NuevaCantidad:       l.NuevaCantidad,
		NuevoPrecioUnitario: l.NuevoPrecioUnitario,
		Observacion:         l.Observacion,
		CreatedAt:           l.CreatedAt.Format(time.RFC3339),
	}
	if o := l.PartidaOrigen; o != nil {
		item := o.Item
		cantidad := o.Cantidad
		precio := o.PrecioUnitario
		total := o.Total
		vigente := o.Vigente
		resp.OrigenItem = &item
		resp.OrigenDescripcion = o.Descripcion
		resp.OrigenCantidad = &cantidad
		resp.OrigenPrecioUnitario = &precio
		resp.OrigenTotal = &total
		resp.OrigenVigente = &vigente
	}
	return resp
}
