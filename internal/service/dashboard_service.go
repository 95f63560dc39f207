package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"
	"github.com/strabagdev/control-costos-contrato-app/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type DashboardService interface {
	KPIs(ctx context.Context, actor Actor, contratoID uuid.UUID) (*dto.KPIResponse, error)
}

type dashboardService struct {
	contratos repository.ContratoRepository
	acceso    AccesoService
	rdb       *redis.Client
}

// NewDashboardService builds the KPI read side. rdb may be nil; reads then
// always hit the database.
func NewDashboardService(contratos repository.ContratoRepository, acceso AccesoService, rdb *redis.Client) DashboardService {
	return &dashboardService{contratos: contratos, acceso: acceso, rdb: rdb}
}

// KPIs serves the dashboard summary of one contrato, read-through cached in
// Redis. A cache miss or a Redis outage falls back to the Resumen query.
func (s *dashboardService) KPIs(ctx context.Context, actor Actor, contratoID uuid.UUID) (*dto.KPIResponse, error) {
	if err := s.acceso.VerificarLectura(ctx, actor.UsuarioID, actor.Rol, contratoID); err != nil {
		return nil, err
	}

	key := worker.KPICacheKey(contratoID.String())
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			var kpis dto.KPIResponse
			if err := json.Unmarshal([]byte(cached), &kpis); err == nil {
				return &kpis, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("contrato_id", contratoID.String()).Msg("lectura de cache de KPIs fallida")
		}
	}

	res, err := s.contratos.Resumen(ctx, contratoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contrato", ErrNoEncontrado)
		}
		return nil, err
	}
	kpis := &dto.KPIResponse{
		ContratoID:   contratoID.String(),
		TotalBase:    res.TotalBase,
		TotalVigente: res.TotalVigente,
		NocCount:     res.NocCount,
	}

	if s.rdb != nil {
		if encoded, err := json.Marshal(kpis); err == nil {
			if err := s.rdb.Set(ctx, key, encoded, worker.KPICacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("contrato_id", contratoID.String()).Msg("escritura de cache de KPIs fallida")
			}
		}
	}
	return kpis, nil
}
