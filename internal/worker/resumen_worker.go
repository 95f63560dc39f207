package worker

// resumen_worker.go
// Recomputes the dashboard summary of one contrato after an apply or a bulk
// partida edit, then refreshes the Redis cache so reads stay cheap.

import (
	"context"
	"encoding/json"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ResumenJobPayload is the job envelope sent to QueueResumen.
type ResumenJobPayload struct {
	ContratoID string `json:"contrato_id"`
}

// ResumenWorker recomputes contrato KPIs and writes them through to Redis.
type ResumenWorker struct {
	contratoRepo repository.ContratoRepository
	rdb          *redis.Client
}

func NewResumenWorker(contratoRepo repository.ContratoRepository, rdb *redis.Client) *ResumenWorker {
	return &ResumenWorker{contratoRepo: contratoRepo, rdb: rdb}
}

func (w *ResumenWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ResumenJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("resumen_worker: invalid payload")
		return
	}

	contratoID, err := uuid.Parse(payload.ContratoID)
	if err != nil {
		log.Error().Str("contrato_id", payload.ContratoID).Msg("resumen_worker: invalid contrato_id")
		return
	}

	res, err := w.contratoRepo.Resumen(ctx, contratoID)
	if err != nil {
		log.Error().Err(err).Str("contrato_id", payload.ContratoID).Msg("resumen_worker: resumen query failed")
		return
	}

	kpis := dto.KPIResponse{
		ContratoID:   payload.ContratoID,
		TotalBase:    res.TotalBase,
		TotalVigente: res.TotalVigente,
		NocCount:     res.NocCount,
	}
	encoded, err := json.Marshal(kpis)
	if err != nil {
		log.Error().Err(err).Msg("resumen_worker: marshal failed")
		return
	}

	if err := w.rdb.Set(ctx, KPICacheKey(payload.ContratoID), encoded, KPICacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("contrato_id", payload.ContratoID).Msg("resumen_worker: cache write failed")
		return
	}
	log.Info().Str("contrato_id", payload.ContratoID).Msg("resumen_worker: KPIs refreshed")
}
