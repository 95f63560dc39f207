package repository

import (
	"context"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContratoConteos pairs a contrato with its dependency counts.
type ContratoConteos struct {
	Contrato       model.Contrato
	PartidasCount  int64
	NocCount       int64
	UserLinksCount int64
}

// ResumenContrato aggregates the dashboard KPIs of one contrato.
type ResumenContrato struct {
	TotalBase    decimal.Decimal
	TotalVigente decimal.Decimal
	NocCount     int64
}

type ContratoRepository interface {
	Create(ctx context.Context, c *model.Contrato) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Contrato, error)
	ListWithCounts(ctx context.Context) ([]ContratoConteos, error)
	Save(ctx context.Context, c *model.Contrato) error
	Delete(ctx context.Context, id uuid.UUID) error
	Resumen(ctx context.Context, contratoID uuid.UUID) (*ResumenContrato, error)
	DB() *gorm.DB
}

type contratoRepo struct{ db *gorm.DB }

func NewContratoRepository(db *gorm.DB) ContratoRepository { return &contratoRepo{db: db} }

func (r *contratoRepo) Create(ctx context.Context, c *model.Contrato) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contratoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Contrato, error) {
	var c model.Contrato
	err := r.db.WithContext(ctx).Where("contrato_id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contratoRepo) ListWithCounts(ctx context.Context) ([]ContratoConteos, error) {
	type row struct {
		model.Contrato
		PartidasCount  int64
		NocCount       int64
		UserLinksCount int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Raw(
		`SELECT c.*,
		        COALESCE(p.cnt, 0)  AS partidas_count,
		        COALESCE(n.cnt, 0)  AS noc_count,
		        COALESCE(uc.cnt, 0) AS user_links_count
		 FROM contrato c
		 LEFT JOIN (SELECT contrato_id, COUNT(*) cnt FROM partida GROUP BY contrato_id) p
		        ON p.contrato_id = c.contrato_id
		 LEFT JOIN (SELECT contrato_id, COUNT(*) cnt FROM noc GROUP BY contrato_id) n
		        ON n.contrato_id = c.contrato_id
		 LEFT JOIN (SELECT contrato_id, COUNT(*) cnt FROM user_contract GROUP BY contrato_id) uc
		        ON uc.contrato_id = c.contrato_id
		 ORDER BY c.nombre ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ContratoConteos, 0, len(rows))
	for _, rw := range rows {
		out = append(out, ContratoConteos{
			Contrato:       rw.Contrato,
			PartidasCount:  rw.PartidasCount,
			NocCount:       rw.NocCount,
			UserLinksCount: rw.UserLinksCount,
		})
	}
	return out, nil
}

func (r *contratoRepo) Save(ctx context.Context, c *model.Contrato) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *contratoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("contrato_id = ?", id).Delete(&model.Contrato{}).Error
}

func (r *contratoRepo) Resumen(ctx context.Context, contratoID uuid.UUID) (*ResumenContrato, error) {
	var res ResumenContrato
	err := r.db.WithContext(ctx).Raw(
		`SELECT
		   COALESCE(SUM(total) FILTER (WHERE noc_id IS NULL), 0) AS total_base,
		   COALESCE(SUM(total) FILTER (WHERE vigente = true), 0) AS total_vigente
		 FROM partida
		 WHERE contrato_id = ?`, contratoID,
	).Scan(&res).Error
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(&model.Noc{}).
		Where("contrato_id = ?", contratoID).
		Count(&res.NocCount).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *contratoRepo) DB() *gorm.DB { return r.db }
