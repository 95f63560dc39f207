package repository

import (
	"context"
	"time"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NocRepository defines data access for change orders and their lineas.
type NocRepository interface {
	Create(ctx context.Context, n *model.Noc) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Noc, error)
	ListByContrato(ctx context.Context, contratoID uuid.UUID) ([]model.Noc, error)
	Save(ctx context.Context, n *model.Noc) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExisteByContrato(ctx context.Context, contratoID uuid.UUID) (bool, error)
	// MarcarDirtySiAplicada flags pending-but-unapplied changes after lineas
	// of an applied NOC are edited. No-op while the NOC is still draft.
	MarcarDirtySiAplicada(ctx context.Context, nocID uuid.UUID) error

	CreateLinea(ctx context.Context, l *model.NocLinea) error
	FindLineaByID(ctx context.Context, nocID, lineaID uuid.UUID) (*model.NocLinea, error)
	SaveLinea(ctx context.Context, l *model.NocLinea) error
	DeleteLinea(ctx context.Context, lineaID uuid.UUID) error
	// ListLineas returns lineas in creation order with the origin partida
	// snapshot preloaded for display.
	ListLineas(ctx context.Context, nocID uuid.UUID) ([]model.NocLinea, error)
	CountLineasAplicadas(ctx context.Context, nocID uuid.UUID) (int64, error)

	// Tx variants used by the apply engine.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Noc, error)
	ListLineasForUpdateTx(tx *gorm.DB, nocID uuid.UUID) ([]model.NocLinea, error)
	SetResultanteTx(tx *gorm.DB, lineaID, partidaID uuid.UUID) error
	MarcarAplicadaTx(tx *gorm.DB, nocID, usuarioID uuid.UUID) error

	DB() *gorm.DB
}

type nocRepo struct{ db *gorm.DB }

func NewNocRepository(db *gorm.DB) NocRepository { return &nocRepo{db: db} }

func (r *nocRepo) Create(ctx context.Context, n *model.Noc) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *nocRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Noc, error) {
	var n model.Noc
	err := r.db.WithContext(ctx).Where("noc_id = ?", id).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *nocRepo) ListByContrato(ctx context.Context, contratoID uuid.UUID) ([]model.Noc, error) {
	var nocs []model.Noc
	err := r.db.WithContext(ctx).
		Where("contrato_id = ?", contratoID).
		Order("COALESCE(fecha, created_at::date) DESC, created_at DESC").
		Find(&nocs).Error
	return nocs, err
}

func (r *nocRepo) Save(ctx context.Context, n *model.Noc) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *nocRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("noc_id = ?", id).Delete(&model.NocLinea{}).Error; err != nil {
			return err
		}
		return tx.Where("noc_id = ?", id).Delete(&model.Noc{}).Error
	})
}

func (r *nocRepo) ExisteByContrato(ctx context.Context, contratoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Noc{}).
		Where("contrato_id = ?", contratoID).
		Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *nocRepo) MarcarDirtySiAplicada(ctx context.Context, nocID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE noc
		 SET is_dirty = CASE WHEN status = ? THEN true ELSE is_dirty END
		 WHERE noc_id = ?`,
		model.NocStatusApplied, nocID,
	).Error
}

func (r *nocRepo) CreateLinea(ctx context.Context, l *model.NocLinea) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *nocRepo) FindLineaByID(ctx context.Context, nocID, lineaID uuid.UUID) (*model.NocLinea, error) {
	var l model.NocLinea
	err := r.db.WithContext(ctx).
		Where("noc_linea_id = ? AND noc_id = ?", lineaID, nocID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *nocRepo) SaveLinea(ctx context.Context, l *model.NocLinea) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *nocRepo) DeleteLinea(ctx context.Context, lineaID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("noc_linea_id = ?", lineaID).Delete(&model.NocLinea{}).Error
}

func (r *nocRepo) ListLineas(ctx context.Context, nocID uuid.UUID) ([]model.NocLinea, error) {
	var lineas []model.NocLinea
	err := r.db.WithContext(ctx).
		Preload("PartidaOrigen").
		Where("noc_id = ?", nocID).
		Order("created_at ASC").
		Find(&lineas).Error
	return lineas, err
}

func (r *nocRepo) CountLineasAplicadas(ctx context.Context, nocID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.NocLinea{}).
		Where("noc_id = ? AND partida_resultante_id IS NOT NULL", nocID).
		Count(&count).Error
	return count, err
}

func (r *nocRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Noc, error) {
	var n model.Noc
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("noc_id = ?", id).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *nocRepo) ListLineasForUpdateTx(tx *gorm.DB, nocID uuid.UUID) ([]model.NocLinea, error) {
	var lineas []model.NocLinea
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("noc_id = ?", nocID).
		Order("created_at ASC").
		Find(&lineas).Error
	return lineas, err
}

func (r *nocRepo) SetResultanteTx(tx *gorm.DB, lineaID, partidaID uuid.UUID) error {
	return tx.Model(&model.NocLinea{}).
		Where("noc_linea_id = ?", lineaID).
		Update("partida_resultante_id", partidaID).Error
}

func (r *nocRepo) MarcarAplicadaTx(tx *gorm.DB, nocID, usuarioID uuid.UUID) error {
	now := time.Now()
	return tx.Model(&model.Noc{}).
		Where("noc_id = ?", nocID).
		Updates(map[string]interface{}{
			"status":     model.NocStatusApplied,
			"is_dirty":   false,
			"applied_at": now,
			"applied_by": usuarioID,
		}).Error
}

func (r *nocRepo) DB() *gorm.DB { return r.db }
