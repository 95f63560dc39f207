package repository

import (
	"context"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartidaRepository defines data access for budget line items and their
// version chains. Services depend on this interface, not on the concrete GORM
// implementation, enabling unit testing via stubs.
type PartidaRepository interface {
	Create(ctx context.Context, p *model.Partida) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partida, error)
	ListByContrato(ctx context.Context, contratoID uuid.UUID) ([]model.Partida, error)
	Save(ctx context.Context, p *model.Partida) error
	ExisteByContrato(ctx context.Context, contratoID uuid.UUID) (bool, error)

	// Tx variants used by the apply engine; callers pass the tx instance.
	// FindForUpdateTx takes a FOR UPDATE row lock.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Partida, error)
	CreateTx(tx *gorm.DB, p *model.Partida) error
	// ArchivarTx retires a superseded version (vigente = false).
	ArchivarTx(tx *gorm.DB, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type partidaRepo struct{ db *gorm.DB }

func NewPartidaRepository(db *gorm.DB) PartidaRepository { return &partidaRepo{db: db} }

func (r *partidaRepo) Create(ctx context.Context, p *model.Partida) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *partidaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Partida, error) {
	var p model.Partida
	err := r.db.WithContext(ctx).Where("partida_id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partidaRepo) ListByContrato(ctx context.Context, contratoID uuid.UUID) ([]model.Partida, error) {
	var partidas []model.Partida
	err := r.db.WithContext(ctx).
		Where("contrato_id = ?", contratoID).
		Order("item ASC, created_at ASC").
		Find(&partidas).Error
	return partidas, err
}

func (r *partidaRepo) Save(ctx context.Context, p *model.Partida) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *partidaRepo) ExisteByContrato(ctx context.Context, contratoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Partida{}).
		Where("contrato_id = ?", contratoID).
		Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *partidaRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Partida, error) {
	var p model.Partida
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("partida_id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partidaRepo) CreateTx(tx *gorm.DB, p *model.Partida) error {
	return tx.Create(p).Error
}

func (r *partidaRepo) ArchivarTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Partida{}).
		Where("partida_id = ?", id).
		Update("vigente", false).Error
}

func (r *partidaRepo) DB() *gorm.DB { return r.db }
