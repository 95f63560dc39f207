package repository

import (
	"context"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserContractRepository manages the usuario ↔ contrato grants the access
// gate consults.
type UserContractRepository interface {
	Grant(ctx context.Context, usuarioID, contratoID uuid.UUID) error
	Revoke(ctx context.Context, usuarioID, contratoID uuid.UUID) error
	HasAccess(ctx context.Context, usuarioID, contratoID uuid.UUID) (bool, error)
	ListUsuariosByContrato(ctx context.Context, contratoID uuid.UUID) ([]uuid.UUID, error)
	ListContratosByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Contrato, error)
	ExisteByContrato(ctx context.Context, contratoID uuid.UUID) (bool, error)
}

type userContractRepo struct{ db *gorm.DB }

func NewUserContractRepository(db *gorm.DB) UserContractRepository {
	return &userContractRepo{db: db}
}

func (r *userContractRepo) Grant(ctx context.Context, usuarioID, contratoID uuid.UUID) error {
	// Idempotent: granting twice is a no-op.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserContract{UsuarioID: usuarioID, ContratoID: contratoID}).Error
}

func (r *userContractRepo) Revoke(ctx context.Context, usuarioID, contratoID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("usuario_id = ? AND contrato_id = ?", usuarioID, contratoID).
		Delete(&model.UserContract{}).Error
}

func (r *userContractRepo) HasAccess(ctx context.Context, usuarioID, contratoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserContract{}).
		Where("usuario_id = ? AND contrato_id = ?", usuarioID, contratoID).
		Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *userContractRepo) ListUsuariosByContrato(ctx context.Context, contratoID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.UserContract{}).
		Where("contrato_id = ?", contratoID).
		Order("usuario_id").
		Pluck("usuario_id", &ids).Error
	return ids, err
}

func (r *userContractRepo) ListContratosByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Contrato, error) {
	var contratos []model.Contrato
	err := r.db.WithContext(ctx).
		Joins("JOIN user_contract uc ON uc.contrato_id = contrato.contrato_id").
		Where("uc.usuario_id = ?", usuarioID).
		Order("contrato.nombre ASC").
		Find(&contratos).Error
	return contratos, err
}

func (r *userContractRepo) ExisteByContrato(ctx context.Context, contratoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserContract{}).
		Where("contrato_id = ?", contratoID).
		Limit(1).Count(&count).Error
	return count > 0, err
}
