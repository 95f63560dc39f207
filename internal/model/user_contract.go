package model

import (
	"time"

	"github.com/google/uuid"
)

// UserContract grants a non-admin usuario access to one contrato.
type UserContract struct {
	UsuarioID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContratoID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
}

func (UserContract) TableName() string { return "user_contract" }
