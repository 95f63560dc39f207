package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contrato is the top-level scope: it owns partidas, NOCs and user grants.
// It cannot be deleted while any of those exist.
type Contrato struct {
	ID          uuid.UUID `gorm:"column:contrato_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	CreatedAt   time.Time
}

func (Contrato) TableName() string { return "contrato" }

func (c *Contrato) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
