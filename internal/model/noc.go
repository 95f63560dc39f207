package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NOC status values. The only transition is draft → applied, exactly once.
const (
	NocStatusDraft   = "draft"
	NocStatusApplied = "applied"
)

// Noc (Nota de Cambio) is an ordered batch of proposed revisions to partidas
// within one contrato, applied atomically by the apply engine.
type Noc struct {
	ID         uuid.UUID `gorm:"column:noc_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ContratoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Numero     string    `gorm:"not null"`
	Motivo     *string
	Fecha      *time.Time `gorm:"type:date"`
	Status     string     `gorm:"type:varchar(20);not null;default:'draft'"`
	// IsDirty flags line edits made after the NOC was applied. It is a
	// signal for operators only; nothing re-applies automatically.
	IsDirty   bool `gorm:"not null;default:false"`
	AppliedAt *time.Time
	AppliedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}

func (Noc) TableName() string { return "noc" }

func (n *Noc) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = NocStatusDraft
	}
	return nil
}
