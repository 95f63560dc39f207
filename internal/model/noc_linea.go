package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NocLinea is one proposed revision inside a NOC. NuevaCantidad and
// NuevoPrecioUnitario are nullable: nil means "keep the current value" of the
// origin partida (the engine resolves this explicitly, see service.cambio).
//
// A non-nil PartidaResultanteID marks the line as applied; applied lines are
// immutable.
type NocLinea struct {
	ID                  uuid.UUID        `gorm:"column:noc_linea_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	NocID               uuid.UUID        `gorm:"type:uuid;not null;index"`
	PartidaOrigenID     uuid.UUID        `gorm:"type:uuid;not null"`
	PartidaResultanteID *uuid.UUID       `gorm:"type:uuid"`
	NuevaCantidad       *decimal.Decimal `gorm:"type:decimal(14,4)"`
	NuevoPrecioUnitario *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Observacion         *string
	CreatedAt           time.Time

	// Read-only join for listings; never authoritative.
	PartidaOrigen *Partida `gorm:"foreignKey:PartidaOrigenID"`
}

func (NocLinea) TableName() string { return "noc_linea" }

func (l *NocLinea) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Aplicada reports whether this line already produced a partida.
func (l *NocLinea) Aplicada() bool { return l.PartidaResultanteID != nil }
