package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Partida is one budgeted cost line at a point in time. Rows are immutable
// once superseded: applying a NOC creates a new version and archives the old
// one (vigente=false). The chain is stored inline via version_prev_id /
// version_root_id, never in a separate history table.
//
// Invariant: within a lineage (same version_root_id) at most one row has
// vigente=true. Enforced by a partial unique index on (contrato_id, item)
// WHERE vigente (see infra.applySchemaPatches) plus the apply engine's
// archive-before-insert ordering.
type Partida struct {
	ID          uuid.UUID `gorm:"column:partida_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ContratoID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Item        string    `gorm:"not null"`
	Descripcion *string

	// Clasificacion — opaque catalog references, nullable
	FamiliaID    *uuid.UUID `gorm:"type:uuid"`
	SubfamiliaID *uuid.UUID `gorm:"type:uuid"`
	GrupoID      *uuid.UUID `gorm:"type:uuid"`
	UnidadID     *uuid.UUID `gorm:"type:uuid"`

	Cantidad       decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	// Total is always cantidad * precio_unitario, recomputed in BeforeSave.
	// No mutation path sets it directly.
	Total decimal.Decimal `gorm:"type:decimal(16,2);not null"`

	Vigente bool `gorm:"not null;default:true;index"`

	// NocID points at the NOC whose apply produced this version; nil for
	// rows created directly (roots never touched by a change order).
	NocID *uuid.UUID `gorm:"type:uuid;index"`

	VersionPrevID *uuid.UUID `gorm:"type:uuid"`
	VersionRootID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
}

func (Partida) TableName() string { return "partida" }

// BeforeCreate assigns the ID client-side so the self-referential
// version_root_id of a root version can be written in the same INSERT.
func (p *Partida) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.VersionRootID == nil {
		root := p.ID
		p.VersionRootID = &root
	}
	return nil
}

// BeforeSave derives Total on every write path.
func (p *Partida) BeforeSave(_ *gorm.DB) error {
	p.Total = p.Cantidad.Mul(p.PrecioUnitario)
	return nil
}

// Tocada reports whether this partida has ever been touched by a change
// order. Untouched partidas keep their full field set editable; touched ones
// lock item, clasificacion and vigente.
func (p *Partida) Tocada() bool {
	return p.NocID != nil || p.VersionPrevID != nil
}

// RootID resolves the lineage root, falling back to the row's own ID for
// legacy rows persisted before version_root_id existed.
func (p *Partida) RootID() uuid.UUID {
	if p.VersionRootID != nil {
		return *p.VersionRootID
	}
	return p.ID
}
