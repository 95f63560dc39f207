package dto

import "github.com/shopspring/decimal"

// ─── Partidas ────────────────────────────────────────────────────────────────

type CrearPartidaRequest struct {
	ContratoID     string          `json:"contrato_id"     validate:"required,uuid"`
	Item           string          `json:"item"            validate:"required"`
	Descripcion    *string         `json:"descripcion"`
	FamiliaID      *string         `json:"familia_id"      validate:"omitempty,uuid"`
	SubfamiliaID   *string         `json:"subfamilia_id"   validate:"omitempty,uuid"`
	GrupoID        *string         `json:"grupo_id"        validate:"omitempty,uuid"`
	UnidadID       *string         `json:"unidad_id"       validate:"omitempty,uuid"`
	Cantidad       decimal.Decimal `json:"cantidad"        validate:"min=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
}

// ActualizarPartidaRequest carries PATCH semantics: nil fields keep their
// current value. Item, clasificacion and vigente are only editable while the
// partida has never been touched by a NOC.
type ActualizarPartidaRequest struct {
	Item           *string          `json:"item"`
	Descripcion    *string          `json:"descripcion"`
	FamiliaID      *string          `json:"familia_id"      validate:"omitempty,uuid"`
	SubfamiliaID   *string          `json:"subfamilia_id"   validate:"omitempty,uuid"`
	GrupoID        *string          `json:"grupo_id"        validate:"omitempty,uuid"`
	UnidadID       *string          `json:"unidad_id"       validate:"omitempty,uuid"`
	Cantidad       *decimal.Decimal `json:"cantidad"        validate:"omitempty,min=0"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario" validate:"omitempty,min=0"`
	Vigente        *bool            `json:"vigente"`
}

type CambiarVigenteRequest struct {
	Vigente *bool `json:"vigente" validate:"required"`
}

type PartidaResponse struct {
	ID             string          `json:"partida_id"`
	ContratoID     string          `json:"contrato_id"`
	Item           string          `json:"item"`
	Descripcion    *string         `json:"descripcion"`
	FamiliaID      *string         `json:"familia_id"`
	SubfamiliaID   *string         `json:"subfamilia_id"`
	GrupoID        *string         `json:"grupo_id"`
	UnidadID       *string         `json:"unidad_id"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Total          decimal.Decimal `json:"total"`
	Vigente        bool            `json:"vigente"`
	NocID          *string         `json:"noc_id"`
	VersionPrevID  *string         `json:"version_prev_id"`
	VersionRootID  *string         `json:"version_root_id"`
	CreatedAt      string          `json:"created_at"`
}

// VersionPartida is one entry of a version chain. Depth counts from the
// requested version (0) back towards the root; the chain is returned
// deepest-first, so the root comes first.
type VersionPartida struct {
	PartidaResponse
	Depth int `json:"depth"`
}

type CadenaVersionesResponse struct {
	Chain []VersionPartida `json:"chain"`
}
