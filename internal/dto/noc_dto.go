package dto

import "github.com/shopspring/decimal"

// ─── NOC header ──────────────────────────────────────────────────────────────

type CrearNocRequest struct {
	ContratoID string  `json:"contrato_id" validate:"required,uuid"`
	Numero     string  `json:"numero"      validate:"required"`
	Motivo     *string `json:"motivo"`
	// Fecha is an ISO date (YYYY-MM-DD); unparseable values are rejected.
	Fecha *string `json:"fecha"`
}

type ActualizarNocRequest struct {
	Numero *string `json:"numero"`
	Motivo *string `json:"motivo"`
	Fecha  *string `json:"fecha"`
}

type NocResponse struct {
	ID         string  `json:"noc_id"`
	ContratoID string  `json:"contrato_id"`
	Numero     string  `json:"numero"`
	Motivo     *string `json:"motivo"`
	Fecha      *string `json:"fecha"`
	Status     string  `json:"status"`
	IsDirty    bool    `json:"is_dirty"`
	AppliedAt  *string `json:"applied_at"`
	AppliedBy  *string `json:"applied_by"`
	CreatedAt  string  `json:"created_at"`
}

// ─── Lineas ──────────────────────────────────────────────────────────────────

// CrearLineaRequest proposes one revision. A nil nueva_cantidad or
// nuevo_precio_unitario means "keep the current value"; both nil is rejected.
type CrearLineaRequest struct {
	PartidaOrigenID     string           `json:"partida_origen_id" validate:"required,uuid"`
	NuevaCantidad       *decimal.Decimal `json:"nueva_cantidad"        validate:"omitempty,min=0"`
	NuevoPrecioUnitario *decimal.Decimal `json:"nuevo_precio_unitario" validate:"omitempty,min=0"`
	Observacion         *string          `json:"observacion"`
}

type ActualizarLineaRequest struct {
	NocLineaID          string           `json:"noc_linea_id" validate:"required,uuid"`
	PartidaOrigenID     *string          `json:"partida_origen_id" validate:"omitempty,uuid"`
	NuevaCantidad       *decimal.Decimal `json:"nueva_cantidad"        validate:"omitempty,min=0"`
	NuevoPrecioUnitario *decimal.Decimal `json:"nuevo_precio_unitario" validate:"omitempty,min=0"`
	Observacion         *string          `json:"observacion"`
}

type EliminarLineaRequest struct {
	NocLineaID string `json:"noc_linea_id" validate:"required,uuid"`
}

// LineaResponse joins the origin partida's current snapshot for display; the
// origen_* fields are read-only convenience data, not authoritative.
type LineaResponse struct {
	ID                  string           `json:"noc_linea_id"`
	NocID               string           `json:"noc_id"`
	PartidaOrigenID     string           `json:"partida_origen_id"`
	PartidaResultanteID *string          `json:"partida_resultante_id"`
	NuevaCantidad       *decimal.Decimal `json:"nueva_cantidad"`
	NuevoPrecioUnitario *decimal.Decimal `json:"nuevo_precio_unitario"`
	Observacion         *string          `json:"observacion"`
	CreatedAt           string           `json:"created_at"`

	OrigenItem           *string          `json:"origen_item"`
	OrigenDescripcion    *string          `json:"origen_descripcion"`
	OrigenCantidad       *decimal.Decimal `json:"origen_cantidad"`
	OrigenPrecioUnitario *decimal.Decimal `json:"origen_precio_unitario"`
	OrigenTotal          *decimal.Decimal `json:"origen_total"`
	OrigenVigente        *bool            `json:"origen_vigente"`
}

type ListaLineasResponse struct {
	Lines []LineaResponse `json:"lines"`
}

// ─── Apply ───────────────────────────────────────────────────────────────────

type ResultanteLinea struct {
	NocLineaID          string `json:"noc_linea_id"`
	PartidaResultanteID string `json:"partida_resultante_id"`
}

type AplicarNocResponse struct {
	OK          bool              `json:"ok"`
	Applied     int               `json:"applied"`
	Resultantes []ResultanteLinea `json:"resultantes"`
}
