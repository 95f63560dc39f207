package dto

// ─── Contratos ───────────────────────────────────────────────────────────────

type CrearContratoRequest struct {
	Nombre      string  `json:"nombre" validate:"required"`
	Descripcion *string `json:"descripcion"`
}

type ActualizarContratoRequest struct {
	Nombre      string  `json:"nombre" validate:"required"`
	Descripcion *string `json:"descripcion"`
}

// ContratoResponse includes dependency counts used by the admin screen and by
// the deletion guard.
type ContratoResponse struct {
	ID             string  `json:"contrato_id"`
	Nombre         string  `json:"nombre"`
	Descripcion    *string `json:"descripcion"`
	PartidasCount  int64   `json:"partidas_count"`
	NocCount       int64   `json:"noc_count"`
	UserLinksCount int64   `json:"user_links_count"`
	CreatedAt      string  `json:"created_at"`
}

// ─── Grants ──────────────────────────────────────────────────────────────────

type GrantRequest struct {
	UsuarioID  string `json:"usuario_id"  validate:"required,uuid"`
	ContratoID string `json:"contrato_id" validate:"required,uuid"`
}
