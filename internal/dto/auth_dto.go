package dto

// ─── Auth ────────────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	User         UsuarioResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

type CrearUsuarioRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Nombre   string `json:"nombre"   validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Rol      string `json:"rol"      validate:"required,oneof=admin editor viewer"`
}

type ActualizarUsuarioRequest struct {
	Nombre   *string `json:"nombre"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Rol      *string `json:"rol"      validate:"omitempty,oneof=admin editor viewer"`
}

type UsuarioResponse struct {
	ID     string `json:"usuario_id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	Activo bool   `json:"activo"`
}
