package handler

import (
	"net/http"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/gin-gonic/gin"
)

// UserContractsHandler manages usuario-contrato grants (admin only) and the
// self-service "my contracts" listing.
type UserContractsHandler struct{ svc service.AccesoService }

func NewUserContractsHandler(svc service.AccesoService) *UserContractsHandler {
	return &UserContractsHandler{svc: svc}
}

// Asignar godoc
// @Summary Asigna un contrato a un usuario
// @Description Idempotente: asignar dos veces no falla.
// @Tags user-contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.GrantRequest true "Asignacion"
// @Success 201 {object} map[string]bool
// @Failure 404 {object} apierror.APIError
// @Router /v1/user-contracts [post]
func (h *UserContractsHandler) Asignar(c *gin.Context) {
	var req dto.GrantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := parseUUIDBody(c, req.UsuarioID, "usuario_id")
	if err != nil {
		return
	}
	contratoID, err := parseUUIDBody(c, req.ContratoID, "contrato_id")
	if err != nil {
		return
	}
	if err := h.svc.Asignar(c.Request.Context(), usuarioID, contratoID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *UserContractsHandler) Revocar(c *gin.Context) {
	var req dto.GrantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := parseUUIDBody(c, req.UsuarioID, "usuario_id")
	if err != nil {
		return
	}
	contratoID, err := parseUUIDBody(c, req.ContratoID, "contrato_id")
	if err != nil {
		return
	}
	if err := h.svc.Revocar(c.Request.Context(), usuarioID, contratoID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UsuariosDelContrato lists the usuario IDs granted on one contrato.
func (h *UserContractsHandler) UsuariosDelContrato(c *gin.Context) {
	contratoID, ok := parseContratoQuery(c)
	if !ok {
		return
	}
	ids, err := h.svc.UsuariosDe(c.Request.Context(), contratoID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	c.JSON(http.StatusOK, gin.H{"usuario_ids": out})
}

// MisContratos godoc
// @Summary Contratos visibles para el usuario autenticado
// @Tags user-contracts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} map[string]string
// @Router /v1/me/contratos [get]
func (h *UserContractsHandler) MisContratos(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	contratos, err := h.svc.ContratosDe(c.Request.Context(), actor.UsuarioID, actor.Rol)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(contratos))
	for _, ct := range contratos {
		out = append(out, gin.H{
			"contrato_id": ct.ID.String(),
			"nombre":      ct.Nombre,
		})
	}
	c.JSON(http.StatusOK, out)
}
