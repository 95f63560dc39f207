package handler

import (
	"net/http"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ContratosHandler exposes contract administration. All routes behind
// RequireRole(admin).
type ContratosHandler struct{ svc service.ContratoService }

func NewContratosHandler(svc service.ContratoService) *ContratosHandler {
	return &ContratosHandler{svc: svc}
}

// Crear godoc
// @Summary Alta de contrato
// @Tags contratos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearContratoRequest true "Datos del contrato"
// @Success 201 {object} dto.ContratoResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/contratos [post]
func (h *ContratosHandler) Crear(c *gin.Context) {
	var req dto.CrearContratoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista contratos con conteos de dependencias
// @Tags contratos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ContratoResponse
// @Router /v1/contratos [get]
func (h *ContratosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ContratosHandler) Actualizar(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarContratoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Baja de contrato
// @Description Falla con 409 si el contrato tiene partidas, NOCs o asignaciones.
// @Tags contratos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del contrato"
// @Success 200 {object} map[string]bool
// @Failure 409 {object} apierror.APIError
// @Router /v1/contratos/{id} [delete]
func (h *ContratosHandler) Eliminar(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
