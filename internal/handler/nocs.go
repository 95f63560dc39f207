package handler

import (
	"net/http"

	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/gin-gonic/gin"
)

type NocsHandler struct{ svc service.NocService }

func NewNocsHandler(svc service.NocService) *NocsHandler { return &NocsHandler{svc: svc} }

// Crear godoc
// @Summary Alta de NOC en borrador
// @Tags nocs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearNocRequest true "Datos de la NOC"
// @Success 201 {object} dto.NocResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/nocs [post]
func (h *NocsHandler) Crear(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CrearNocRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista las NOCs de un contrato
// @Tags nocs
// @Produce json
// @Security BearerAuth
// @Param contrato_id query string true "ID del contrato"
// @Success 200 {array} dto.NocResponse
// @Router /v1/nocs [get]
func (h *NocsHandler) Listar(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	contratoID, ok := parseContratoQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorContrato(c.Request.Context(), actor, contratoID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NocsHandler) Obtener(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NocsHandler) Actualizar(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarNocRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), actor, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NocsHandler) Eliminar(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), actor, id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ── Lineas ───────────────────────────────────────────────────────────────────

// CrearLinea godoc
// @Summary Agrega una linea a la NOC
// @Description Rechaza lineas que no proponen ni cantidad ni precio nuevos.
// @Tags nocs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la NOC"
// @Param body body dto.CrearLineaRequest true "Linea propuesta"
// @Success 201 {object} dto.LineaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/nocs/{id}/lineas [post]
func (h *NocsHandler) CrearLinea(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CrearLineaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearLinea(c.Request.Context(), actor, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *NocsHandler) ListarLineas(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarLineas(c.Request.Context(), actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NocsHandler) ActualizarLinea(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarLineaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarLinea(c.Request.Context(), actor, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NocsHandler) EliminarLinea(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.EliminarLineaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	lineaID, err := parseUUIDBody(c, req.NocLineaID, "noc_linea_id")
	if err != nil {
		return
	}
	if err := h.svc.EliminarLinea(c.Request.Context(), actor, id, lineaID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ── Apply ────────────────────────────────────────────────────────────────────

// Aplicar godoc
// @Summary Aplica la NOC
// @Description Archiva cada partida origen, inserta su sucesora y marca la NOC como aplicada, todo en una transaccion.
// @Tags nocs
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la NOC"
// @Success 200 {object} dto.AplicarNocResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /v1/nocs/{id}/apply [post]
func (h *NocsHandler) Aplicar(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Aplicar(c.Request.Context(), actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
