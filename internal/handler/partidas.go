package handler

import (
	"net/http"

	"github.com/strabagdev/control-costos-contrato-app/internal/apierror"
	"github.com/strabagdev/control-costos-contrato-app/internal/dto"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/gin-gonic/gin"
)

type PartidasHandler struct{ svc service.PartidaService }

func NewPartidasHandler(svc service.PartidaService) *PartidasHandler {
	return &PartidasHandler{svc: svc}
}

// Crear godoc
// @Summary Alta de partida (version raiz)
// @Tags partidas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPartidaRequest true "Datos de la partida"
// @Success 201 {object} dto.PartidaResponse
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/partidas [post]
func (h *PartidasHandler) Crear(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CrearPartidaRequest
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
// @Summary Lista las partidas de un contrato
// @Tags partidas
// @Produce json
// @Security BearerAuth
// @Param contrato_id query string true "ID del contrato"
// @Success 200 {array} dto.PartidaResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/partidas [get]
func (h *PartidasHandler) Listar(c *gin.Context) {
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

// Actualizar godoc
// @Summary Edita una partida (PATCH parcial)
// @Description Partidas tocadas por una NOC solo admiten descripcion, cantidad y precio_unitario.
// @Tags partidas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la partida"
// @Param body body dto.ActualizarPartidaRequest true "Campos a cambiar"
// @Success 200 {object} dto.PartidaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/partidas/{id} [put]
func (h *PartidasHandler) Actualizar(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarPartidaRequest
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

func (h *PartidasHandler) CambiarVigente(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarVigenteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.Vigente == nil {
		c.JSON(http.StatusBadRequest, apierror.New("vigente es requerido"))
		return
	}
	resp, err := h.svc.CambiarVigente(c.Request.Context(), actor, id, *req.Vigente)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Versiones godoc
// @Summary Cadena de versiones de una partida
// @Description Devuelve la cadena desde la raiz hasta la version consultada (raiz primero).
// @Tags partidas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la partida"
// @Success 200 {object} dto.CadenaVersionesResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/partidas/{id}/versions [get]
func (h *PartidasHandler) Versiones(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CadenaVersiones(c.Request.Context(), actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
