package handler

import (
	"net/http"

	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct{ svc service.DashboardService }

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// KPIs godoc
// @Summary KPIs de un contrato
// @Description total_base suma las partidas originales, total_vigente las versiones vivas.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param contrato_id query string true "ID del contrato"
// @Success 200 {object} dto.KPIResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/dashboard/kpis [get]
func (h *DashboardHandler) KPIs(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	contratoID, ok := parseContratoQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.KPIs(c.Request.Context(), actor, contratoID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
