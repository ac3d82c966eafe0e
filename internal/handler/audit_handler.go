package handler

import (
	"net/http"

	"invoicedesk/internal/middleware"
	"invoicedesk/internal/model"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(middleware.RequireRole(model.RoleAdmin))
	{
		group.GET("/:entity_type/:entity_id", h.GetHistory)
	}
}

// GetHistory lists what happened to one entity in order
// @Summary      Entity history
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity_type  path      string  true  "invoice, company or user"
// @Param        entity_id    path      string  true  "Entity ID"
// @Success      200          {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      403          {object}  response.Response
// @Router       /audit-logs/{entity_type}/{entity_id} [get]
func (h *AuditHandler) GetHistory(c *gin.Context) {
	logs, err := h.auditService.History(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
