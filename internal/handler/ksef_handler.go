package handler

import (
	"context"
	"net/http"

	"invoicedesk/internal/service"
	"invoicedesk/internal/websocket"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// KSeFHandler serves forwarding health and the status event stream.
type KSeFHandler struct {
	ksefService    service.KSeFService
	companyService service.CompanyService
	hub            *websocket.Hub
	secret         []byte
}

func NewKSeFHandler(ksefService service.KSeFService, companyService service.CompanyService, hub *websocket.Hub, secret []byte) *KSeFHandler {
	return &KSeFHandler{ksefService: ksefService, companyService: companyService, hub: hub, secret: secret}
}

// RegisterRoutes mounts both endpoints on a public group; the websocket
// checks its own token.
func (h *KSeFHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ksef/health", h.Health)
	router.GET("/ws", h.Events)
}

// Health reports the gateway mode and queue depth
// @Summary      KSeF forwarding health
// @Tags         ksef
// @Produce      json
// @Success      200  {object}  response.Response{data=service.KSeFHealth}
// @Router       /ksef/health [get]
func (h *KSeFHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.ksefService.Health()))
}

// Events upgrades to a websocket streaming KSeF status changes of the
// caller's companies
// @Summary      KSeF status events
// @Tags         ksef
// @Param        token  query  string  true  "Access token"
// @Success      101
// @Failure      401
// @Router       /ws [get]
func (h *KSeFHandler) Events(c *gin.Context) {
	websocket.ServeWs(h.hub, c, h.secret, h.companyIDs)
}

func (h *KSeFHandler) companyIDs(ctx context.Context, userID string) ([]string, error) {
	companies, err := h.companyService.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
