package handler

import (
	"net/http"
	"time"

	"invoicedesk/internal/middleware"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type VATHandler struct {
	vatService service.VATService
	now        func() time.Time
}

func NewVATHandler(vatService service.VATService) *VATHandler {
	return &VATHandler{vatService: vatService, now: time.Now}
}

func (h *VATHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/vat/summary", h.GetSummary)
}

// GetSummary reports the VAT due for one month
// @Summary      VAT summary
// @Description  Output VAT of the company's invoices issued in the period; defaults to the current month
// @Tags         vat
// @Security     BearerAuth
// @Produce      json
// @Param        company_id  query     string  true   "Company ID"
// @Param        period      query     string  false  "Month (YYYY-MM)"
// @Success      200         {object}  response.Response{data=service.VATSummary}
// @Failure      400         {object}  response.Response
// @Failure      403         {object}  response.Response
// @Router       /vat/summary [get]
func (h *VATHandler) GetSummary(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "company_id is required"))
		return
	}
	period := c.DefaultQuery("period", h.now().Format("2006-01"))

	summary, err := h.vatService.Summary(c.Request.Context(), middleware.UserID(c), companyID, period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
