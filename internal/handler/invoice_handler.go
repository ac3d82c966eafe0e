package handler

import (
	"fmt"
	"net/http"

	"invoicedesk/internal/draft"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/pagination"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	exportService  service.ExportService
}

func NewInvoiceHandler(invoiceService service.InvoiceService, exportService service.ExportService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		exportService:  exportService,
	}
}

// RegisterRoutes expects router to be behind middleware.RequireAuth
func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.POST("/validate", h.ValidateInvoice)
		invoices.GET("/schema", h.GetSchema)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/export", h.ExportInvoice)
	}
}

// CreateInvoice stores a draft and queues it for KSeF
// @Summary      Create invoice
// @Description  Validates the draft, stores it with computed totals and forwards it to KSeF in the background
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      draft.Invoice  true  "Invoice draft"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req draft.Invoice
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of the caller's invoices
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        company_id  query     string  false  "Company ID"
// @Param        from        query     string  false  "Issued on or after (YYYY-MM-DD)"
// @Param        to          query     string  false  "Issued on or before (YYYY-MM-DD)"
// @Param        status      query     string  false  "KSeF status (pending, submitted, accepted, rejected)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=pagination.Page[service.InvoiceResponse]}
// @Failure      400         {object}  response.Response
// @Router       /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.InvoiceFilter{
		CompanyID:  c.Query("company_id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		KSeFStatus: c.Query("status"),
		Page:       p.Page,
		Limit:      p.Limit,
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(invoices, total, p)))
}

// GetInvoice returns one invoice with its KSeF status
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ValidateInvoice runs the FA(3) pre-check without storing anything
// @Summary      Validate invoice draft
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      draft.Invoice  true  "Invoice draft"
// @Success      200      {object}  response.Response{data=service.ValidationReport}
// @Failure      400      {object}  response.Response
// @Router       /invoices/validate [post]
func (h *InvoiceHandler) ValidateInvoice(c *gin.Context) {
	var req draft.Invoice
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoiceService.ValidateFA3(req)))
}

// GetSchema returns the JSON schema of the creation payload
// @Summary      Invoice draft schema
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /invoices/schema [get]
func (h *InvoiceHandler) GetSchema(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft.Schema()))
}

// ExportInvoice downloads an invoice as CSV, XLSX or PDF
// @Summary      Export invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id      path   string  true   "Invoice ID"
// @Param        format  query  string  false  "csv, xlsx or pdf (default csv)"
// @Success      200
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /invoices/{id}/export [get]
func (h *InvoiceHandler) ExportInvoice(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	file, err := h.exportService.Export(c.Request.Context(), middleware.UserID(c), c.Param("id"), format)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
