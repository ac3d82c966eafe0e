package handler

import (
	"net/http"

	"invoicedesk/internal/middleware"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/companies")
	{
		companies.GET("", h.ListCompanies)
		companies.POST("", h.CreateCompany)
	}
}

// ListCompanies returns the companies the caller may invoice for
// @Summary      List companies
// @Tags         companies
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.CompanyResponse}
// @Router       /companies [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	companies, err := h.companyService.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, companies))
}

// CreateCompany registers a seller and makes the caller its owner
// @Summary      Create company
// @Tags         companies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCompanyRequest  true  "Company"
// @Success      201      {object}  response.Response{data=service.CompanyResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	company, err := h.companyService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, company))
}
