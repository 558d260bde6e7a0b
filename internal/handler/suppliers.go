package handler

import (
	"net/http"

	"quotepilot/internal/apierror"
	"quotepilot/internal/dto"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"
	"quotepilot/internal/service"

	"github.com/gin-gonic/gin"
)

// SuppliersHandler manages the supplier directory.
type SuppliersHandler struct {
	repo       repository.SupplierRepository
	mailDomain string
}

func NewSuppliersHandler(repo repository.SupplierRepository, mailDomain string) *SuppliersHandler {
	return &SuppliersHandler{repo: repo, mailDomain: mailDomain}
}

// List godoc
// @Summary      List active suppliers
// @Tags         suppliers
// @Security     BearerAuth
// @Success      200 {array}  dto.SupplierResponse
// @Failure      500 {object} apierror.APIError
// @Router       /v1/suppliers [get]
func (h *SuppliersHandler) List(c *gin.Context) {
	rows, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list suppliers"))
		return
	}

	data := make([]dto.SupplierResponse, 0, len(rows))
	for i := range rows {
		data = append(data, supplierToDTO(&rows[i]))
	}
	c.JSON(http.StatusOK, data)
}

// Create godoc
// @Summary      Register a supplier
// @Description  Derives the supplier's RFQ address from its name. Re-registering the same name refreshes the existing row.
// @Tags         suppliers
// @Security     BearerAuth
// @Param        request body     dto.CreateSupplierRequest true "Supplier name"
// @Success      201     {object} dto.SupplierResponse
// @Failure      422     {object} apierror.ValidationError
// @Router       /v1/suppliers [post]
func (h *SuppliersHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !bindAndValidate(c, &req) {
		return
	}

	supplier := &model.Supplier{
		Name:   req.Name,
		Email:  service.DeriveAddress(req.Name, h.mailDomain),
		Active: true,
	}
	if err := h.repo.UpsertByEmail(c.Request.Context(), supplier); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to save supplier"))
		return
	}
	c.JSON(http.StatusCreated, supplierToDTO(supplier))
}

func supplierToDTO(s *model.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID:     s.ID.String(),
		Name:   s.Name,
		Email:  s.Email,
		Active: s.Active,
	}
}
