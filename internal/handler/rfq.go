package handler

import (
	"net/http"

	"quotepilot/internal/apierror"
	"quotepilot/internal/dto"
	"quotepilot/internal/service"

	"github.com/gin-gonic/gin"
)

// RFQHandler launches quote runs.
type RFQHandler struct {
	rfq service.RFQService
}

func NewRFQHandler(rfq service.RFQService) *RFQHandler {
	return &RFQHandler{rfq: rfq}
}

// Launch godoc
// @Summary      Launch an RFQ run
// @Description  Derives each supplier's address from its name, queues one RFQ email per supplier, and starts a background inbox watcher that collects replies for the configured window.
// @Tags         rfq
// @Security     BearerAuth
// @Param        request body     dto.LaunchRFQRequest true "Spec, list price, and supplier names"
// @Success      202     {object} dto.LaunchRFQResponse
// @Failure      400     {object} apierror.APIError
// @Failure      422     {object} apierror.ValidationError
// @Router       /v1/rfq [post]
func (h *RFQHandler) Launch(c *gin.Context) {
	var req dto.LaunchRFQRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.rfq.LaunchRFQ(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	// 202: RFQs are queued and replies arrive asynchronously.
	c.JSON(http.StatusAccepted, resp)
}
