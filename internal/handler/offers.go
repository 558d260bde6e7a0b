package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"quotepilot/internal/apierror"
	"quotepilot/internal/dto"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"
	"quotepilot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OffersHandler serves collected supplier offers and drives the negotiation
// engine over them.
type OffersHandler struct {
	repo        repository.OfferRepository
	negotiation service.NegotiationService
}

func NewOffersHandler(repo repository.OfferRepository, negotiation service.NegotiationService) *OffersHandler {
	return &OffersHandler{repo: repo, negotiation: negotiation}
}

// List godoc
// @Summary      List offers by spec
// @Description  Returns offers whose spec matches the query (case-insensitive substring), newest first.
// @Tags         offers
// @Security     BearerAuth
// @Param        spec  query    string  false "Spec text to match"
// @Param        limit query    int     false "Max rows (default 50, max 200)"
// @Success      200   {object} dto.OfferListResponse
// @Failure      500   {object} apierror.APIError
// @Router       /v1/offers [get]
func (h *OffersHandler) List(c *gin.Context) {
	spec := c.Query("spec")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	rows, err := h.repo.ListBySpec(c.Request.Context(), spec, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list offers"))
		return
	}

	data := make([]dto.OfferResponse, 0, len(rows))
	for i := range rows {
		data = append(data, offerToDTO(&rows[i]))
	}
	c.JSON(http.StatusOK, dto.OfferListResponse{Data: data, Total: len(data)})
}

// Get godoc
// @Summary      Get one offer
// @Tags         offers
// @Security     BearerAuth
// @Param        id  path     string  true  "Offer UUID"
// @Success      200 {object} dto.OfferResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /v1/offers/{id} [get]
func (h *OffersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid offer ID"))
		return
	}

	offer, err := h.repo.FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("offer not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to load offer"))
		return
	}
	c.JSON(http.StatusOK, offerToDTO(offer))
}

// Evaluate godoc
// @Summary      Run one negotiation pass on an offer
// @Description  Accepts, counters, or escalates the offer against its quote request's list price. Acceptance issues a purchase order; countering queues a counter-offer email.
// @Tags         offers
// @Security     BearerAuth
// @Param        id  path     string  true  "Offer UUID"
// @Success      200 {object} dto.EvaluationResult
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/offers/{id}/evaluate [post]
func (h *OffersHandler) Evaluate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid offer ID"))
		return
	}

	result, err := h.negotiation.Evaluate(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New("offer not found"))
	case errors.Is(err, service.ErrTerminalStatus):
		c.JSON(http.StatusConflict, apierror.New("offer is no longer open to evaluation"))
	case errors.Is(err, service.ErrNoPrice):
		c.JSON(http.StatusBadRequest, apierror.New("offer has no extracted price"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, apierror.New("evaluation failed"))
	default:
		c.JSON(http.StatusOK, result)
	}
}

// Reply godoc
// @Summary      Record a supplier's free-text reply
// @Description  Classifies the reply: final-word phrases freeze the offer as final, anything else reopens it.
// @Tags         offers
// @Security     BearerAuth
// @Param        id      path     string                 true "Offer UUID"
// @Param        request body     dto.RecordReplyRequest true "Reply text"
// @Success      200     {object} dto.RecordReplyResponse
// @Failure      400     {object} apierror.APIError
// @Failure      404     {object} apierror.APIError
// @Failure      422     {object} apierror.ValidationError
// @Router       /v1/offers/{id}/reply [post]
func (h *OffersHandler) Reply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid offer ID"))
		return
	}

	var req dto.RecordReplyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	status, err := h.negotiation.RecordSupplierReply(c.Request.Context(), id, req.Text)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("offer not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to record reply"))
		return
	}
	c.JSON(http.StatusOK, dto.RecordReplyResponse{OfferID: id.String(), Status: string(status)})
}

// Stats godoc
// @Summary      Aggregate offer statistics
// @Tags         offers
// @Security     BearerAuth
// @Success      200 {object} repository.OfferStats
// @Failure      500 {object} apierror.APIError
// @Router       /v1/offers/stats [get]
func (h *OffersHandler) Stats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to compute stats"))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func offerToDTO(o *model.Offer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:            o.ID.String(),
		QuoteRequest:  o.QuoteRequestID.String(),
		SupplierName:  o.SupplierName,
		SupplierEmail: o.SupplierEmail,
		Spec:          o.Spec,
		Price:         o.Price,
		Currency:      o.Currency,
		LeadTime:      o.LeadTime,
		LeadTimeUnit:  o.LeadTimeUnit,
		Status:        string(o.Status),
		CounterRound:  o.CounterRound,
		CounterPrice:  o.CounterPrice,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}
