package dto

import "github.com/shopspring/decimal"

// OfferResponse is the public view of an offer.
type OfferResponse struct {
	ID            string           `json:"id"`
	QuoteRequest  string           `json:"quote_request_id"`
	SupplierName  string           `json:"supplier_name"`
	SupplierEmail string           `json:"supplier_email"`
	Spec          string           `json:"spec"`
	Price         *decimal.Decimal `json:"price"`
	Currency      *string          `json:"currency"`
	LeadTime      *int             `json:"lead_time"`
	LeadTimeUnit  *string          `json:"lead_time_unit"`
	Status        string           `json:"status"`
	CounterRound  int              `json:"counter_round"`
	CounterPrice  *decimal.Decimal `json:"counter_price,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

// OfferListResponse wraps a page of offers.
type OfferListResponse struct {
	Data  []OfferResponse `json:"data"`
	Total int             `json:"total"`
}

// EvaluationResult is the outcome of one negotiation engine pass.
type EvaluationResult struct {
	OfferID      string           `json:"offer_id"`
	Status       string           `json:"status"`
	CounterRound int              `json:"counter_round"`
	CounterPrice *decimal.Decimal `json:"counter_price,omitempty"`
	PONumber     *string          `json:"po_number,omitempty"`
}

// RecordReplyRequest carries a supplier's free-text reply for classification.
type RecordReplyRequest struct {
	Text string `json:"text" binding:"required" validate:"required"`
}

// RecordReplyResponse reports the status after classifying the reply.
type RecordReplyResponse struct {
	OfferID string `json:"offer_id"`
	Status  string `json:"status"`
}
