package dto

import "github.com/shopspring/decimal"

// LaunchRFQRequest starts a quote run: RFQs go out to every named supplier
// and an inbox watcher collects their replies.
type LaunchRFQRequest struct {
	Spec      string          `json:"spec" binding:"required" validate:"required"`
	ListPrice decimal.Decimal `json:"list_price" binding:"required" validate:"required,gt=0"`
	Suppliers []string        `json:"suppliers" binding:"required" validate:"required,min=1,dive,required"`
}

// ContactedSupplier reports one RFQ recipient.
type ContactedSupplier struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LaunchRFQResponse reports the launched run.
type LaunchRFQResponse struct {
	QuoteRequestID string              `json:"quote_request_id"`
	Spec           string              `json:"spec"`
	RFQsSent       int                 `json:"rfqs_sent"`
	Suppliers      []ContactedSupplier `json:"suppliers"`
}
