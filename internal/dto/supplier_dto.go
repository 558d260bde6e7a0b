package dto

// CreateSupplierRequest registers a supplier ahead of any RFQ run.
type CreateSupplierRequest struct {
	Name string `json:"name" binding:"required" validate:"required"`
}

// SupplierResponse is the public view of a supplier.
type SupplierResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}
