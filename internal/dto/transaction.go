package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest is one priced row of a quotation or RFP.
type LineItemRequest struct {
	Description string          `json:"description" validate:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" validate:"max=20"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// QuotationRequest creates or replaces a draft quotation.
type QuotationRequest struct {
	ReferenceNo     string            `json:"referenceNo" validate:"max=40"`
	ClientID        int64             `json:"clientId" validate:"required,gt=0"`
	CategoryID      *int64            `json:"categoryId" validate:"omitempty,gt=0"`
	ContainerSizeID *int64            `json:"containerSizeId" validate:"omitempty,gt=0"`
	TruckSizeID     *int64            `json:"truckSizeId" validate:"omitempty,gt=0"`
	Origin          string            `json:"origin" validate:"required,max=120"`
	Destination     string            `json:"destination" validate:"required,max=120"`
	ValidUntil      *time.Time        `json:"validUntil"`
	Currency        string            `json:"currency" validate:"omitempty,len=3,alpha"`
	Remarks         string            `json:"remarks" validate:"max=2000"`
	Items           []LineItemRequest `json:"items" validate:"dive"`
}

// RFPRequest creates or replaces a draft request for payment.
type RFPRequest struct {
	ReferenceNo string            `json:"referenceNo" validate:"max=40"`
	ClientID    *int64            `json:"clientId" validate:"omitempty,gt=0"`
	Payee       string            `json:"payee" validate:"required,max=160"`
	Purpose     string            `json:"purpose" validate:"required,max=500"`
	Currency    string            `json:"currency" validate:"omitempty,len=3,alpha"`
	NeededBy    *time.Time        `json:"neededBy"`
	Items       []LineItemRequest `json:"items" validate:"dive"`
}

// TransactionQuery mirrors quotation and RFP list filters.
type TransactionQuery struct {
	Status   string
	ClientID *int64
	Search   string
	Page     int
	PageSize int
}
