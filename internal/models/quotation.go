package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied when a document omits its currency.
const DefaultCurrency = "PHP"

// Quotation is a freight price offer to a client.
type Quotation struct {
	ID              int64           `db:"id" json:"id"`
	ReferenceNo     string          `db:"reference_no" json:"referenceNo"`
	ClientID        int64           `db:"client_id" json:"clientId"`
	ClientName      *string         `db:"client_name" json:"clientName,omitempty"`
	CategoryID      *int64          `db:"category_id" json:"categoryId,omitempty"`
	ContainerSizeID *int64          `db:"container_size_id" json:"containerSizeId,omitempty"`
	TruckSizeID     *int64          `db:"truck_size_id" json:"truckSizeId,omitempty"`
	Origin          string          `db:"origin" json:"origin"`
	Destination     string          `db:"destination" json:"destination"`
	ValidUntil      *time.Time      `db:"valid_until" json:"validUntil,omitempty"`
	Currency        string          `db:"currency" json:"currency"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Remarks         *string         `db:"remarks" json:"remarks,omitempty"`
	Workflow
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []LineItem `db:"-" json:"items"`
}

// QuotationDetail bundles a quotation with its approval trail.
type QuotationDetail struct {
	Quotation
	History []ApprovalHistoryEntry `json:"history"`
}
