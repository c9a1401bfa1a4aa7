package models

import "time"

// MasterDataKind names a reference-data table.
type MasterDataKind string

const (
	MasterDataClients        MasterDataKind = "clients"
	MasterDataCategories     MasterDataKind = "categories"
	MasterDataContainerSizes MasterDataKind = "container_sizes"
	MasterDataTruckSizes     MasterDataKind = "truck_sizes"
)

// MasterDataFilter constrains reference-data listings.
type MasterDataFilter struct {
	Active *bool
	Search string
}

// Client is a customer quoted or billed by the forwarder.
type Client struct {
	ID            int64     `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	ContactPerson *string   `db:"contact_person" json:"contactPerson,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Category groups services such as sea freight, trucking or brokerage.
type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Active       bool      `db:"active" json:"active"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// ContainerSize describes a shipping container type and its TEU weight.
type ContainerSize struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	LengthFt     float64   `db:"length_ft" json:"lengthFt"`
	WidthFt      float64   `db:"width_ft" json:"widthFt"`
	HeightFt     float64   `db:"height_ft" json:"heightFt"`
	MaxWeightKg  float64   `db:"max_weight_kg" json:"maxWeightKg"`
	TEU          float64   `db:"teu" json:"teu"`
	Active       bool      `db:"active" json:"active"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// TruckSize describes a domestic trucking unit.
type TruckSize struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	CapacityKg   float64   `db:"capacity_kg" json:"capacityKg"`
	CapacityCBM  float64   `db:"capacity_cbm" json:"capacityCbm"`
	Active       bool      `db:"active" json:"active"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
