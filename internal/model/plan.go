package model

import "time"

// StoragePlan describes one storage-unit offering in the catalog.  Plans
// are either curated by staff through the admin API or created on demand
// when a customer books an ad-hoc size that is not catalogued yet.  The
// pair (Size, Price) is unique.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  Name         – display name, e.g. "Warehouse 500 SQ FT".
//  Size         – size label as shown to customers ("500 SQ FT").
//  SizeValue    – numeric size used for ordering.
//  Price        – base monthly price.
//  PremiumPrice – optional climate-controlled monthly price.
//  Dimensions   – free-text physical dimensions.
//  Description  – optional long description.
//  Features     – ordered list of feature bullets.
//  UseCase      – optional "ideal for" text.
//  IsPopular    – highlighted in listings.
//  IsActive     – visible in the public catalog.
type StoragePlan struct {
	ID           string    `json:"id"`            // storage_plans.id
	Name         string    `json:"name"`          // storage_plans.name
	Size         string    `json:"size"`          // storage_plans.size
	SizeValue    int       `json:"size_value"`    // storage_plans.size_value
	Price        float64   `json:"price"`         // storage_plans.price_per_month
	PremiumPrice *float64  `json:"premium_price"` // storage_plans.premium_price (nullable)
	Dimensions   string    `json:"dimensions"`    // storage_plans.dimensions
	Description  *string   `json:"description"`   // storage_plans.description (nullable)
	Features     []string  `json:"features"`      // storage_plans.features (JSON array)
	UseCase      *string   `json:"use_case"`      // storage_plans.use_case (nullable)
	IsPopular    bool      `json:"is_popular"`    // storage_plans.is_popular
	IsActive     bool      `json:"is_active"`     // storage_plans.is_active
	CreatedAt    time.Time `json:"created_at"`    // storage_plans.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // storage_plans.updated_at
}

// DefaultPlanFeatures is the feature list given to plans created on demand
// by the booking flow.
var DefaultPlanFeatures = []string{"24/7 Access", "Security Monitoring", "Loading Dock Access"}
