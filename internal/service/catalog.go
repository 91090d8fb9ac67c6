package service

import (
	"context"
	"strings"

	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/model"
)

// PlanInput is the editable field set of a storage plan as accepted by
// the admin API.
type PlanInput struct {
	Name         string   `json:"name"`
	Size         string   `json:"size"`
	SizeValue    int      `json:"size_value"`
	Price        float64  `json:"price"`
	PremiumPrice *float64 `json:"premium_price"`
	Dimensions   string   `json:"dimensions"`
	Description  *string  `json:"description"`
	Features     []string `json:"features"`
	UseCase      *string  `json:"use_case"`
	IsPopular    bool     `json:"is_popular"`
	IsActive     *bool    `json:"is_active"` // defaults to true on create
}

func (in PlanInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Size) == "" {
		missing = append(missing, "size")
	}
	if in.SizeValue <= 0 {
		missing = append(missing, "size_value")
	}
	if strings.TrimSpace(in.Dimensions) == "" {
		missing = append(missing, "dimensions")
	}
	if len(missing) > 0 {
		return invalid("missing required fields: %s", strings.Join(missing, ", "))
	}
	if in.Price < 0 || (in.PremiumPrice != nil && *in.PremiumPrice < 0) {
		return invalid("prices must not be negative")
	}
	return nil
}

func (in PlanInput) apply(p *model.StoragePlan) {
	p.Name = strings.TrimSpace(in.Name)
	if p.Name == "" {
		p.Name = "Warehouse " + strings.TrimSpace(in.Size)
	}
	p.Size = strings.TrimSpace(in.Size)
	p.SizeValue = in.SizeValue
	p.Price = in.Price
	p.PremiumPrice = in.PremiumPrice
	p.Dimensions = strings.TrimSpace(in.Dimensions)
	p.Description = in.Description
	p.Features = in.Features
	p.UseCase = in.UseCase
	p.IsPopular = in.IsPopular
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// Catalog serves the public plan list and the admin plan CRUD.
type Catalog struct {
	plans PlanStore
}

// NewCatalog returns a Catalog over plans.
func NewCatalog(plans PlanStore) *Catalog { return &Catalog{plans: plans} }

// ListActivePlans returns active plans by ascending size.  Store errors
// are returned to the caller without retry.
func (c *Catalog) ListActivePlans(ctx context.Context) ([]model.StoragePlan, error) {
	return c.plans.ListActivePlans(ctx)
}

// ListPlans returns every plan, active or not.
func (c *Catalog) ListPlans(ctx context.Context) ([]model.StoragePlan, error) {
	return c.plans.ListPlans(ctx)
}

// CreatePlan validates in and stores a new plan.
func (c *Catalog) CreatePlan(ctx context.Context, in PlanInput) (model.StoragePlan, error) {
	if err := in.validate(); err != nil {
		return model.StoragePlan{}, err
	}
	p := model.StoragePlan{IsActive: true}
	in.apply(&p)
	if err := c.plans.CreatePlan(ctx, &p); err != nil {
		return model.StoragePlan{}, err
	}
	logger.GetLogger(ctx).WithField("plan_id", p.ID).Info("storage plan created")
	return p, nil
}

// UpdatePlan replaces the editable fields of plan id.  Fields omitted
// from in take their zero value, except IsActive which is kept.
func (c *Catalog) UpdatePlan(ctx context.Context, id string, in PlanInput) (model.StoragePlan, error) {
	if strings.TrimSpace(id) == "" {
		return model.StoragePlan{}, invalid("storage option ID is required")
	}
	if err := in.validate(); err != nil {
		return model.StoragePlan{}, err
	}
	p, err := c.plans.GetPlan(ctx, id)
	if err != nil {
		return model.StoragePlan{}, err
	}
	in.apply(&p)
	if err := c.plans.UpdatePlan(ctx, &p); err != nil {
		return model.StoragePlan{}, err
	}
	logger.GetLogger(ctx).WithField("plan_id", p.ID).Info("storage plan updated")
	return p, nil
}

// DeletePlan removes plan id.  Plans that bookings reference are kept
// and repository.ErrPlanInUse is returned.
func (c *Catalog) DeletePlan(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("storage option ID is required")
	}
	if err := c.plans.DeletePlan(ctx, id); err != nil {
		return err
	}
	logger.GetLogger(ctx).WithField("plan_id", id).Info("storage plan deleted")
	return nil
}
