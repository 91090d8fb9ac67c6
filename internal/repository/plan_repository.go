package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/storage-booking/internal/model"
)

// PlanRepo provides CRUD operations for storage plans.  Plans are
// unique by (size, price_per_month); the features column stores an
// ordered JSON array of strings.
type PlanRepo struct{ db *sql.DB }

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

// ListActivePlans returns active plans ordered by ascending size.
func (r *PlanRepo) ListActivePlans(ctx context.Context) ([]model.StoragePlan, error) {
	return r.list(ctx, "SELECT "+planCols+" FROM storage_plans WHERE is_active = TRUE ORDER BY size_value ASC, price_per_month ASC")
}

// ListPlans returns all plans, including inactive ones, for the admin.
func (r *PlanRepo) ListPlans(ctx context.Context) ([]model.StoragePlan, error) {
	return r.list(ctx, "SELECT "+planCols+" FROM storage_plans ORDER BY size_value ASC, price_per_month ASC")
}

func (r *PlanRepo) list(ctx context.Context, q string, args ...any) ([]model.StoragePlan, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StoragePlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlan fetches a plan by id.
func (r *PlanRepo) GetPlan(ctx context.Context, id string) (model.StoragePlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM storage_plans WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPlanNotFound
	}
	return p, err
}

// FindPlan fetches the plan with the given size label and monthly price.
func (r *PlanRepo) FindPlan(ctx context.Context, size string, price float64) (model.StoragePlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM storage_plans WHERE size=? AND price_per_month=? LIMIT 1", size, price))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPlanNotFound
	}
	return p, err
}

// CreatePlan inserts p, assigning its ID and timestamps.  A plan with
// the same size and price yields ErrPlanExists.
func (r *PlanRepo) CreatePlan(ctx context.Context, p *model.StoragePlan) error {
	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO storage_plans (`+planCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, p.Name, p.Size, p.SizeValue, p.Price, nullFloat(p.PremiumPrice), p.Dimensions,
		nullString(p.Description), features, nullString(p.UseCase), p.IsPopular, p.IsActive, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrPlanExists
		}
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	if p.Features == nil {
		p.Features = []string{}
	}
	return nil
}

// UpdatePlan overwrites every editable column of the plan with id p.ID.
// Concurrent edits are last-write-wins.
func (r *PlanRepo) UpdatePlan(ctx context.Context, p *model.StoragePlan) error {
	features, err := encodeFeatures(p.Features)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE storage_plans
		    SET name=?, size=?, size_value=?, price_per_month=?, premium_price=?, dimensions=?,
		        description=?, features=?, use_case=?, is_popular=?, is_active=?, updated_at=?
		  WHERE id=?`,
		p.Name, p.Size, p.SizeValue, p.Price, nullFloat(p.PremiumPrice), p.Dimensions,
		nullString(p.Description), features, nullString(p.UseCase), p.IsPopular, p.IsActive, now, p.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrPlanExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	p.UpdatedAt = now
	return nil
}

// DeletePlan removes a plan.  Plans referenced by bookings are kept and
// ErrPlanInUse is returned; callers should deactivate them instead.
func (r *PlanRepo) DeletePlan(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM storage_plans WHERE id=?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrPlanInUse
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
