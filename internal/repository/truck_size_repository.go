package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

const truckSizeColumns = `id, name, code, capacity_kg, capacity_cbm, active, display_order, created_at, updated_at`

// TruckSizeRepository handles persistence for truck sizes.
type TruckSizeRepository struct {
	db *sqlx.DB
}

// NewTruckSizeRepository creates a new repository instance.
func NewTruckSizeRepository(db *sqlx.DB) *TruckSizeRepository {
	return &TruckSizeRepository{db: db}
}

// List returns truck sizes in display order.
func (r *TruckSizeRepository) List(ctx context.Context, filter models.MasterDataFilter) ([]models.TruckSize, error) {
	where, args := masterDataWhere(filter, "code", "name")
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM truck_sizes %s ORDER BY display_order ASC, name ASC", truckSizeColumns, where))
	sizes := make([]models.TruckSize, 0)
	if err := r.db.SelectContext(ctx, &sizes, query, args...); err != nil {
		return nil, fmt.Errorf("list truck sizes: %w", err)
	}
	return sizes, nil
}

// FindByID returns a truck size by id.
func (r *TruckSizeRepository) FindByID(ctx context.Context, id int64) (*models.TruckSize, error) {
	query := r.db.Rebind(`SELECT ` + truckSizeColumns + ` FROM truck_sizes WHERE id = ?`)
	var size models.TruckSize
	if err := r.db.GetContext(ctx, &size, query, id); err != nil {
		return nil, err
	}
	return &size, nil
}

// ExistsByCode checks uniqueness of the truck code.
func (r *TruckSizeRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return existsByCode(ctx, r.db, "truck_sizes", code, excludeID)
}

// Create persists a new truck size.
func (r *TruckSizeRepository) Create(ctx context.Context, size *models.TruckSize) error {
	now := time.Now().UTC()
	size.CreatedAt, size.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO truck_sizes (name, code, capacity_kg, capacity_cbm, active, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, size.Name, size.Code, size.CapacityKg, size.CapacityCBM, size.Active, size.DisplayOrder, size.CreatedAt, size.UpdatedAt).Scan(&size.ID); err != nil {
		return fmt.Errorf("create truck size: %w", classify(err))
	}
	return nil
}

// Update modifies a truck size.
func (r *TruckSizeRepository) Update(ctx context.Context, size *models.TruckSize) error {
	size.UpdatedAt = time.Now().UTC()
	const query = `UPDATE truck_sizes SET name = :name, code = :code, capacity_kg = :capacity_kg, capacity_cbm = :capacity_cbm, active = :active, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, size)
	if err != nil {
		return fmt.Errorf("update truck size: %w", classify(err))
	}
	return requireAffected(res)
}

// Delete removes a truck size record.
func (r *TruckSizeRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "truck_sizes", id)
}
