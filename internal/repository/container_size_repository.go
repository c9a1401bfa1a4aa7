package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

const containerSizeColumns = `id, name, code, length_ft, width_ft, height_ft, max_weight_kg, teu, active, display_order, created_at, updated_at`

// ContainerSizeRepository handles persistence for container sizes.
type ContainerSizeRepository struct {
	db *sqlx.DB
}

// NewContainerSizeRepository creates a new repository instance.
func NewContainerSizeRepository(db *sqlx.DB) *ContainerSizeRepository {
	return &ContainerSizeRepository{db: db}
}

// List returns container sizes in display order.
func (r *ContainerSizeRepository) List(ctx context.Context, filter models.MasterDataFilter) ([]models.ContainerSize, error) {
	where, args := masterDataWhere(filter, "code", "name")
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM container_sizes %s ORDER BY display_order ASC, name ASC", containerSizeColumns, where))
	sizes := make([]models.ContainerSize, 0)
	if err := r.db.SelectContext(ctx, &sizes, query, args...); err != nil {
		return nil, fmt.Errorf("list container sizes: %w", err)
	}
	return sizes, nil
}

// FindByID returns a container size by id.
func (r *ContainerSizeRepository) FindByID(ctx context.Context, id int64) (*models.ContainerSize, error) {
	query := r.db.Rebind(`SELECT ` + containerSizeColumns + ` FROM container_sizes WHERE id = ?`)
	var size models.ContainerSize
	if err := r.db.GetContext(ctx, &size, query, id); err != nil {
		return nil, err
	}
	return &size, nil
}

// ExistsByCode checks uniqueness of the container code.
func (r *ContainerSizeRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return existsByCode(ctx, r.db, "container_sizes", code, excludeID)
}

// Create persists a new container size.
func (r *ContainerSizeRepository) Create(ctx context.Context, size *models.ContainerSize) error {
	now := time.Now().UTC()
	size.CreatedAt, size.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO container_sizes (name, code, length_ft, width_ft, height_ft, max_weight_kg, teu, active, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, size.Name, size.Code, size.LengthFt, size.WidthFt, size.HeightFt, size.MaxWeightKg, size.TEU, size.Active, size.DisplayOrder, size.CreatedAt, size.UpdatedAt).Scan(&size.ID); err != nil {
		return fmt.Errorf("create container size: %w", classify(err))
	}
	return nil
}

// Update modifies a container size.
func (r *ContainerSizeRepository) Update(ctx context.Context, size *models.ContainerSize) error {
	size.UpdatedAt = time.Now().UTC()
	const query = `UPDATE container_sizes SET name = :name, code = :code, length_ft = :length_ft, width_ft = :width_ft, height_ft = :height_ft, max_weight_kg = :max_weight_kg, teu = :teu, active = :active, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, size)
	if err != nil {
		return fmt.Errorf("update container size: %w", classify(err))
	}
	return requireAffected(res)
}

// Delete removes a container size record.
func (r *ContainerSizeRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "container_sizes", id)
}
