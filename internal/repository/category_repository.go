package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

const categoryColumns = `id, name, code, description, active, display_order, created_at, updated_at`

// CategoryRepository handles persistence for service categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new repository instance.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns categories in display order.
func (r *CategoryRepository) List(ctx context.Context, filter models.MasterDataFilter) ([]models.Category, error) {
	where, args := masterDataWhere(filter, "code", "name")
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM categories %s ORDER BY display_order ASC, name ASC", categoryColumns, where))
	categories := make([]models.Category, 0)
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	query := r.db.Rebind(`SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`)
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByCode checks uniqueness of the category code.
func (r *CategoryRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return existsByCode(ctx, r.db, "categories", code, excludeID)
}

// Create persists a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	category.CreatedAt, category.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO categories (name, code, description, active, display_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, category.Name, category.Code, category.Description, category.Active, category.DisplayOrder, category.CreatedAt, category.UpdatedAt).Scan(&category.ID); err != nil {
		return fmt.Errorf("create category: %w", classify(err))
	}
	return nil
}

// Update modifies a category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, code = :code, description = :description, active = :active, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		return fmt.Errorf("update category: %w", classify(err))
	}
	return requireAffected(res)
}

// Delete removes a category record.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "categories", id)
}
