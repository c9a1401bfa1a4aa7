package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

const clientColumns = `id, code, name, contact_person, email, phone, address, active, created_at, updated_at`

// ClientRepository handles persistence for clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new repository instance.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns clients ordered by name.
func (r *ClientRepository) List(ctx context.Context, filter models.MasterDataFilter) ([]models.Client, error) {
	where, args := masterDataWhere(filter, "code", "name", "contact_person")
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM clients %s ORDER BY name ASC, id ASC", clientColumns, where))
	clients := make([]models.Client, 0)
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// FindByID returns a client by id.
func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	query := r.db.Rebind(`SELECT ` + clientColumns + ` FROM clients WHERE id = ?`)
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}
	return &client, nil
}

// ExistsByCode checks uniqueness of the client code.
func (r *ClientRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return existsByCode(ctx, r.db, "clients", code, excludeID)
}

// Create persists a new client.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	now := time.Now().UTC()
	client.CreatedAt, client.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO clients (code, name, contact_person, email, phone, address, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, client.Code, client.Name, client.ContactPerson, client.Email, client.Phone, client.Address, client.Active, client.CreatedAt, client.UpdatedAt).Scan(&client.ID); err != nil {
		return fmt.Errorf("create client: %w", classify(err))
	}
	return nil
}

// Update modifies a client.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET code = :code, name = :name, contact_person = :contact_person, email = :email, phone = :phone, address = :address, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, client)
	if err != nil {
		return fmt.Errorf("update client: %w", classify(err))
	}
	return requireAffected(res)
}

// Delete removes a client record.
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "clients", id)
}

// CountReferences returns how many quotations and RFPs point at the client.
func (r *ClientRepository) CountReferences(ctx context.Context, id int64) (int, error) {
	query := r.db.Rebind(`SELECT (SELECT COUNT(*) FROM quotations WHERE client_id = ?) + (SELECT COUNT(*) FROM rfps WHERE client_id = ?)`)
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, id); err != nil {
		return 0, fmt.Errorf("count client references: %w", err)
	}
	return count, nil
}

func existsByCode(ctx context.Context, db *sqlx.DB, table, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM " + table + " WHERE UPPER(code) = UPPER(?)"
	args := []interface{}{code}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}

	var exists int
	if err := db.GetContext(ctx, &exists, db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s code: %w", table, err)
	}
	return true, nil
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, id int64) error {
	res, err := db.ExecContext(ctx, db.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, classify(err))
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
