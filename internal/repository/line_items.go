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

// documentTable describes where a transaction type and its items live.
type documentTable struct {
	name      string
	items     string
	parent    string
	refPrefix string
}

var documentTables = map[models.TransactionType]documentTable{
	models.TransactionQuotation: {name: "quotations", items: "quotation_items", parent: "quotation_id", refPrefix: "QT"},
	models.TransactionRFP:       {name: "rfps", items: "rfp_items", parent: "rfp_id", refPrefix: "RFP"},
}

func tableFor(txType models.TransactionType) (documentTable, error) {
	table, ok := documentTables[txType]
	if !ok {
		return documentTable{}, fmt.Errorf("unknown transaction type %q", txType)
	}
	return table, nil
}

type execQueryer interface {
	sqlx.ExecerContext
	sqlx.QueryerContext
	Rebind(string) string
}

func insertItems(ctx context.Context, tx execQueryer, table documentTable, parentID int64, items []models.LineItem) error {
	query := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (%s, description, quantity, unit, unit_price, amount, sort_order)
VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`, table.items, table.parent))
	for i := range items {
		item := &items[i]
		item.ParentID = parentID
		if err := tx.QueryRowxContext(ctx, query, parentID, item.Description, item.Quantity, item.Unit, item.UnitPrice, item.Amount, item.SortOrder).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert %s: %w", table.items, err)
		}
	}
	return nil
}

func replaceItems(ctx context.Context, tx execQueryer, table documentTable, parentID int64, items []models.LineItem) error {
	query := tx.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table.items, table.parent))
	if _, err := tx.ExecContext(ctx, query, parentID); err != nil {
		return fmt.Errorf("clear %s: %w", table.items, err)
	}
	return insertItems(ctx, tx, table, parentID, items)
}

func loadItems(ctx context.Context, db *sqlx.DB, table documentTable, parentID int64) ([]models.LineItem, error) {
	query := db.Rebind(fmt.Sprintf(`SELECT id, %s AS parent_id, description, quantity, unit, unit_price, amount, sort_order
FROM %s WHERE %s = ? ORDER BY sort_order ASC, id ASC`, table.parent, table.items, table.parent))
	items := make([]models.LineItem, 0)
	if err := db.SelectContext(ctx, &items, query, parentID); err != nil {
		return nil, fmt.Errorf("load %s: %w", table.items, err)
	}
	return items, nil
}

// assignReference stores the generated reference number when none was supplied.
func assignReference(ctx context.Context, tx execQueryer, table documentTable, id int64, current string, createdAt time.Time) (string, error) {
	if current != "" {
		return current, nil
	}
	ref := fmt.Sprintf("%s-%s-%05d", table.refPrefix, createdAt.Format("200601"), id)
	query := tx.Rebind(fmt.Sprintf("UPDATE %s SET reference_no = ? WHERE id = ?", table.name))
	if _, err := tx.ExecContext(ctx, query, ref, id); err != nil {
		return "", fmt.Errorf("assign reference: %w", classify(err))
	}
	return ref, nil
}

// missingOrChanged explains why a conditional write matched no rows.
func missingOrChanged(ctx context.Context, q execQueryer, table string, id int64) error {
	var exists int
	query := q.Rebind("SELECT 1 FROM " + table + " WHERE id = ?")
	if err := q.QueryRowxContext(ctx, query, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("check %s: %w", table, err)
	}
	return ErrStatusChanged
}
