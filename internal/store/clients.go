package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/khadijabh/cafe-store/internal/models"
)

// UpsertClient records the latest contact details supplied at checkout,
// keyed by user. The order itself carries its own immutable snapshot; this
// table only remembers what to prefill next time.
func UpsertClient(ctx context.Context, tx *sql.Tx, userID int64, contact models.ContactSnapshot) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO clients (user_id, name, email, phone, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET name = EXCLUDED.name,
		     email = EXCLUDED.email,
		     phone = EXCLUDED.phone,
		     address = EXCLUDED.address,
		     updated_at = NOW()`,
		userID, contact.Name, contact.Email, contact.Phone, contact.Address)
	if err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}

	return nil
}

// GetClient returns the stored contact details for a user, or nil when the
// user has never placed an order.
func GetClient(ctx context.Context, db *sql.DB, userID int64) (*models.ContactSnapshot, error) {
	contact := &models.ContactSnapshot{}

	err := db.QueryRowContext(ctx,
		`SELECT name, email, phone, address FROM clients WHERE user_id = $1`,
		userID).Scan(&contact.Name, &contact.Email, &contact.Phone, &contact.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	return contact, nil
}
