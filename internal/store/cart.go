package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/khadijabh/cafe-store/internal/database"
	"github.com/khadijabh/cafe-store/internal/models"
	"github.com/shopspring/decimal"
)

// AddCartLine merges quantity into the user's active line for the product,
// creating the line with a unit price snapshot when none exists. The merged
// quantity must not exceed the product's live stock.
func AddCartLine(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	return database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		price, stock, err := lockProductStock(ctx, tx, productID)
		if err != nil {
			return err
		}

		var lineID int64
		var existing int
		err = tx.QueryRowContext(ctx,
			`SELECT id, quantity FROM cart_lines
			 WHERE user_id = $1 AND product_id = $2 AND status = $3`,
			userID, productID, models.CartLineStatusActive).Scan(&lineID, &existing)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("get cart line: %w", err)
		}

		merged := existing + quantity
		if merged > stock {
			return &database.StockError{Shortages: []database.Shortage{
				{ProductID: productID, Requested: merged, Available: stock},
			}}
		}

		lineTotal := price.Mul(decimal.NewFromInt(int64(merged)))

		if err == sql.ErrNoRows {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cart_lines (user_id, product_id, quantity, unit_price, line_total, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
				userID, productID, quantity, price, lineTotal, models.CartLineStatusActive)
			if err != nil {
				return fmt.Errorf("insert cart line: %w", err)
			}
			return nil
		}

		// Line total is recomputed from the snapshot price taken at first
		// add, not from the current product price.
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_lines
			 SET quantity = $1, line_total = unit_price * $1, updated_at = NOW()
			 WHERE id = $2`,
			merged, lineID)
		if err != nil {
			return fmt.Errorf("update cart line: %w", err)
		}

		return nil
	})
}

// UpdateCartLineQuantity replaces the quantity of an existing active line.
// Removal is a separate operation; quantities below 1 are rejected upstream.
func UpdateCartLineQuantity(ctx context.Context, db *sql.DB, userID, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	return database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		_, stock, err := lockProductStock(ctx, tx, productID)
		if err != nil {
			return err
		}

		if quantity > stock {
			return &database.StockError{Shortages: []database.Shortage{
				{ProductID: productID, Requested: quantity, Available: stock},
			}}
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE cart_lines
			 SET quantity = $1, line_total = unit_price * $1, updated_at = NOW()
			 WHERE user_id = $2 AND product_id = $3 AND status = $4`,
			quantity, userID, productID, models.CartLineStatusActive)
		if err != nil {
			return fmt.Errorf("update cart line: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return database.ErrCartLineNotFound
		}

		return nil
	})
}

func RemoveCartLine(ctx context.Context, db *sql.DB, userID, productID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_lines
		 WHERE user_id = $1 AND product_id = $2 AND status = $3`,
		userID, productID, models.CartLineStatusActive)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrCartLineNotFound
	}

	return nil
}

// ClearCart deletes all of the user's active lines. Clearing an already
// empty cart succeeds.
func ClearCart(ctx context.Context, db *sql.DB, userID int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1 AND status = $2`,
		userID, models.CartLineStatusActive)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return removed, nil
}

// GetCart returns the user's active lines joined with live product display
// data plus per-line and aggregate totals. The inner join means lines whose
// product has been deleted simply do not appear.
func GetCart(ctx context.Context, db *sql.DB, userID int64) (*models.Cart, error) {
	query := `
		SELECT cl.id, cl.user_id, cl.product_id, cl.quantity, cl.unit_price, cl.line_total,
		       cl.status, cl.created_at, cl.updated_at,
		       p.name, p.description, p.image_url, p.stock_quantity
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.user_id = $1 AND cl.status = $2
		ORDER BY cl.created_at, cl.id`

	rows, err := db.QueryContext(ctx, query, userID, models.CartLineStatusActive)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer rows.Close()

	cart := &models.Cart{Items: []models.CartItem{}, Total: decimal.Zero}
	for rows.Next() {
		var item models.CartItem
		var imageURL sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ProductName,
			&item.ProductDescription,
			&imageURL,
			&item.StockQuantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}

		item.ProductImageURL = imageURL.String
		item.Available = item.StockQuantity > 0
		cart.Items = append(cart.Items, item)
		cart.Count += item.Quantity
		cart.Total = cart.Total.Add(item.LineTotal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cart, nil
}
