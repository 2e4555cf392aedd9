package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khadijabh/cafe-store/internal/database"
	"github.com/khadijabh/cafe-store/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PlaceOrderRequest carries everything checkout needs besides the cart
// itself. The items always come from the caller's active cart lines; unit
// prices are the snapshots captured when the lines were added.
type PlaceOrderRequest struct {
	UserID          int64
	Contact         models.ContactSnapshot
	DeliveryAddress string
	DeliveryDate    time.Time
	Notes           string
}

func generateOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

const orderColumns = `id, user_id, order_number, status, total_amount,
	contact_name, contact_email, contact_phone, delivery_address, delivery_date,
	notes, created_at, updated_at, version`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	var email, notes sql.NullString

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalAmount,
		&order.Contact.Name,
		&email,
		&order.Contact.Phone,
		&order.DeliveryAddress,
		&order.DeliveryDate,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}

	order.Contact.Email = email.String
	order.Contact.Address = order.DeliveryAddress
	order.Notes = notes.String
	return order, nil
}

// PlaceOrder converts the user's active cart lines into a permanent order:
// it verifies stock under row locks, writes the order, its lines and the
// delivery record, decrements stock, upserts the contact record and marks
// the consumed cart lines ordered. All of it commits or none of it does.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		var userExists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, req.UserID).Scan(&userExists)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if !userExists {
			return database.ErrUserNotFound
		}

		// Product id order keeps the lock acquisition order stable across
		// concurrent checkouts.
		rows, err := tx.QueryContext(ctx,
			`SELECT id, product_id, quantity, unit_price
			 FROM cart_lines
			 WHERE user_id = $1 AND status = $2
			 ORDER BY product_id
			 FOR UPDATE`,
			req.UserID, models.CartLineStatusActive)
		if err != nil {
			return fmt.Errorf("load cart lines: %w", err)
		}

		type line struct {
			id        int64
			productID int64
			quantity  int
			unitPrice decimal.Decimal
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.id, &l.productID, &l.quantity, &l.unitPrice); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart line: %w", err)
			}
			lines = append(lines, l)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("rows error: %w", err)
		}
		rows.Close()

		if len(lines) == 0 {
			return database.ErrEmptyCart
		}

		// Verify every line before writing anything so the caller learns
		// about all shortages at once.
		var shortages []database.Shortage
		totalAmount := decimal.Zero
		for _, l := range lines {
			_, stock, err := lockProductStock(ctx, tx, l.productID)
			if err != nil {
				return err
			}
			if stock < l.quantity {
				shortages = append(shortages, database.Shortage{
					ProductID: l.productID,
					Requested: l.quantity,
					Available: stock,
				})
				continue
			}
			totalAmount = totalAmount.Add(l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity))))
		}
		if len(shortages) > 0 {
			return &database.StockError{Shortages: shortages}
		}

		if err := UpsertClient(ctx, tx, req.UserID, req.Contact); err != nil {
			return err
		}

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, order_number, status, total_amount,
			                     contact_name, contact_email, contact_phone,
			                     delivery_address, delivery_date, notes,
			                     created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), 1)
			 RETURNING id`,
			req.UserID, generateOrderNumber(), models.OrderStatusPending, totalAmount,
			req.Contact.Name, nullableString(req.Contact.Email), req.Contact.Phone,
			req.DeliveryAddress, req.DeliveryDate, nullableString(req.Notes)).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		lineIDs := make([]int64, 0, len(lines))
		for _, l := range lines {
			subtotal := l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())`,
				orderID, l.productID, l.quantity, l.unitPrice, subtotal)
			if err != nil {
				return fmt.Errorf("create order line: %w", err)
			}

			if err := DecrementStock(ctx, tx, l.productID, l.quantity); err != nil {
				return err
			}

			lineIDs = append(lineIDs, l.id)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO deliveries (order_id, address, delivery_date, phone, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
			orderID, req.DeliveryAddress, req.DeliveryDate, req.Contact.Phone,
			models.DeliveryStatusScheduled)
		if err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}

		// Consumed lines are kept for the audit trail, not deleted.
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_lines SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
			models.CartLineStatusOrdered, pq.Array(lineIDs))
		if err != nil {
			return fmt.Errorf("mark cart lines ordered: %w", err)
		}

		order, err = scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
		if err != nil {
			return fmt.Errorf("fetch created order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderForUser returns the order with its lines, scoped to the owning
// user. An order that belongs to someone else is reported as not found.
func GetOrderForUser(ctx context.Context, db *sql.DB, userID, orderID int64) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	lines, err := getOrderLines(ctx, db, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

func getOrderLines(ctx context.Context, db *sql.DB, orderID int64) ([]models.OrderLine, error) {
	query := `
		SELECT ol.id, ol.order_id, ol.product_id, p.name, ol.quantity, ol.unit_price, ol.subtotal, ol.created_at
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id = $1
		ORDER BY ol.id`

	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// ListOrdersCursor pages through the user's orders newest first.
func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// CancelOrder cancels a pending order owned by the user, restoring the
// stock of every line and cancelling the delivery. Orders past pending are
// rejected unchanged.
func CancelOrder(ctx context.Context, db *sql.DB, userID, orderID int64) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			orderID, userID).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if status != models.OrderStatusPending {
			return database.ErrOrderNotPending
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT product_id, quantity FROM order_lines WHERE order_id = $1 ORDER BY product_id`,
			orderID)
		if err != nil {
			return fmt.Errorf("load order lines: %w", err)
		}

		type restore struct {
			productID int64
			quantity  int
		}
		var restores []restore
		for rows.Next() {
			var r restore
			if err := rows.Scan(&r.productID, &r.quantity); err != nil {
				rows.Close()
				return fmt.Errorf("scan order line: %w", err)
			}
			restores = append(restores, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("rows error: %w", err)
		}
		rows.Close()

		for _, r := range restores {
			if err := RestoreStock(ctx, tx, r.productID, r.quantity); err != nil {
				return err
			}
		}

		order, err = scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET status = $1, updated_at = NOW(), version = version + 1
			 WHERE id = $2
			 RETURNING `+orderColumns,
			models.OrderStatusCancelled, orderID))
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE deliveries SET status = $1, updated_at = NOW() WHERE order_id = $2`,
			models.DeliveryStatusCancelled, orderID)
		if err != nil {
			return fmt.Errorf("cancel delivery: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}
