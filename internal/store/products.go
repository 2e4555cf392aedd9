package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/khadijabh/cafe-store/internal/database"
	"github.com/khadijabh/cafe-store/internal/models"
	"github.com/shopspring/decimal"
)

type ProductParams struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  int64
	ImageURL    string
}

const productColumns = `id, name, description, price, stock_quantity, category_id, image_url, created_at, updated_at, version`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}
	var imageURL sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.StockQuantity,
		&product.CategoryID,
		&imageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		return nil, err
	}

	product.ImageURL = imageURL.String
	product.Available = product.StockQuantity > 0
	return product, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func CreateProduct(ctx context.Context, db *sql.DB, params ProductParams) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, stock_quantity, category_id, image_url, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		params.Name, params.Description, params.Price, params.Stock,
		params.CategoryID, nullableString(params.ImageURL)))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, params ProductParams) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock_quantity = $4,
		    category_id = $5, image_url = $6, updated_at = NOW(), version = version + 1
		WHERE id = $7
		RETURNING ` + productColumns

	product, err := scanProduct(db.QueryRowContext(ctx, query,
		params.Name, params.Description, params.Price, params.Stock,
		params.CategoryID, nullableString(params.ImageURL), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// DeleteProduct hard-deletes a product. Active cart lines referencing it
// cascade away; order history does not, so a product with past orders is
// reported as ErrProductInUse instead.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// ListProducts returns an offset page of products, optionally filtered by
// category (categoryID 0 means all).
func ListProducts(ctx context.Context, db *sql.DB, categoryID int64, page, pageSize int) (*OffsetPage, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM products WHERE ($1 = 0 OR category_id = $1)`
	if err := db.QueryRowContext(ctx, countQuery, categoryID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = 0 OR category_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, query, categoryID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// lockProductStock reads price and stock under FOR UPDATE so concurrent
// checkouts serialize on the row.
func lockProductStock(ctx context.Context, tx *sql.Tx, productID int64) (price decimal.Decimal, stock int, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT price, stock_quantity FROM products WHERE id = $1 FOR UPDATE`,
		productID).Scan(&price, &stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return price, 0, database.ErrProductNotFound
		}
		return price, 0, fmt.Errorf("lock product %d: %w", productID, err)
	}

	return price, stock, nil
}

// DecrementStock subtracts quantity from the product's stock with a floor
// check in the statement itself, so stock can never go negative even if the
// earlier read raced.
func DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND stock_quantity >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &database.StockError{Shortages: []database.Shortage{
			{ProductID: productID, Requested: quantity},
		}}
	}

	return nil
}

// RestoreStock adds quantity back to the product's stock, used by order
// cancellation.
func RestoreStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity + $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}
