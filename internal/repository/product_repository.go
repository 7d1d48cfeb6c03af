// internal/repository/product_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/internal/database"
	"pos-service/internal/model"
)

// productRepository implements ProductRepository on postgres
type productRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewProductRepository creates a new postgres product repository
func NewProductRepository(db *database.DB, logger *zap.Logger) ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new product
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ID, product.Name, product.Price, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by ID
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product := &model.Product{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, active, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.Active,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Update updates an existing product
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = $2, price = $3, active = $4, updated_at = $5
		WHERE id = $1
	`, product.ID, product.Name, product.Price, product.Active, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOneRow(result, "product", product.ID)
}

// Delete removes a product
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectOneRow(result, "product", id)
}

// List returns all products newest first, or active products by name
func (r *productRepository) List(ctx context.Context, activeOnly bool) ([]*model.Product, error) {
	query := `SELECT id, name, price, active, created_at, updated_at FROM products ORDER BY created_at DESC`
	if activeOnly {
		query = `SELECT id, name, price, active, created_at, updated_at FROM products WHERE active = TRUE ORDER BY name ASC`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		product := &model.Product{}
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price, &product.Active,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan product row", zap.Error(err))
			continue
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func expectOneRow(result sql.Result, entity string, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
