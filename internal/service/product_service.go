// internal/service/product_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/utils"
)

// ProductService handles the bakery catalog
type ProductService struct {
	productRepo repository.ProductRepository
	logger      *utils.ServiceLogger
	auditLogger *utils.AuditLogger
}

// NewProductService creates a new product service instance
func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      utils.NewServiceLogger(logger, "product-service"),
		auditLogger: utils.NewAuditLogger(logger),
	}
}

// ListProducts returns every product newest first, or active products by name
func (ps *ProductService) ListProducts(ctx context.Context, activeOnly bool) ([]*model.Product, error) {
	products, err := ps.productRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves one product
func (ps *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := ps.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog
func (ps *ProductService) CreateProduct(ctx context.Context, req *ProductRequest) (*model.Product, error) {
	now := time.Now()
	product := &model.Product{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := ps.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	ps.auditLogger.LogProductChange("create", product.ID.String(), product.Name)
	return product, nil
}

// UpdateProduct replaces the name, price and active flag of a product
func (ps *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest) (*model.Product, error) {
	product, err := ps.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Price = req.Price
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = time.Now()

	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := ps.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	ps.auditLogger.LogProductChange("update", product.ID.String(), product.Name)
	return product, nil
}

// DeleteProduct deactivates a product, or removes it when hard is set. Stored
// transactions keep the product name either way.
func (ps *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID, hard bool) error {
	product, err := ps.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("product not found: %w", err)
	}

	if hard {
		if err := ps.productRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		ps.auditLogger.LogProductChange("delete", product.ID.String(), product.Name)
		return nil
	}

	product.Active = false
	product.UpdatedAt = time.Now()
	if err := ps.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	ps.auditLogger.LogProductChange("deactivate", product.ID.String(), product.Name)
	return nil
}

// ProductRequest represents product create and update requests
type ProductRequest struct {
	Name   string          `json:"name" binding:"required"`
	Price  decimal.Decimal `json:"price"`
	Active *bool           `json:"active,omitempty"`
}
