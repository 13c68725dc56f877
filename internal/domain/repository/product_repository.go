package repository

import (
	"context"

	"github.com/jhoicas/stock-control-api/internal/domain/entity"
)

// ProductFilter filtros opcionales de listado.
type ProductFilter struct {
	CategoryID int64 // 0 = todas
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las lecturas incluyen la categoría en Product.Category.
type ProductRepository interface {
	// FindByID devuelve (nil, nil) si no existe.
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	// ListLowStock productos con quantity <= min_stock.
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	// Create asigna product.ID. ErrUniqueViolation (sku) / ErrForeignKeyViolation (categoría).
	Create(ctx context.Context, product *entity.Product) error
	// Update persiste todos los campos editables. ErrNotFound / ErrUniqueViolation / ErrForeignKeyViolation.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateQuantity ErrNotFound si no existe.
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	// Delete ErrNotFound si no existe.
	Delete(ctx context.Context, id int64) error
}
