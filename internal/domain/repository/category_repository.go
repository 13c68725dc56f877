package repository

import (
	"context"

	"github.com/jhoicas/stock-control-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	// FindByID devuelve (nil, nil) si no existe.
	FindByID(ctx context.Context, id int64) (*entity.Category, error)
	List(ctx context.Context) ([]*entity.CategoryWithCount, error)
	CountProducts(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, category *entity.Category) error
	// Update ErrNotFound si no existe.
	Update(ctx context.Context, category *entity.Category) error
	// Delete ErrNotFound si no existe; ErrForeignKeyViolation si aún tiene productos.
	Delete(ctx context.Context, id int64) error
}
