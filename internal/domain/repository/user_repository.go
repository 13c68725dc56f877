package repository

import (
	"context"

	"github.com/jhoicas/stock-control-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	// FindByEmail devuelve (nil, nil) si no existe.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByID devuelve (nil, nil) si no existe.
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	// Create asigna user.ID. ErrUniqueViolation si el email ya existe.
	Create(ctx context.Context, user *entity.User) error
	// Update persiste nombre y email. ErrNotFound / ErrUniqueViolation.
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context) ([]*entity.User, error)
	// Delete ErrNotFound si no existe.
	Delete(ctx context.Context, id int64) error
}
