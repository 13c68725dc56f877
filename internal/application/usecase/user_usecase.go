package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jhoicas/stock-control-api/internal/application/auth"
	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/internal/domain/entity"
	"github.com/jhoicas/stock-control-api/internal/domain/repository"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

// UserUseCase aplica reglas de negocio para usuarios. Las respuestas nunca incluyen el hash.
type UserUseCase struct {
	repo repository.UserRepository
	log  *logger.Logger
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, log *logger.Logger) *UserUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UserUseCase{repo: repo, log: log.Named("users")}
}

// List lista todos los usuarios.
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, domain.Internal("error listando usuarios", err)
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, auth.ToUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	u, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := auth.ToUserResponse(u)
	return &out, nil
}

// Update cambia nombre y/o email. Conflict si el email pertenece a otro usuario.
func (uc *UserUseCase) Update(ctx context.Context, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if in.Name == nil && in.Email == nil {
		return nil, domain.Validation("se requiere name o email")
	}
	u, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validation("name no puede quedar vacío")
		}
		u.Name = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.Validation("email inválido")
		}
		u.Email = email
	}
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrUniqueViolation):
			return nil, domain.Conflict("el email ya está registrado")
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFound("usuario no encontrado")
		default:
			return nil, domain.Internal("error actualizando usuario", err)
		}
	}
	out := auth.ToUserResponse(u)
	return &out, nil
}

// Delete elimina un usuario.
func (uc *UserUseCase) Delete(ctx context.Context, id int64) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("usuario no encontrado")
		}
		return domain.Internal("error eliminando usuario", err)
	}
	uc.log.Info().Int64("user_id", id).Msg("usuario eliminado")
	return nil
}

func (uc *UserUseCase) find(ctx context.Context, id int64) (*entity.User, error) {
	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("error consultando usuario", err)
	}
	if u == nil {
		return nil, domain.NotFound("usuario no encontrado")
	}
	return u, nil
}
