package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/internal/domain/entity"
	"github.com/jhoicas/stock-control-api/internal/domain/repository"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

// CategoryUseCase casos de uso CRUD para categorías.
type CategoryUseCase struct {
	repo     repository.CategoryRepository
	products repository.ProductRepository
	log      *logger.Logger
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository, products repository.ProductRepository, log *logger.Logger) *CategoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CategoryUseCase{repo: repo, products: products, log: log.Named("categories")}
}

// List lista categorías con su número de productos.
func (uc *CategoryUseCase) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, domain.Internal("error listando categorías", err)
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		n := c.ProductCount
		out = append(out, toCategoryResponse(&c.Category, &n))
	}
	return out, nil
}

// GetByID obtiene una categoría con sus productos.
func (uc *CategoryUseCase) GetByID(ctx context.Context, id int64) (*dto.CategoryDetailResponse, error) {
	c, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := uc.products.List(ctx, repository.ProductFilter{CategoryID: id})
	if err != nil {
		return nil, domain.Internal("error listando productos", err)
	}
	n := len(products)
	return &dto.CategoryDetailResponse{
		CategoryResponse: toCategoryResponse(c, &n),
		Products:         toProductResponses(products),
	}, nil
}

// Create crea una categoría. name es requerido.
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	if isBlank(in.Name) {
		return nil, domain.Validation("name es requerido")
	}
	now := time.Now()
	c := &entity.Category{Name: strings.TrimSpace(*in.Name), CreatedAt: now, UpdatedAt: now}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, domain.Internal("error creando categoría", err)
	}
	uc.log.Info().Int64("category_id", c.ID).Msg("categoría creada")
	out := toCategoryResponse(c, nil)
	return &out, nil
}

// Update actualización parcial; al menos un campo.
func (uc *CategoryUseCase) Update(ctx context.Context, id int64, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	if in.Name == nil && in.Description == nil {
		return nil, domain.Validation("se requiere name o description")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Validation("name no puede quedar vacío")
	}
	c, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("categoría no encontrada")
		}
		return nil, domain.Internal("error actualizando categoría", err)
	}
	out := toCategoryResponse(c, nil)
	return &out, nil
}

// Delete elimina una categoría sin productos. Conflict si aún tiene productos.
func (uc *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	if _, err := uc.find(ctx, id); err != nil {
		return err
	}
	n, err := uc.repo.CountProducts(ctx, id)
	if err != nil {
		return domain.Internal("error contando productos", err)
	}
	if n > 0 {
		return domain.Conflict("no se puede eliminar una categoría con productos")
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.NotFound("categoría no encontrada")
		case errors.Is(err, repository.ErrForeignKeyViolation):
			// un producto se asignó entre el conteo y el borrado
			return domain.Conflict("no se puede eliminar una categoría con productos")
		default:
			return domain.Internal("error eliminando categoría", err)
		}
	}
	uc.log.Info().Int64("category_id", id).Msg("categoría eliminada")
	return nil
}

func (uc *CategoryUseCase) find(ctx context.Context, id int64) (*entity.Category, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("error consultando categoría", err)
	}
	if c == nil {
		return nil, domain.NotFound("categoría no encontrada")
	}
	return c, nil
}

func toCategoryResponse(c *entity.Category, productCount *int) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: productCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
