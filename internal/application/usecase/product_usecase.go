package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/application/media"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/internal/domain/entity"
	"github.com/jhoicas/stock-control-api/internal/domain/repository"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

// ProductUseCase casos de uso de productos. Crear, actualizar y borrar coordinan la
// imagen del producto con media.Lifecycle: un archivo sólo sobrevive si su registro
// quedó escrito.
type ProductUseCase struct {
	repo   repository.ProductRepository
	images *media.Lifecycle
	log    *logger.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, images *media.Lifecycle, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{repo: repo, images: images, log: log.Named("products")}
}

// Create crea un producto con la imagen opcional up.
// name, sku y categoryId son requeridos; price, quantity y minStock default 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.ProductInput, up *media.Upload) (*dto.ProductResponse, error) {
	staged, err := uc.images.Stage(ctx, up)
	if err != nil {
		return nil, err
	}
	defer staged.Rollback(ctx)

	if isBlank(in.Name) || isBlank(in.SKU) || isBlank(in.CategoryID) {
		return nil, domain.Validation("name, sku y categoryId son requeridos")
	}
	product := &entity.Product{Price: decimal.Zero}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	now := time.Now()
	product.ImageURL = staged.URL()
	product.CreatedAt, product.UpdatedAt = now, now

	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, productStoreError(err)
	}
	staged.Commit(ctx, "")
	uc.log.Info().Int64("product_id", product.ID).Str("sku", product.SKU).Msg("producto creado")
	return uc.reload(ctx, product)
}

// GetByID obtiene un producto con su categoría. NotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(p), nil
}

// List lista productos; categoryID 0 = todos.
func (uc *ProductUseCase) List(ctx context.Context, categoryID int64) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(ctx, repository.ProductFilter{CategoryID: categoryID})
	if err != nil {
		return nil, domain.Internal("error listando productos", err)
	}
	return toProductResponses(list), nil
}

// ListLowStock productos con existencia en o por debajo del mínimo.
func (uc *ProductUseCase) ListLowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.repo.ListLowStock(ctx)
	if err != nil {
		return nil, domain.Internal("error listando productos", err)
	}
	return toProductResponses(list), nil
}

// Update aplica los campos enviados y reemplaza la imagen si llega una nueva.
// La imagen anterior se libera sólo después de guardar el registro.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.ProductInput, up *media.Upload) (*dto.ProductResponse, error) {
	staged, err := uc.images.Stage(ctx, up)
	if err != nil {
		return nil, err
	}
	defer staged.Rollback(ctx)

	if id <= 0 {
		return nil, domain.Validation("id de producto inválido")
	}
	product, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previousURL := product.ImageURL

	for _, f := range []*string{in.Name, in.SKU, in.CategoryID} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return nil, domain.Validation("name, sku y categoryId no pueden quedar vacíos")
		}
	}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if staged != nil {
		product.ImageURL = staged.URL()
	}
	product.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, productStoreError(err)
	}
	if staged != nil {
		staged.Commit(ctx, previousURL)
	}
	uc.log.Info().Int64("product_id", product.ID).Msg("producto actualizado")
	return uc.reload(ctx, product)
}

// UpdateQuantity fija la existencia de un producto (>= 0).
func (uc *ProductUseCase) UpdateQuantity(ctx context.Context, id int64, quantity *int) (*dto.ProductResponse, error) {
	if quantity == nil {
		return nil, domain.Validation("quantity es requerido")
	}
	if *quantity < 0 {
		return nil, domain.Validation("quantity no puede ser negativo")
	}
	if err := uc.repo.UpdateQuantity(ctx, id, *quantity); err != nil {
		return nil, productStoreError(err)
	}
	p, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(p), nil
}

// Delete elimina el producto y después su imagen. Un fallo al borrar el archivo
// no afecta el resultado.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	product, err := uc.find(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return productStoreError(err)
	}
	uc.images.Release(ctx, product.ImageURL)
	uc.log.Info().Int64("product_id", id).Msg("producto eliminado")
	return nil
}

func (uc *ProductUseCase) find(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("error consultando producto", err)
	}
	if p == nil {
		return nil, domain.NotFound("producto no encontrado")
	}
	return p, nil
}

// reload relee el producto para devolverlo con su categoría. Si la relectura falla
// la escritura ya ocurrió, así que se responde con lo que se tiene.
func (uc *ProductUseCase) reload(ctx context.Context, p *entity.Product) (*dto.ProductResponse, error) {
	fresh, err := uc.repo.FindByID(ctx, p.ID)
	if err != nil || fresh == nil {
		uc.log.Warn().Err(err).Int64("product_id", p.ID).Msg("no se pudo releer el producto")
		return ToProductResponse(p), nil
	}
	return ToProductResponse(fresh), nil
}

// applyProductInput convierte y valida los campos enviados sobre p.
func applyProductInput(p *entity.Product, in dto.ProductInput) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Price != nil && strings.TrimSpace(*in.Price) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(*in.Price))
		if err != nil || price.IsNegative() {
			return domain.Validation("price debe ser un número >= 0")
		}
		p.Price = price.Round(2)
	}
	if in.Quantity != nil && strings.TrimSpace(*in.Quantity) != "" {
		n, err := parseNonNegative(*in.Quantity)
		if err != nil {
			return domain.Validation("quantity debe ser un entero >= 0")
		}
		p.Quantity = n
	}
	if in.MinStock != nil && strings.TrimSpace(*in.MinStock) != "" {
		n, err := parseNonNegative(*in.MinStock)
		if err != nil {
			return domain.Validation("minStock debe ser un entero >= 0")
		}
		p.MinStock = n
	}
	if in.CategoryID != nil {
		id, err := strconv.ParseInt(strings.TrimSpace(*in.CategoryID), 10, 64)
		if err != nil || id <= 0 {
			return domain.Validation("categoryId inválido")
		}
		p.CategoryID = id
	}
	return nil
}

var errNegative = errors.New("negativo")

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// productStoreError traduce los errores del repositorio de productos.
func productStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUniqueViolation):
		return domain.Conflict("el SKU ya existe")
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return domain.Conflict("categoría inválida")
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound("producto no encontrado")
	default:
		return domain.Internal("error guardando producto", err)
	}
}

// ToProductResponse proyección de salida de un producto.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	out := &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Price:       p.Price,
		Quantity:    p.Quantity,
		MinStock:    p.MinStock,
		LowStock:    p.IsLowStock(),
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ImageURL != "" {
		url := p.ImageURL
		out.ImageURL = &url
	}
	if p.Category != nil {
		c := toCategoryResponse(p.Category, nil)
		out.Category = &c
	}
	return out
}

func toProductResponses(list []*entity.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToProductResponse(p))
	}
	return out
}
