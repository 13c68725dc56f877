package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/application/media"
	"github.com/jhoicas/stock-control-api/internal/application/usecase"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/internal/domain/entity"
	"github.com/jhoicas/stock-control-api/internal/domain/repository/repositorytest"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/storage"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

type fixture struct {
	store      *repositorytest.Store
	disk       *storage.LocalDisk
	products   *usecase.ProductUseCase
	categories *usecase.CategoryUseCase
	categoryID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositorytest.NewStore()
	disk, err := storage.NewLocalDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)
	images := media.NewLifecycle(disk, logger.Nop(), 0)

	f := &fixture{
		store:      store,
		disk:       disk,
		products:   usecase.NewProductUseCase(store.Products(), images, logger.Nop()),
		categories: usecase.NewCategoryUseCase(store.Categories(), store.Products(), logger.Nop()),
	}
	c := &entity.Category{Name: "Herramientas"}
	require.NoError(t, store.Categories().Create(context.Background(), c))
	f.categoryID = c.ID
	return f
}

func (f *fixture) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.disk.Root(), "products"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, "/uploads/products/"+e.Name())
	}
	return out
}

func str(s string) *string { return &s }

func png(body string) *media.Upload {
	return &media.Upload{Filename: "p.png", ContentType: "image/png", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func (f *fixture) input(sku string) dto.ProductInput {
	return dto.ProductInput{
		Name:       str("Martillo"),
		SKU:        str(sku),
		Price:      str("19.99"),
		Quantity:   str("10"),
		MinStock:   str("3"),
		CategoryID: str(formatID(f.categoryID)),
	}
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func TestCreate_ConImagen_GuardaRegistroYArchivo(t *testing.T) {
	f := newFixture(t)
	out, err := f.products.Create(context.Background(), f.input("MAR-1"), png("img"))
	require.NoError(t, err)

	require.NotNil(t, out.ImageURL)
	assert.Equal(t, []string{*out.ImageURL}, f.uploadedFiles(t))
	assert.Equal(t, "19.99", out.Price.StringFixed(2))
	assert.False(t, out.LowStock)
	require.NotNil(t, out.Category)
	assert.Equal(t, "Herramientas", out.Category.Name)
}

func TestCreate_SinSKU_NoDejaArchivo(t *testing.T) {
	f := newFixture(t)
	in := f.input("")
	_, err := f.products.Create(context.Background(), in, png("img"))

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestCreate_ValoresNumericosInvalidos_NoDejaArchivo(t *testing.T) {
	f := newFixture(t)
	for _, mutate := range []func(*dto.ProductInput){
		func(in *dto.ProductInput) { in.Price = str("-1") },
		func(in *dto.ProductInput) { in.Price = str("abc") },
		func(in *dto.ProductInput) { in.Quantity = str("-2") },
		func(in *dto.ProductInput) { in.MinStock = str("x") },
		func(in *dto.ProductInput) { in.CategoryID = str("cero") },
	} {
		in := f.input("NUM-1")
		mutate(&in)
		_, err := f.products.Create(context.Background(), in, png("img"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Empty(t, f.uploadedFiles(t))
}

func TestCreate_SKUDuplicado_ConflictYBorraArchivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.products.Create(ctx, f.input("DUP"), png("a"))
	require.NoError(t, err)

	_, err = f.products.Create(ctx, f.input("DUP"), png("b"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, []string{*first.ImageURL}, f.uploadedFiles(t))
}

func TestCreate_CategoriaInexistente_Conflict(t *testing.T) {
	f := newFixture(t)
	in := f.input("CAT-X")
	in.CategoryID = str("9999")

	_, err := f.products.Create(context.Background(), in, png("a"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestCreate_ErrorDeStore_InternalYBorraArchivo(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = errors.New("db caída")

	_, err := f.products.Create(context.Background(), f.input("ERR"), png("a"))
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Empty(t, f.uploadedFiles(t))
}

func TestCreate_DefaultsYStockBajo(t *testing.T) {
	f := newFixture(t)
	in := dto.ProductInput{Name: str("Clavo"), SKU: str("CLV"), CategoryID: str(formatID(f.categoryID))}

	out, err := f.products.Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.True(t, out.Price.IsZero())
	assert.Equal(t, 0, out.Quantity)
	assert.True(t, out.LowStock)
	assert.Nil(t, out.ImageURL)
}

func TestUpdate_NuevaImagen_ReemplazaArchivoAnterior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.products.Create(ctx, f.input("UPD"), png("old"))
	require.NoError(t, err)
	oldURL := *created.ImageURL

	updated, err := f.products.Update(ctx, created.ID, dto.ProductInput{Name: str("Martillo grande")}, png("new"))
	require.NoError(t, err)

	require.NotNil(t, updated.ImageURL)
	assert.NotEqual(t, oldURL, *updated.ImageURL)
	assert.Equal(t, "Martillo grande", updated.Name)
	assert.Equal(t, []string{*updated.ImageURL}, f.uploadedFiles(t))
}

func TestUpdate_SinImagen_ConservaLaActual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.products.Create(ctx, f.input("KEEP"), png("img"))
	require.NoError(t, err)

	updated, err := f.products.Update(ctx, created.ID, dto.ProductInput{Quantity: str("1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ImageURL, updated.ImageURL)
	assert.True(t, updated.LowStock)
	assert.Len(t, f.uploadedFiles(t), 1)
}

func TestUpdate_ProductoInexistente_NotFoundYBorraArchivo(t *testing.T) {
	f := newFixture(t)
	_, err := f.products.Update(context.Background(), 4242, dto.ProductInput{Name: str("x")}, png("img"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestUpdate_IDInvalido_ValidationYBorraArchivo(t *testing.T) {
	f := newFixture(t)
	_, err := f.products.Update(context.Background(), 0, dto.ProductInput{}, png("img"))

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestUpdate_SKUDeOtroProducto_ConflictYConservaImagenAnterior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.products.Create(ctx, f.input("A"), nil)
	require.NoError(t, err)
	b, err := f.products.Create(ctx, f.input("B"), png("b"))
	require.NoError(t, err)

	_, err = f.products.Update(ctx, b.ID, dto.ProductInput{SKU: str("A")}, png("nueva"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, []string{*b.ImageURL}, f.uploadedFiles(t))
}

func TestDelete_BorraRegistroYArchivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.products.Create(ctx, f.input("DEL"), png("img"))
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	assert.Empty(t, f.uploadedFiles(t))
	_, err = f.products.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_ArchivoYaNoExiste_IgualExitoso(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.products.Create(ctx, f.input("GONE"), png("img"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.disk.Root(), filepath.FromSlash(strings.TrimPrefix(*p.ImageURL, "/uploads/")))))

	assert.NoError(t, f.products.Delete(ctx, p.ID))
}

func TestDelete_Inexistente_NotFound(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.products.Delete(context.Background(), 77), domain.ErrNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.products.Create(ctx, f.input("QTY"), nil)
	require.NoError(t, err)

	_, err = f.products.UpdateQuantity(ctx, p.ID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	neg := -1
	_, err = f.products.UpdateQuantity(ctx, p.ID, &neg)
	assert.ErrorIs(t, err, domain.ErrValidation)

	two := 2
	out, err := f.products.UpdateQuantity(ctx, p.ID, &two)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Quantity)
	assert.True(t, out.LowStock)

	_, err = f.products.UpdateQuantity(ctx, 999, &two)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListYLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &entity.Category{Name: "Pinturas"}
	require.NoError(t, f.store.Categories().Create(ctx, other))

	_, err := f.products.Create(ctx, f.input("OK"), nil)
	require.NoError(t, err)
	low := f.input("LOW")
	low.Quantity = str("1")
	low.CategoryID = str(formatID(other.ID))
	_, err = f.products.Create(ctx, low, nil)
	require.NoError(t, err)

	all, err := f.products.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCat, err := f.products.List(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "LOW", byCat[0].SKU)

	lows, err := f.products.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, "LOW", lows[0].SKU)
}
