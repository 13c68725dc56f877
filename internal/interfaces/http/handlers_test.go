package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-control-api/internal/application/auth"
	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/application/media"
	"github.com/jhoicas/stock-control-api/internal/application/usecase"
	"github.com/jhoicas/stock-control-api/internal/domain/repository/repositorytest"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/storage"
	apphttp "github.com/jhoicas/stock-control-api/internal/interfaces/http"
	"github.com/jhoicas/stock-control-api/pkg/logger"
	"github.com/jhoicas/stock-control-api/pkg/password"
)

type testServer struct {
	app   *fiber.App
	root  string
	token string
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	store := repositorytest.NewStore()
	root := t.TempDir()
	disk, err := storage.NewLocalDisk(root, "/uploads")
	require.NoError(t, err)
	tokens := newTokens(t)
	log := logger.Nop()
	images := media.NewLifecycle(disk, log, 1024)

	app := apphttp.NewApp(apphttp.ServerConfig{
		AppName:        "stock-control-test",
		MaxUploadBytes: 1024,
		UploadsPrefix:  "/uploads",
		UploadsRoot:    root,
	}, apphttp.RouterDeps{
		AuthUC:     auth.NewAuthUseCase(store.Users(), password.NewHasher(), tokens, log),
		UserUC:     usecase.NewUserUseCase(store.Users(), log),
		CategoryUC: usecase.NewCategoryUseCase(store.Categories(), store.Products(), log),
		ProductUC:  usecase.NewProductUseCase(store.Products(), images, log),
		Tokens:     tokens,
		Log:        log,
	})
	s := &testServer{app: app, root: root}

	resp := s.json(t, http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"ana@example.com","password":"s3creto"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	s.token = out.Token
	return s
}

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	if s.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) json(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return s.do(t, req)
}

func (s *testServer) multipart(t *testing.T, method, path string, fields map[string]string, image []byte, imageType string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="foto.png"`)
		h.Set("Content-Type", imageType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(t, req)
}

func (s *testServer) uploads(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.root, "products"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, "/uploads/products/"+e.Name())
	}
	return names
}

func (s *testServer) createCategory(t *testing.T, name string) int64 {
	t.Helper()
	resp := s.json(t, http.MethodPost, "/api/categories", fmt.Sprintf(`{"name":%q}`, name))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var c dto.CategoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&c))
	return c.ID
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAuth_RegisterYLogin(t *testing.T) {
	s := newServer(t)

	resp := s.json(t, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"s3creto"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.AuthResponse](t, resp)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "Ana", out.User.Name)

	raw := s.json(t, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"s3creto"}`)
	body, _ := io.ReadAll(raw.Body)
	assert.NotContains(t, string(body), "password")
}

func TestAuth_RegisterDuplicado_400(t *testing.T) {
	s := newServer(t)
	resp := s.json(t, http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"ana@example.com","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, decode[dto.ErrorResponse](t, resp).Error)
}

func TestAuth_CredencialesInvalidas_MismoMensaje(t *testing.T) {
	s := newServer(t)
	wrong := decode[dto.ErrorResponse](t, s.json(t, http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"mal"}`))
	unknown := decode[dto.ErrorResponse](t, s.json(t, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"s3creto"}`))
	assert.Equal(t, wrong, unknown)
}

func TestAuth_CuerpoInvalido_400(t *testing.T) {
	s := newServer(t)
	resp := s.json(t, http.MethodPost, "/api/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidBody, decode[dto.ErrorResponse](t, resp).Code)
}

func TestRutasProtegidas_SinToken_401(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/api/users", "/api/products", "/api/categories", "/api/products/low-stock"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer ")
		resp := s.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestProducts_CrearConImagen_YServirArchivo(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")

	resp := s.multipart(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Martillo", "sku": "MAR-1", "price": "19.90", "quantity": "5", "minStock": "2",
		"categoryId": fmt.Sprint(catID),
	}, []byte("png-bytes"), "image/png")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[dto.ProductResponse](t, resp)

	require.NotNil(t, p.ImageURL)
	assert.Equal(t, []string{*p.ImageURL}, s.uploads(t))
	require.NotNil(t, p.Category)
	assert.Equal(t, "Herramientas", p.Category.Name)

	file := s.do(t, httptest.NewRequest(http.MethodGet, *p.ImageURL, nil))
	assert.Equal(t, http.StatusOK, file.StatusCode)
}

func TestProducts_CrearSinSKU_400YSinArchivo(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")

	resp := s.multipart(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Martillo", "categoryId": fmt.Sprint(catID),
	}, []byte("png-bytes"), "image/png")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, s.uploads(t))
}

func TestProducts_ImagenTipoInvalido_400(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")

	resp := s.multipart(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Martillo", "sku": "S", "categoryId": fmt.Sprint(catID),
	}, []byte("gif"), "image/gif")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, s.uploads(t))
}

func TestProducts_CrearJSON_YListarFiltrado(t *testing.T) {
	s := newServer(t)
	a := s.createCategory(t, "A")
	b := s.createCategory(t, "B")

	resp := s.json(t, http.MethodPost, "/api/products", fmt.Sprintf(`{"name":"Uno","sku":"U1","price":10.5,"quantity":1,"minStock":3,"categoryId":%d}`, a))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, "10.5", p.Price.String())
	assert.True(t, p.LowStock)

	resp = s.json(t, http.MethodPost, "/api/products", fmt.Sprintf(`{"name":"Dos","sku":"D2","quantity":9,"categoryId":%d}`, b))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list := decode[[]dto.ProductResponse](t, s.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products?categoryId=%d", b), nil)))
	require.Len(t, list, 1)
	assert.Equal(t, "D2", list[0].SKU)

	low := decode[[]dto.ProductResponse](t, s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/low-stock", nil)))
	require.Len(t, low, 1)
	assert.Equal(t, "U1", low[0].SKU)
}

func TestProducts_ActualizarImagen_BorraLaAnterior(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")
	created := decode[dto.ProductResponse](t, s.multipart(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Martillo", "sku": "MAR-1", "categoryId": fmt.Sprint(catID),
	}, []byte("old"), "image/png"))

	resp := s.multipart(t, http.MethodPut, fmt.Sprintf("/api/products/%d", created.ID), map[string]string{"name": "Mazo"}, []byte("new"), "image/jpeg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.ProductResponse](t, resp)

	assert.Equal(t, "Mazo", updated.Name)
	require.NotNil(t, updated.ImageURL)
	assert.True(t, strings.HasSuffix(*updated.ImageURL, ".jpg"))
	assert.Equal(t, []string{*updated.ImageURL}, s.uploads(t))
}

func TestProducts_ActualizarInexistente_404YSinArchivo(t *testing.T) {
	s := newServer(t)
	resp := s.multipart(t, http.MethodPut, "/api/products/999", map[string]string{"name": "X"}, []byte("img"), "image/png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, s.uploads(t))
}

func TestProducts_SKUDuplicado_400YSinArchivo(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")
	fields := map[string]string{"name": "Martillo", "sku": "DUP", "categoryId": fmt.Sprint(catID)}
	first := s.multipart(t, http.MethodPost, "/api/products", fields, nil, "")
	require.Equal(t, http.StatusCreated, first.StatusCode)

	resp := s.multipart(t, http.MethodPost, "/api/products", fields, []byte("img"), "image/png")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, s.uploads(t))
}

func TestProducts_ImagenDemasiadoGrande_400(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")
	resp := s.multipart(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Martillo", "sku": "BIG", "categoryId": fmt.Sprint(catID),
	}, bytes.Repeat([]byte("x"), 2048), "image/png")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, s.uploads(t))
}

func TestProducts_EliminarBorraArchivo(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")
	p := decode[dto.ProductResponse](t, s.multipart(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Martillo", "sku": "DEL", "categoryId": fmt.Sprint(catID),
	}, []byte("img"), "image/png"))

	resp := s.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, s.uploads(t))

	resp = s.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_AjustarExistencia(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")
	p := decode[dto.ProductResponse](t, s.json(t, http.MethodPost, "/api/products",
		fmt.Sprintf(`{"name":"Clavo","sku":"CLV","quantity":10,"categoryId":%d}`, catID)))

	resp := s.json(t, http.MethodPatch, fmt.Sprintf("/api/products/%d/stock", p.ID), `{"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[dto.ProductResponse](t, resp).Quantity)

	resp = s.json(t, http.MethodPatch, fmt.Sprintf("/api/products/%d/quantity", p.ID), `{"quantity":-3}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_IDInvalido_400(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCategories_EliminarConProductos_400YPermanece(t *testing.T) {
	s := newServer(t)
	catID := s.createCategory(t, "Herramientas")
	resp := s.json(t, http.MethodPost, "/api/products", fmt.Sprintf(`{"name":"Clavo","sku":"CLV","categoryId":%d}`, catID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/categories/%d", catID), nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/categories/%d", catID), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[dto.CategoryDetailResponse](t, resp)
	assert.Len(t, detail.Products, 1)
}

func TestUsers_ListYActualizar(t *testing.T) {
	s := newServer(t)
	users := decode[[]dto.UserResponse](t, s.do(t, httptest.NewRequest(http.MethodGet, "/api/users", nil)))
	require.Len(t, users, 1)

	resp := s.json(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users[0].ID), `{"name":"Ana María"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana María", decode[dto.UserResponse](t, resp).Name)

	resp = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/users/999", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthYMetrics(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "stock_http_requests_total")
}

func TestRutaInexistente_404ConSobre(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/no-existe", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNotFound, decode[dto.ErrorResponse](t, resp).Code)
}
