package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/application/media"
	"github.com/jhoicas/stock-control-api/internal/application/usecase"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

// imageField campo multipart con la imagen del producto.
const imageField = "image"

// ProductHandler maneja las peticiones HTTP para Product (protegido).
type ProductHandler struct {
	uc  *usecase.ProductUseCase
	log *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase, log *logger.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        name         formData  string  true   "Nombre"
// @Param        sku          formData  string  true   "SKU único"
// @Param        categoryId   formData  int     true   "Categoría"
// @Param        description  formData  string  false  "Descripción"
// @Param        price        formData  number  false  "Precio"
// @Param        quantity     formData  int     false  "Existencia"
// @Param        minStock     formData  int     false  "Existencia mínima"
// @Param        image        formData  file    false  "Imagen JPEG o PNG"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, up, closeUp, err := h.readProduct(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer closeUp()
	out, err := h.uc.Create(c.UserContext(), in, up)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        categoryId  query  int  false  "Filtrar por categoría"
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var categoryID int64
	if raw := c.Query("categoryId"); raw != "" {
		n := c.QueryInt("categoryId", -1)
		if n <= 0 {
			return respondError(c, h.log, domain.Validation("categoryId inválido"))
		}
		categoryID = int64(n)
	}
	out, err := h.uc.List(c.UserContext(), categoryID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Productos con existencia baja
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products/low-stock [get]
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.uc.ListLowStock(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        id     path      int   true   "ID del producto"
// @Param        image  formData  file  false  "Nueva imagen JPEG o PNG"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	in, up, closeUp, err := h.readProduct(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer closeUp()
	out, err := h.uc.Update(c.UserContext(), id, in, up)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateQuantity godoc
// @Summary      Ajustar existencia
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del producto"
// @Param        body  body  dto.QuantityRequest  true  "quantity"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/quantity [patch]
func (h *ProductHandler) UpdateQuantity(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.QuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateQuantity(c.UserContext(), id, in.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto y su imagen
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.MessageResponse{Message: "producto eliminado"})
}

var productFields = []string{"name", "description", "sku", "price", "quantity", "minStock", "categoryId"}

// readProduct lee los campos del producto desde multipart, urlencoded o JSON, y la
// imagen opcional. closeUp libera el archivo abierto.
func (h *ProductHandler) readProduct(c *fiber.Ctx) (dto.ProductInput, *media.Upload, func(), error) {
	noop := func() {}
	values := map[string]*string{}

	switch {
	case strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return dto.ProductInput{}, nil, noop, domain.Validation("formulario inválido")
		}
		for _, k := range productFields {
			if v, ok := form.Value[k]; ok && len(v) > 0 {
				s := v[0]
				values[k] = &s
			}
		}
		files := form.File[imageField]
		if len(files) > 1 {
			return dto.ProductInput{}, nil, noop, domain.Validation("sólo se permite una imagen")
		}
		if len(files) == 1 {
			up, closeUp, err := openUpload(files[0])
			if err != nil {
				return dto.ProductInput{}, nil, noop, err
			}
			return toProductInput(values), up, closeUp, nil
		}
	case c.Is("json"):
		raw := map[string]any{}
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return dto.ProductInput{}, nil, noop, domain.Validation("cuerpo inválido")
		}
		for _, k := range productFields {
			v, ok := raw[k]
			if !ok || v == nil {
				continue
			}
			s := fmt.Sprint(v)
			values[k] = &s
		}
	default:
		args := c.Request().PostArgs()
		for _, k := range productFields {
			if args.Has(k) {
				s := string(args.Peek(k))
				values[k] = &s
			}
		}
	}
	return toProductInput(values), nil, noop, nil
}

func toProductInput(v map[string]*string) dto.ProductInput {
	return dto.ProductInput{
		Name:        v["name"],
		Description: v["description"],
		SKU:         v["sku"],
		Price:       v["price"],
		Quantity:    v["quantity"],
		MinStock:    v["minStock"],
		CategoryID:  v["categoryId"],
	}
}

func openUpload(fh *multipart.FileHeader) (*media.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, domain.Validation("no se pudo leer la imagen")
	}
	return &media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}, func() { _ = f.Close() }, nil
}
