package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductInput campos de producto tal como llegan (multipart o JSON). nil = no enviado.
// El caso de uso valida y convierte; así un fallo de validación ocurre después de recibir
// la imagen y puede limpiarla.
type ProductInput struct {
	Name        *string
	Description *string
	SKU         *string
	Price       *string
	Quantity    *string
	MinStock    *string
	CategoryID  *string
}

// QuantityRequest ajuste de existencia.
type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	SKU         string            `json:"sku"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int               `json:"quantity"`
	MinStock    int               `json:"minStock"`
	LowStock    bool              `json:"lowStock"`
	CategoryID  int64             `json:"categoryId"`
	ImageURL    *string           `json:"imageUrl"`
	Category    *CategoryResponse `json:"category,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
