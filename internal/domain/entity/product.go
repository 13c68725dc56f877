package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// ImageURL es propiedad exclusiva del producto: ningún otro registro referencia el mismo archivo.
type Product struct {
	ID          int64
	Name        string
	Description string
	SKU         string          // código único
	Price       decimal.Decimal // >= 0
	Quantity    int             // >= 0
	MinStock    int             // >= 0
	CategoryID  int64
	ImageURL    string // vacío = sin imagen
	Category    *Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock informa si la existencia está en o por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}
