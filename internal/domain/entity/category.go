package entity

import "time"

// Category representa una categoría de productos. No puede eliminarse mientras tenga productos.
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryWithCount categoría con el número de productos asociados (listados).
type CategoryWithCount struct {
	Category
	ProductCount int
}
