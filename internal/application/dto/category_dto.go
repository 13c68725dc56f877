package dto

import "time"

// CategoryRequest entrada para crear o actualizar una categoría (campos nil = no enviados).
type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ProductCount *int      `json:"productCount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CategoryDetailResponse categoría con sus productos.
type CategoryDetailResponse struct {
	CategoryResponse
	Products []ProductResponse `json:"products"`
}
