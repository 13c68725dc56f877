package repository

import "errors"

// Condiciones distinguibles que devuelven los adaptadores de persistencia.
// Los casos de uso las traducen a errores de dominio.
var (
	ErrNotFound            = errors.New("repository: registro no encontrado")
	ErrUniqueViolation     = errors.New("repository: violación de unicidad")
	ErrForeignKeyViolation = errors.New("repository: violación de llave foránea")
)
