package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

// Códigos de error expuestos al cliente.
const (
	CodeMissingToken = "MISSING_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidBody  = "INVALID_BODY"
	CodeNotFound     = "NOT_FOUND"
)

// statusFor status HTTP por Kind de error de dominio.
func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindAlreadyExists, domain.KindConflict, domain.KindInvalidCredentials:
		return fiber.StatusBadRequest
	case domain.KindUnauthenticated, domain.KindTokenExpired:
		return fiber.StatusUnauthorized
	case domain.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError escribe err con el sobre {error, code}. Los errores internos y de
// configuración responden un mensaje genérico; el detalle va al log.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Internal("", err)
	}
	status := statusFor(de.Kind)
	msg := de.Message
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error procesando petición")
		msg = "error interno del servidor"
	}
	resp := dto.ErrorResponse{Error: msg}
	if de.Kind == domain.KindTokenExpired {
		resp.Code = CodeTokenExpired
	}
	return c.Status(status).JSON(resp)
}

// ErrorHandler maneja los errores que escapan de los handlers (rutas inexistentes,
// body demasiado grande, panics recuperados) con el mismo sobre de error.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			resp := dto.ErrorResponse{Error: fe.Message}
			if fe.Code == fiber.StatusNotFound {
				resp.Code = CodeNotFound
			}
			return c.Status(fe.Code).JSON(resp)
		}
		return respondError(c, log, err)
	}
}

// parseID lee el parámetro :id como entero positivo.
func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("id inválido")
	}
	return id, nil
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "cuerpo inválido", Code: CodeInvalidBody})
}
