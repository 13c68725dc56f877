package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/pkg/jwt"
)

// LocalUserID key de c.Locals con el id del usuario autenticado.
const LocalUserID = "user_id"

type ctxKey struct{}

// TokenVerifier valida un token de sesión y devuelve el userID (pkg/jwt.Manager).
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// AuthMiddleware valida el Bearer Token y deja el userID en c.Locals y en el
// context de la petición. Un token vencido responde TOKEN_EXPIRED para que el
// cliente pida un nuevo login.
func AuthMiddleware(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if strings.TrimSpace(authHeader) == "" {
			return unauthorized(c, "Authorization header requerido", CodeMissingToken)
		}
		parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
		if len(parts) == 1 && strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "token vacío", CodeMissingToken)
		}
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "formato: Bearer <token>", CodeInvalidToken)
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return unauthorized(c, "token vacío", CodeMissingToken)
		}
		userID, err := tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return unauthorized(c, "token expirado", CodeTokenExpired)
			}
			return unauthorized(c, "token inválido", CodeInvalidToken)
		}
		c.Locals(LocalUserID, userID)
		c.SetUserContext(context.WithValue(c.UserContext(), ctxKey{}, userID))
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: msg, Code: code})
}

// GetUserID devuelve el userID (después del middleware de auth); 0 si no hay.
func GetUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalUserID).(int64)
	return id
}

// UserIDFromContext devuelve el userID guardado por AuthMiddleware en ctx.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
