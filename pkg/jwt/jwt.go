package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret el secreto de firma no está configurado (error de arranque, no de petición).
	ErrMissingSecret = errors.New("jwt: secret vacío")
	// ErrTokenExpired el token tenía firma válida pero ya venció.
	ErrTokenExpired = errors.New("jwt: token expirado")
	// ErrTokenInvalid cualquier otro fallo: firma, formato, algoritmo, claims.
	ErrTokenInvalid = errors.New("jwt: token inválido")
)

// DefaultTTL vigencia de un token de sesión.
const DefaultTTL = time.Hour

// Claims incluye los claims estándar JWT más el id del usuario.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

// Manager firma y valida tokens de sesión con HS256. No guarda estado: el vencimiento
// es el único mecanismo de invalidación.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option ajusta un Manager.
type Option func(*Manager)

// WithClock reemplaza el reloj usado para emitir y validar (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager construye el emisor/verificador. Falla con ErrMissingSecret si secret está vacío.
func NewManager(secret string, ttl time.Duration, issuer string, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue genera un token firmado para userID con vencimiento now+ttl.
func (m *Manager) Issue(userID int64) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: firmar token: %w", err)
	}
	return signed, nil
}

// Verify valida el token y devuelve el userID.
// Retorna ErrTokenExpired si venció y ErrTokenInvalid en cualquier otro caso.
func (m *Manager) Verify(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

// TTL devuelve la vigencia configurada.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
