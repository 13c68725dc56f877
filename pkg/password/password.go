package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost factor de trabajo de bcrypt usado para todas las contraseñas.
const Cost = 10

// Hasher hashea y verifica contraseñas con bcrypt (sal aleatoria por hash).
type Hasher struct {
	cost int
}

// NewHasher construye el hasher con Cost.
func NewHasher() *Hasher {
	return &Hasher{cost: Cost}
}

// Hash devuelve el hash bcrypt de plain. El texto plano nunca se registra.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

// Verify informa si plain corresponde a hash.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
