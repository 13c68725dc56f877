package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jhoicas/stock-control-api/internal/application/dto"
	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/internal/domain/entity"
	"github.com/jhoicas/stock-control-api/internal/domain/repository"
	"github.com/jhoicas/stock-control-api/pkg/logger"
)

// TokenIssuer emite credenciales de sesión (implementado por pkg/jwt.Manager).
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// PasswordHasher hashea y verifica passwords (implementado por pkg/password.Hasher).
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{users: users, hasher: hasher, tokens: tokens, log: log.Named("auth")}
}

// Register crea un usuario y devuelve su proyección pública con un token nuevo.
// AlreadyExists si el email ya está registrado.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.AuthResponse, error) {
	if uc.tokens == nil {
		return nil, domain.Config("emisor de tokens no configurado")
	}
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.Validation("name, email y password son requeridos")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validation("email inválido")
	}

	existing, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal("error consultando usuario", err)
	}
	if existing != nil {
		return nil, domain.AlreadyExists("el email ya está registrado")
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Validation("password inválido")
	}
	now := time.Now()
	user := &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, domain.AlreadyExists("el email ya está registrado")
		}
		return nil, domain.Internal("error creando usuario", err)
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Internal("error generando token", err)
	}
	uc.log.Info().Int64("user_id", user.ID).Msg("usuario registrado")
	return &dto.AuthResponse{User: ToUserResponse(user), Token: token}, nil
}

// Login verifica email/password y emite un token. Email desconocido y password
// incorrecto devuelven el mismo InvalidCredentials.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.AuthResponse, error) {
	if uc.tokens == nil {
		return nil, domain.Config("emisor de tokens no configurado")
	}
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.Validation("email y password son requeridos")
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal("error consultando usuario", err)
	}
	if user == nil || !uc.hasher.Verify(in.Password, user.PasswordHash) {
		uc.log.Debug().Msg("login rechazado")
		return nil, domain.InvalidCredentials()
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Internal("error generando token", err)
	}
	uc.log.Info().Int64("user_id", user.ID).Msg("login")
	return &dto.AuthResponse{User: ToUserResponse(user), Token: token}, nil
}

// ToUserResponse proyección pública de un usuario.
func ToUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
