package domain

import "errors"

// Kind clasificación cerrada de errores de negocio. La capa HTTP traduce cada Kind a un status.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAlreadyExists
	KindConflict
	KindInvalidCredentials
	KindUnauthenticated
	KindTokenExpired
	KindNotFound
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAlreadyExists:
		return "already_exists"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTokenExpired:
		return "token_expired"
	case KindNotFound:
		return "not_found"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

// Error error de dominio etiquetado con su Kind. Message es apto para el cliente; Err
// conserva la causa para el log.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara por Kind: errors.Is(err, domain.ErrNotFound) es true para cualquier
// *Error de KindNotFound, sin importar el mensaje.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinelas por Kind (sin mensaje) para usar con errors.Is.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConfig             = &Error{Kind: KindConfig}
	ErrInternal           = &Error{Kind: KindInternal}
)

// Validation entrada faltante o mal formada.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// AlreadyExists campo único ya registrado (email).
func AlreadyExists(msg string) *Error { return &Error{Kind: KindAlreadyExists, Message: msg} }

// Conflict violación de unicidad o de referencia.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// InvalidCredentials email desconocido o password incorrecto (indistinguibles a propósito).
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "credenciales inválidas"}
}

// NotFound recurso inexistente.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Config error de configuración del servidor.
func Config(msg string) *Error { return &Error{Kind: KindConfig, Message: msg} }

// Internal envuelve un fallo inesperado de store o archivos.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf devuelve el Kind de err; KindInternal si err no es un *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
