package dto

// ErrorResponse cuerpo de error HTTP. Error siempre presente; Code permite al cliente
// distinguir casos (p.ej. TOKEN_EXPIRED para pedir un nuevo login).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse confirmación simple (borrados).
type MessageResponse struct {
	Message string `json:"message"`
}
