package backend

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// Tipos de error conocidos del backend.
const (
	TypeDocumentNotFound       = "document_not_found"
	TypeDocumentInvalid        = "document_invalid_structure"
	TypeDocumentAlreadyExists  = "document_already_exists"
	TypeFileNotFound           = "storage_file_not_found"
	TypeUserInvalidCredentials = "user_invalid_credentials"
	TypeUserUnauthorized       = "user_unauthorized"
	TypeUserAlreadyExists      = "user_already_exists"
	TypeArgumentInvalid        = "general_argument_invalid"
)

// Error es la falla devuelta por el backend: codigo de estado, tipo y mensaje legible.
// Field se completa cuando la falla refiere a un atributo concreto.
type Error struct {
	Status  int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Type, e.Message)
}

func NotFound(kind, id string) *Error {
	typ := TypeDocumentNotFound
	if kind == "file" {
		typ = TypeFileNotFound
	}
	return &Error{
		Status:  http.StatusNotFound,
		Type:    typ,
		Message: fmt.Sprintf("The requested %s %q could not be found.", kind, id),
	}
}

// UnknownAttributeError construye la falla de estructura para un atributo no declarado.
func UnknownAttributeError(field string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Type:    TypeDocumentInvalid,
		Message: fmt.Sprintf("Invalid document structure: Unknown attribute: %q", field),
		Field:   field,
	}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Type: TypeUserUnauthorized, Message: msg}
}

func InvalidCredentials() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Type:    TypeUserInvalidCredentials,
		Message: "Invalid credentials. Please check the email and password.",
	}
}

func asError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	be, ok := asError(err)
	return ok && be.Status == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	be, ok := asError(err)
	return ok && be.Status == http.StatusUnauthorized
}

func IsInvalidCredentials(err error) bool {
	be, ok := asError(err)
	return ok && be.Type == TypeUserInvalidCredentials
}

func IsConflict(err error) bool {
	be, ok := asError(err)
	return ok && be.Status == http.StatusConflict
}

var unknownAttributePattern = regexp.MustCompile(`Unknown attribute:\s*"([^"]+)"`)

// UnknownAttribute informa el atributo rechazado por el backend en una falla de estructura.
// Usa el campo estructurado cuando existe; el mensaje solo se inspecciona como ultimo recurso.
func UnknownAttribute(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if be, ok := asError(err); ok {
		if be.Field != "" && (be.Type == TypeDocumentInvalid || be.Type == "") {
			return be.Field, true
		}
		if be.Type != "" && be.Type != TypeDocumentInvalid {
			return "", false
		}
		if m := unknownAttributePattern.FindStringSubmatch(be.Message); m != nil {
			return m[1], true
		}
		return "", false
	}
	if m := unknownAttributePattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1], true
	}
	return "", false
}
