package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Messages are user facing and written
// in French.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so that clones compare equal to their template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The message stays generic for clients; the cause is kept
// for server side logs.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Validation builds a 400 error carrying a per-field message map.
func Validation(message string, fields map[string]string) *Error {
	e := Clone(ErrValidation, message)
	e.Fields = fields
	return e
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Email ou mot de passe incorrect")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "Compte désactivé")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "Ressource introuvable")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "Accès refusé")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "Non authentifié")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "Conflit")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "Données invalides")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "Erreur interne du serveur")
	ErrDuplicate          = New("DUPLICATE", http.StatusBadRequest, "Cette valeur est déjà utilisée")
	ErrReferenced         = New("REFERENCED", http.StatusBadRequest, "Ressource encore référencée")
	ErrScheduleConflict   = New("SCHEDULE_CONFLICT", http.StatusBadRequest, "Créneau déjà occupé")
	ErrInvalidTransition  = New("INVALID_TRANSITION", http.StatusBadRequest, "Changement de statut non autorisé")
	ErrLocked             = New("LOCKED", http.StatusConflict, "Traitement déjà en cours")
	ErrCacheMiss          = errors.New("cache miss")
	ErrLockNotAcquired    = errors.New("lock not acquired")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
