package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	typed := Clone(ErrNotFound, "Élève introuvable")
	wrapped := Wrap(typed, ErrInternal.Code, ErrInternal.Status, "ignored")

	got := FromError(typed)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "Élève introuvable", got.Message)

	// the outermost typed error wins
	assert.Equal(t, http.StatusInternalServerError, FromError(wrapped).Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	got := FromError(stdErrors.New("pq: connection refused"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, ErrInternal.Message, got.Message)
	assert.EqualError(t, got.Unwrap(), "pq: connection refused")
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrDuplicate, "Cet email est déjà utilisé")
	assert.True(t, stdErrors.Is(err, ErrDuplicate))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation("Données invalides", map[string]string{"email": "email est obligatoire"})
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "email est obligatoire", err.Fields["email"])
	assert.Nil(t, ErrValidation.Fields)
}
