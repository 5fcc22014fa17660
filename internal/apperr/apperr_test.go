package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeForbidden))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("bogus"))
}

func TestAsThroughWrapping(t *testing.T) {
	base := Conflict("asset is not available for transfer")
	wrapped := fmt.Errorf("creating transfer: %w", base)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeConflict, typed.Code())
	assert.Equal(t, "asset is not available for transfer", typed.Message())
}

func TestCodeOfUntyped(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk full")))
	assert.Nil(t, As(errors.New("disk full")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("constraint failed")
	err := Wrap(CodeConflict, cause, "serial number already exists")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "serial number already exists", err.Message())
	assert.Equal(t, "asset not found", NotFound("asset").Message())
}

func TestWithDetailsCopies(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"serial_number": "is required"})

	assert.Nil(t, base.Details())
	assert.Equal(t, map[string]string{"serial_number": "is required"}, detailed.Details())
	assert.Equal(t, CodeValidation, detailed.Code())
}
