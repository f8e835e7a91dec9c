package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError_PassesThrough(t *testing.T) {
	original := NewConflict("taken", nil)
	mapped := ToDomainError(original)
	assert.Equal(t, "CONFLICT", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainError_WrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("calling service: %w", NewUnauthorized("nope"))
	mapped := ToDomainError(wrapped)
	assert.Equal(t, "UNAUTHORIZED", mapped.Code)
}

func TestToDomainError_NoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainError_DeadlineIsStoreError(t *testing.T) {
	mapped := ToDomainError(context.DeadlineExceeded)
	assert.Equal(t, "STORE_ERROR", mapped.Code)
	assert.Equal(t, http.StatusServiceUnavailable, mapped.HTTPStatus)
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainError_UnwrapChain(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewStoreError(cause)
	assert.ErrorIs(t, err, cause)
}
