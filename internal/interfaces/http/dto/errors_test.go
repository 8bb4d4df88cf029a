package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeTenantRequired, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeSessionAlreadyOpen, http.StatusConflict},
		{shared.CodeAlreadyReceived, http.StatusConflict},
		{shared.CodeSaleAlreadyCancelled, http.StatusConflict},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeTransactionReversed, http.StatusConflict},
		{shared.CodeStockUnitInUse, http.StatusConflict},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeCreditLimitExceeded, http.StatusUnprocessableEntity},
		{shared.CodeOverSettlement, http.StatusUnprocessableEntity},
		{shared.CodeInvalidTransition, http.StatusUnprocessableEntity},
		{shared.CodeNoOpenSession, http.StatusUnprocessableEntity},
		{CodeUnauthorized, http.StatusUnauthorized},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}

func TestFromError(t *testing.T) {
	t.Run("wrapped domain error keeps code and details", func(t *testing.T) {
		unitID := uuid.New()
		err := fmt.Errorf("finalize: %w", shared.NewInsufficientStockError(unitID, 3, 1))

		status, info := FromError(err)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, shared.CodeInsufficientStock, info.Code)
		assert.Equal(t, unitID.String(), info.Details["stock_unit_id"])
		assert.Equal(t, 3, info.Details["requested"])
		assert.Equal(t, 1, info.Details["available"])
	})

	t.Run("infrastructure errors are hidden", func(t *testing.T) {
		status, info := FromError(errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, CodeInternal, info.Code)
		assert.NotContains(t, info.Message, "pq")
	})
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, &Meta{Total: 41, Page: 2, PageSize: 20, TotalPages: 3}, resp.Meta)

	assert.Equal(t, ListRequest{Page: 1, PageSize: 20}, ListRequest{}.Normalize())
}
