package dto

import (
	"errors"
	"net/http"

	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// Transport codes that have no domain counterpart.
const (
	CodeValidation     = shared.CodeValidation
	CodeBadRequest     = "BAD_REQUEST"
	CodeInternal       = "INTERNAL_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeTokenExpired   = "TOKEN_EXPIRED"
	CodeTenantRequired = shared.CodeTenantRequired
)

// codeStatus maps every known code to its status. Unknown codes are 500.
var codeStatus = map[string]int{
	CodeValidation:     http.StatusBadRequest,
	CodeBadRequest:     http.StatusBadRequest,
	CodeTenantRequired: http.StatusBadRequest,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeTokenExpired:   http.StatusUnauthorized,
	CodeInternal:       http.StatusInternalServerError,

	shared.CodeNotFound: http.StatusNotFound,

	shared.CodeSessionAlreadyOpen:   http.StatusConflict,
	shared.CodeAlreadyReceived:      http.StatusConflict,
	shared.CodeSaleAlreadyCancelled: http.StatusConflict,
	shared.CodeConcurrencyConflict:  http.StatusConflict,
	shared.CodeTransactionReversed:  http.StatusConflict,
	shared.CodeStockUnitInUse:       http.StatusConflict,

	shared.CodeInvalidAmount:       http.StatusUnprocessableEntity,
	shared.CodeEmptyCart:           http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeInsufficientPayment: http.StatusUnprocessableEntity,
	shared.CodeUnknownStockUnit:    http.StatusUnprocessableEntity,
	shared.CodeNoOpenSession:       http.StatusUnprocessableEntity,
	shared.CodeCreditLimitExceeded: http.StatusUnprocessableEntity,
	shared.CodeCustomerRequired:    http.StatusUnprocessableEntity,
	shared.CodeOverSettlement:      http.StatusUnprocessableEntity,
	shared.CodeEntryAlreadySettled: http.StatusUnprocessableEntity,
	shared.CodeEntryCancelled:      http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition:   http.StatusUnprocessableEntity,
}

// HTTPStatus returns the status for code.
func HTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts err into a status and error body. Only domain errors
// expose their message; anything else becomes INTERNAL_ERROR.
func FromError(err error) (int, *ErrorInfo) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return HTTPStatus(de.Code), &ErrorInfo{
			Code:    de.Code,
			Message: de.Message,
			Details: de.Details,
		}
	}
	return http.StatusInternalServerError, &ErrorInfo{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	}
}
