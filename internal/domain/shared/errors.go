package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context of the engine
const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeInvalidTransition    = "INVALID_STATE_TRANSITION"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeEmptyCart            = "EMPTY_CART"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInsufficientPayment  = "INSUFFICIENT_PAYMENT"
	CodeUnknownStockUnit     = "UNKNOWN_STOCK_UNIT"
	CodeStockUnitInUse       = "STOCK_UNIT_IN_USE"
	CodeNoOpenSession        = "NO_OPEN_SESSION"
	CodeSessionAlreadyOpen   = "SESSION_ALREADY_OPEN"
	CodeCreditLimitExceeded  = "CREDIT_LIMIT_EXCEEDED"
	CodeCustomerRequired     = "CUSTOMER_REQUIRED"
	CodeOverSettlement       = "OVER_SETTLEMENT"
	CodeEntryAlreadySettled  = "ENTRY_ALREADY_SETTLED"
	CodeEntryCancelled       = "ENTRY_CANCELLED"
	CodeAlreadyReceived      = "ALREADY_RECEIVED"
	CodeSaleAlreadyCancelled = "SALE_ALREADY_CANCELLED"
	CodeTransactionReversed  = "TRANSACTION_ALREADY_REVERSED"
	CodeTenantRequired       = "TENANT_REQUIRED"
)

// DomainError represents a domain-level error.
// Details carries the offending entity ids so callers can render an actionable message.
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors.Is works against the sentinels
// even when the returned error carries details.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with an extra detail attached
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput         = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict  = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidTransition    = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrInvalidAmount        = NewDomainError(CodeInvalidAmount, "Amount must be positive")
	ErrEmptyCart            = NewDomainError(CodeEmptyCart, "Cart has no items")
	ErrInsufficientStock    = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInsufficientPayment  = NewDomainError(CodeInsufficientPayment, "Tendered amount does not cover the sale total")
	ErrUnknownStockUnit     = NewDomainError(CodeUnknownStockUnit, "Stock unit does not exist")
	ErrStockUnitInUse       = NewDomainError(CodeStockUnitInUse, "Stock unit still holds quantity or is referenced by an open purchase order")
	ErrNoOpenSession        = NewDomainError(CodeNoOpenSession, "An open cash session is required to finalize sales")
	ErrSessionAlreadyOpen   = NewDomainError(CodeSessionAlreadyOpen, "A cash session is already open")
	ErrCreditLimitExceeded  = NewDomainError(CodeCreditLimitExceeded, "Customer credit limit exceeded")
	ErrCustomerRequired     = NewDomainError(CodeCustomerRequired, "Credit sales require a customer")
	ErrOverSettlement       = NewDomainError(CodeOverSettlement, "Payment exceeds the outstanding amount")
	ErrEntryAlreadySettled  = NewDomainError(CodeEntryAlreadySettled, "Ledger entry already has settlements")
	ErrEntryCancelled       = NewDomainError(CodeEntryCancelled, "Ledger entry is cancelled")
	ErrAlreadyReceived      = NewDomainError(CodeAlreadyReceived, "Purchase order was already received")
	ErrSaleAlreadyCancelled = NewDomainError(CodeSaleAlreadyCancelled, "Sale is already cancelled")
	ErrTransactionReversed  = NewDomainError(CodeTransactionReversed, "Transaction was already reversed")
)

// NewInsufficientStockError names the stock unit that could not cover the request
func NewInsufficientStockError(stockUnitID fmt.Stringer, requested, available int) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for unit %s: requested %d, available %d", stockUnitID, requested, available),
		Details: map[string]any{
			"stock_unit_id": stockUnitID.String(),
			"requested":     requested,
			"available":     available,
		},
	}
}

// NewNotFoundError names the missing resource
func NewNotFoundError(resource string, id fmt.Stringer) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Details: map[string]any{"resource": resource, "id": id.String()},
	}
}

// NewValidationError creates a validation error with the given message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewTransitionError describes a rejected state transition
func NewTransitionError(resource, from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Cannot transition %s from %s to %s", resource, from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}
