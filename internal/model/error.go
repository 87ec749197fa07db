package model

import "fmt"

// Standard error codes.
const (
	ErrCodeInvalidPromoCode   = "INVALID_PROMO_CODE"
	ErrCodeInvalidPromoLength = "INVALID_PROMO_LENGTH"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeEmptyCart          = "EMPTY_CART"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidPromoCode   = NewDomainError(ErrCodeInvalidPromoCode, "Promo code is not valid")
	ErrInvalidPromoLength = NewDomainError(ErrCodeInvalidPromoLength, "Promo code must be between 8 and 10 characters")
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Not enough stock for one or more products")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
)

// ErrorKind classifies failures caught at the page boundary.
type ErrorKind int

const (
	// FetchFailure means a data-retrieval collaborator failed.
	FetchFailure ErrorKind = iota + 1
	// MutationFailure means a create, update, delete or checkout failed.
	MutationFailure
)

func (k ErrorKind) String() string {
	switch k {
	case FetchFailure:
		return "fetch"
	case MutationFailure:
		return "mutation"
	default:
		return "unknown"
	}
}

// PageError is the user-visible form of a collaborator failure.
type PageError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// NewFetchFailure wraps err as a FetchFailure shown with message.
func NewFetchFailure(message string, err error) *PageError {
	return &PageError{Kind: FetchFailure, Message: message, Err: err}
}

// NewMutationFailure wraps err as a MutationFailure shown with message.
func NewMutationFailure(message string, err error) *PageError {
	return &PageError{Kind: MutationFailure, Message: message, Err: err}
}
