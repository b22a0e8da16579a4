package model

import "errors"

// Business-rule errors. Storage failures are wrapped with context at the
// store layer; callers match these with errors.Is.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionClosed   = errors.New("transaction already closed")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
)
