package domain

import "errors"

var (
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number")
	ErrInvalidExpiryDate = errors.New("expiry date must be formatted as YYYY-MM-DD")
	ErrEmptyPatch        = errors.New("at least one of quantity or expiry_date is required")
)
