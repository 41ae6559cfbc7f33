package recipes

import "errors"

// Sentinel errors the API layer maps onto HTTP statuses.
var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrEmptyTitle      = errors.New("recipe title is required")
	ErrInvalidScale    = errors.New("scale factor must be positive")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD form")
	ErrInvalidRange    = errors.New("range start must not be after range end")
	ErrInvalidMealType = errors.New("meal type must be lunch or dinner")
)
