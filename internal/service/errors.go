package service

import "errors"

// Validation errors. Handlers answer these with 400.
var (
	ErrNameRequired      = errors.New("name is required")
	ErrTitleRequired     = errors.New("title is required")
	ErrVideoURLRequired  = errors.New("video url is required")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidVariants   = errors.New("every variant needs a name, a non-negative price and a non-negative stock")
	ErrUnknownCategory   = errors.New("category does not exist")
	ErrCategorySlugTaken = errors.New("a category with this brand and name already exists")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 1000")
	ErrUnknownVariant    = errors.New("variant does not belong to product")
	ErrEmptyCart         = errors.New("cart has no items")
	ErrInvalidGallery    = errors.New("gallery must be a JSON array of image URLs")
)

// IsValidation reports whether err is a caller mistake rather than a failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNameRequired,
		ErrTitleRequired,
		ErrVideoURLRequired,
		ErrInvalidPrice,
		ErrInvalidVariants,
		ErrUnknownCategory,
		ErrCategorySlugTaken,
		ErrInvalidQuantity,
		ErrUnknownVariant,
		ErrEmptyCart,
		ErrInvalidGallery,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
