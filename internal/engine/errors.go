// Package engine implements order composition: recipe-gated availability,
// deduplicated cart lines, pricing, and checkout finalization. Everything
// here is computed against one catalog snapshot at a time.
package engine

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoPrice           = errors.New("no price for size")
	ErrNotAddon          = errors.New("product is not an add-on")
	ErrAddonOnly         = errors.New("add-ons cannot be ordered alone")
	ErrInvalidStyle      = errors.New("style not offered for product")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrFlaggedLines      = errors.New("cart has flagged lines")
	ErrInsufficientStock = errors.New("insufficient ingredient stock")
	ErrInsufficientCash  = errors.New("cash received below total")
	ErrInvalidReference  = errors.New("invalid payment reference")
	ErrInvalidPayment    = errors.New("unsupported payment mode")
)
