package engine

import (
	"time"

	"brewtab/internal/catalog"
	"brewtab/internal/domain"
)

// Payment captures the tender offered at checkout.
type Payment struct {
	Mode              string
	CashReceivedCents int64
	ReferenceNumber   string
}

const gcashReferenceLength = 13

// ValidatePayment checks the tender against the order total and returns the
// change due. Cash must be a positive amount covering the total; GCash
// requires a reference of exactly thirteen digits and never produces change.
func ValidatePayment(payment Payment, totalCents int64) (int64, error) {
	switch payment.Mode {
	case domain.PaymentCash:
		if payment.CashReceivedCents <= 0 || payment.CashReceivedCents < totalCents {
			return 0, ErrInsufficientCash
		}
		return payment.CashReceivedCents - totalCents, nil
	case domain.PaymentGCash:
		if !validReference(payment.ReferenceNumber) {
			return 0, ErrInvalidReference
		}
		return 0, nil
	default:
		return 0, ErrInvalidPayment
	}
}

func validReference(ref string) bool {
	if len(ref) != gcashReferenceLength {
		return false
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateCart gates checkout: the cart must be non-empty, carry no refresh
// flags, and its aggregated ingredient demand must fit the snapshot stock.
func ValidateCart(snap *catalog.Snapshot, cart *Cart) error {
	if cart.Empty() {
		return ErrEmptyCart
	}
	if cart.Flagged() {
		return ErrFlaggedLines
	}
	return CheckStock(snap, cart.Lines())
}

// Finalize freezes the cart into an immutable order payload. Every name and
// price is resolved by value from the snapshot so the record outlives later
// catalog edits.
func Finalize(snap *catalog.Snapshot, cart *Cart, payment Payment, orderID string, store string, cashier string, at time.Time) (*domain.FinalizedOrder, error) {
	if err := ValidateCart(snap, cart); err != nil {
		return nil, err
	}

	lines := cart.Lines()
	total := Total(lines)

	change, err := ValidatePayment(payment, total)
	if err != nil {
		return nil, err
	}

	finalized := make([]domain.FinalizedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := snap.Product(line.ProductID)
		if !ok {
			return nil, ErrNotFound
		}

		addons := make([]domain.FinalizedAddon, 0, len(line.Addons))
		for _, sel := range line.Addons {
			addon, ok := snap.Product(sel.AddonID)
			if !ok {
				return nil, ErrNotFound
			}
			price, err := AddonPrice(snap, sel.AddonID)
			if err != nil {
				return nil, err
			}
			addons = append(addons, domain.FinalizedAddon{
				AddonID:    sel.AddonID,
				Name:       addon.Name,
				Qty:        sel.Qty,
				PriceCents: price,
			})
		}

		finalized = append(finalized, domain.FinalizedLine{
			ProductID:      line.ProductID,
			ProductName:    product.Name,
			Category:       product.Category,
			Size:           line.Size,
			Subcategory:    line.Subcategory,
			Addons:         addons,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	order := &domain.FinalizedOrder{
		ID:          orderID,
		Store:       store,
		Cashier:     cashier,
		PaymentMode: payment.Mode,
		ChangeCents: change,
		TotalCents:  total,
		CreatedAt:   at.UTC(),
		Lines:       finalized,
	}
	if payment.Mode == domain.PaymentCash {
		order.CashReceivedCents = payment.CashReceivedCents
	} else {
		order.ReferenceNumber = payment.ReferenceNumber
	}
	return order, nil
}
