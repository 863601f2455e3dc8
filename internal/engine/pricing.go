package engine

import (
	"brewtab/internal/catalog"
	"brewtab/internal/domain"
)

// SizePrice returns the price of the product at the given size, or ErrNoPrice
// when the product carries no variant for that size.
func SizePrice(snap *catalog.Snapshot, productID string, size domain.CupSize) (int64, error) {
	product, ok := snap.Product(productID)
	if !ok {
		return 0, ErrNotFound
	}
	for _, variant := range product.Sizes {
		if variant.Size == size {
			return variant.PriceCents, nil
		}
	}
	return 0, ErrNoPrice
}

// AddonPrice returns the single price of an add-on product.
func AddonPrice(snap *catalog.Snapshot, addonID string) (int64, error) {
	addon, ok := snap.Product(addonID)
	if !ok {
		return 0, ErrNotFound
	}
	if addon.Category != domain.CategoryAddon {
		return 0, ErrNotAddon
	}
	if len(addon.Sizes) == 0 {
		return 0, ErrNoPrice
	}
	return addon.Sizes[0].PriceCents, nil
}

// UnitPrice computes the price of one cup on the line: the size variant price
// plus each selected add-on times its count.
func UnitPrice(snap *catalog.Snapshot, line domain.OrderLine) (int64, error) {
	price, err := SizePrice(snap, line.ProductID, line.Size)
	if err != nil {
		return 0, err
	}
	for _, sel := range line.Addons {
		addonPrice, err := AddonPrice(snap, sel.AddonID)
		if err != nil {
			return 0, err
		}
		price += addonPrice * int64(sel.Qty)
	}
	return price, nil
}

// Total sums line unit prices times quantities.
func Total(lines []domain.OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.UnitPriceCents * int64(line.Qty)
	}
	return total
}

// ItemCount sums line quantities.
func ItemCount(lines []domain.OrderLine) int {
	count := 0
	for _, line := range lines {
		count += line.Qty
	}
	return count
}
