package engine

import (
	"fmt"
	"sort"
	"strings"

	"brewtab/internal/domain"
)

// NormalizeAddons merges duplicate add-on ids, drops non-positive counts,
// and sorts by id. Two selections that differ only in entry order or
// duplication collapse to the same normal form.
func NormalizeAddons(addons []domain.AddonSelection) []domain.AddonSelection {
	if len(addons) == 0 {
		return nil
	}
	counts := make(map[string]int, len(addons))
	for _, sel := range addons {
		if sel.AddonID == "" || sel.Qty <= 0 {
			continue
		}
		counts[sel.AddonID] += sel.Qty
	}
	if len(counts) == 0 {
		return nil
	}
	out := make([]domain.AddonSelection, 0, len(counts))
	for id, qty := range counts {
		out = append(out, domain.AddonSelection{AddonID: id, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddonID < out[j].AddonID })
	return out
}

// LineKey is the merge identity of a line: product, size, style, and the
// normalized add-on multiset. Lines with equal keys are the same sellable
// thing and collapse into one line with a summed quantity.
func LineKey(productID string, size domain.CupSize, subcategory string, addons []domain.AddonSelection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%s", productID, size, subcategory)
	for _, sel := range NormalizeAddons(addons) {
		fmt.Fprintf(&b, "|%s:%d", sel.AddonID, sel.Qty)
	}
	return b.String()
}

func lineKeyOf(line domain.OrderLine) string {
	return LineKey(line.ProductID, line.Size, line.Subcategory, line.Addons)
}
