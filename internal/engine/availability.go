package engine

import (
	"math"

	"brewtab/internal/catalog"
	"brewtab/internal/domain"
)

// Unlimited is the availability of a product with no recipe: nothing gates
// it, so any quantity can be sold.
const Unlimited = math.MaxInt32

// SizeMultiplier scales per-serving ingredient draw from the 16oz base
// recipe. Larger cups consume proportionally more, smaller ones less.
func SizeMultiplier(size domain.CupSize) float64 {
	switch size {
	case domain.Size22oz:
		return 1.375
	case domain.Size12oz:
		return 0.75
	default:
		return 1.0
	}
}

// MaxSellable returns how many cups of the product at the given size the
// current stock supports: the minimum over recipe entries of
// floor(onHand / (perServing * multiplier)). A missing ingredient yields 0.
func MaxSellable(snap *catalog.Snapshot, productID string, size domain.CupSize) int {
	product, ok := snap.Product(productID)
	if !ok {
		return 0
	}
	return maxServings(snap, product.Recipe, SizeMultiplier(size))
}

// AddonAvailable returns how many servings of the add-on the stock supports.
// Add-on draw is fixed per scoop regardless of the cup it lands in.
func AddonAvailable(snap *catalog.Snapshot, addonID string) int {
	addon, ok := snap.Product(addonID)
	if !ok || addon.Category != domain.CategoryAddon {
		return 0
	}
	return maxServings(snap, addon.Recipe, 1.0)
}

func maxServings(snap *catalog.Snapshot, recipe []domain.BOMEntry, multiplier float64) int {
	if len(recipe) == 0 {
		return Unlimited
	}

	limit := Unlimited
	for _, entry := range recipe {
		required := entry.PerServing * multiplier
		if required <= 0 {
			continue
		}
		ing, ok := snap.Ingredient(entry.IngredientID)
		if !ok || ing.Quantity <= 0 {
			return 0
		}
		servings := int(math.Floor(ing.Quantity / required))
		if servings < limit {
			limit = servings
		}
	}
	return limit
}

// Demand aggregates the ingredient draw of a whole cart, drinks and add-ons
// together. Lines sharing an ingredient compete for the same stock, so
// availability at checkout is judged on the sum, not per line.
func Demand(snap *catalog.Snapshot, lines []domain.OrderLine) map[string]float64 {
	demand := make(map[string]float64)
	for _, line := range lines {
		product, ok := snap.Product(line.ProductID)
		if !ok {
			continue
		}
		mult := SizeMultiplier(line.Size)
		for _, entry := range product.Recipe {
			demand[entry.IngredientID] += entry.PerServing * mult * float64(line.Qty)
		}
		for _, sel := range line.Addons {
			addon, ok := snap.Product(sel.AddonID)
			if !ok {
				continue
			}
			for _, entry := range addon.Recipe {
				demand[entry.IngredientID] += entry.PerServing * float64(sel.Qty) * float64(line.Qty)
			}
		}
	}
	return demand
}

// CheckStock verifies the aggregated cart demand fits within snapshot stock.
func CheckStock(snap *catalog.Snapshot, lines []domain.OrderLine) error {
	for ingredientID, required := range Demand(snap, lines) {
		ing, ok := snap.Ingredient(ingredientID)
		if !ok || ing.Quantity < required {
			return ErrInsufficientStock
		}
	}
	return nil
}
