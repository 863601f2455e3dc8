// Package catalog holds the immutable point-in-time view of products and
// ingredient stock that the composition engine prices and gates against.
package catalog

import (
	"context"
	"time"

	"brewtab/internal/domain"
)

// Source produces catalog snapshots. Implementations must return data that
// is safe to retain: the snapshot is shared read-only across terminals.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Snapshot is a versioned, immutable view of the catalog. All availability
// and pricing decisions during composition read from one snapshot; a refresh
// swaps the whole snapshot rather than mutating it.
type Snapshot struct {
	Version     string
	FetchedAt   time.Time
	Products    map[string]domain.Product
	Ingredients map[string]domain.Ingredient

	addonIDs []string
}

// New builds a snapshot from fetched rows, indexing by id and collecting the
// add-on products. Inactive products are dropped at the door.
func New(version string, fetchedAt time.Time, products []domain.Product, ingredients []domain.Ingredient) *Snapshot {
	s := &Snapshot{
		Version:     version,
		FetchedAt:   fetchedAt,
		Products:    make(map[string]domain.Product, len(products)),
		Ingredients: make(map[string]domain.Ingredient, len(ingredients)),
	}
	for _, p := range products {
		if !p.Active {
			continue
		}
		s.Products[p.ID] = p
		if p.Category == domain.CategoryAddon {
			s.addonIDs = append(s.addonIDs, p.ID)
		}
	}
	for _, ing := range ingredients {
		s.Ingredients[ing.ID] = ing
	}
	return s
}

// Product returns the active product with the given id.
func (s *Snapshot) Product(id string) (domain.Product, bool) {
	p, ok := s.Products[id]
	return p, ok
}

// Ingredient returns the stocked ingredient with the given id.
func (s *Snapshot) Ingredient(id string) (domain.Ingredient, bool) {
	ing, ok := s.Ingredients[id]
	return ing, ok
}

// AddonIDs returns the ids of add-on products in this snapshot.
func (s *Snapshot) AddonIDs() []string {
	out := make([]string, len(s.addonIDs))
	copy(out, s.addonIDs)
	return out
}

// LowStock returns ingredients at or below their alert threshold.
func (s *Snapshot) LowStock() []domain.Ingredient {
	var out []domain.Ingredient
	for _, ing := range s.Ingredients {
		if ing.AlertThreshold > 0 && ing.Quantity <= ing.AlertThreshold {
			out = append(out, ing)
		}
	}
	return out
}
