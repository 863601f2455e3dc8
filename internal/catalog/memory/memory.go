// Package memory provides an in-process catalog source seeded with demo
// data. It backs local development and tests when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brewtab/internal/catalog"
	"brewtab/internal/domain"
)

type Source struct {
	mu          sync.RWMutex
	version     uint64
	products    map[string]domain.Product
	ingredients map[string]domain.Ingredient
}

func New() *Source {
	return &Source{
		products:    make(map[string]domain.Product),
		ingredients: make(map[string]domain.Ingredient),
	}
}

// NewSeeded returns a source pre-loaded with a small beverage catalog.
func NewSeeded() *Source {
	s := New()

	ingredients := []domain.Ingredient{
		{ID: "ing-tapioca", Name: "Tapioca Pearls", Unit: domain.UnitGram, Quantity: 4000, AlertThreshold: 500},
		{ID: "ing-milk", Name: "Fresh Milk", Unit: domain.UnitMilliliter, Quantity: 12000, AlertThreshold: 2000},
		{ID: "ing-blacktea", Name: "Black Tea Concentrate", Unit: domain.UnitMilliliter, Quantity: 9000, AlertThreshold: 1500},
		{ID: "ing-greentea", Name: "Green Tea Concentrate", Unit: domain.UnitMilliliter, Quantity: 6000, AlertThreshold: 1500},
		{ID: "ing-sugar", Name: "Sugar Syrup", Unit: domain.UnitMilliliter, Quantity: 5000, AlertThreshold: 800},
		{ID: "ing-espresso", Name: "Espresso Beans", Unit: domain.UnitGram, Quantity: 2500, AlertThreshold: 400},
		{ID: "ing-mango", Name: "Mango Puree", Unit: domain.UnitGram, Quantity: 3000, AlertThreshold: 600},
		{ID: "ing-nata", Name: "Nata de Coco", Unit: domain.UnitGram, Quantity: 2000, AlertThreshold: 400},
		{ID: "ing-pudding", Name: "Egg Pudding", Unit: domain.UnitPiece, Quantity: 60, AlertThreshold: 12},
		{ID: "ing-cup", Name: "Plastic Cup", Unit: domain.UnitPiece, Quantity: 500, AlertThreshold: 80},
	}
	for _, ing := range ingredients {
		s.ingredients[ing.ID] = ing
	}

	products := []domain.Product{
		{
			ID: "prod-classic-mtea", Name: "Classic Milk Tea", Category: "milk_tea", Active: true,
			Sizes: []domain.SizeVariant{
				{Size: domain.Size16oz, PriceCents: 9900},
				{Size: domain.Size22oz, PriceCents: 12900},
			},
			Recipe: []domain.BOMEntry{
				{IngredientID: "ing-blacktea", PerServing: 120},
				{IngredientID: "ing-milk", PerServing: 180},
				{IngredientID: "ing-sugar", PerServing: 30},
				{IngredientID: "ing-cup", PerServing: 1},
			},
		},
		{
			ID: "prod-wintermelon", Name: "Wintermelon Milk Tea", Category: "milk_tea", Active: true,
			Sizes: []domain.SizeVariant{
				{Size: domain.Size16oz, PriceCents: 10900},
				{Size: domain.Size22oz, PriceCents: 13900},
			},
			Recipe: []domain.BOMEntry{
				{IngredientID: "ing-blacktea", PerServing: 100},
				{IngredientID: "ing-milk", PerServing: 200},
				{IngredientID: "ing-sugar", PerServing: 40},
				{IngredientID: "ing-cup", PerServing: 1},
			},
		},
		{
			ID: "prod-mango-ftea", Name: "Mango Fruit Tea", Category: "fruit_tea", Active: true,
			Sizes: []domain.SizeVariant{
				{Size: domain.Size16oz, PriceCents: 11900},
				{Size: domain.Size22oz, PriceCents: 14900},
			},
			Recipe: []domain.BOMEntry{
				{IngredientID: "ing-greentea", PerServing: 150},
				{IngredientID: "ing-mango", PerServing: 80},
				{IngredientID: "ing-sugar", PerServing: 20},
				{IngredientID: "ing-cup", PerServing: 1},
			},
		},
		{
			ID: "prod-latte", Name: "Cafe Latte", Category: "coffee", Active: true,
			Styles: []string{"hot", "iced"},
			Sizes: []domain.SizeVariant{
				{Size: domain.Size12oz, PriceCents: 10900},
				{Size: domain.Size16oz, PriceCents: 12900},
			},
			Recipe: []domain.BOMEntry{
				{IngredientID: "ing-espresso", PerServing: 18},
				{IngredientID: "ing-milk", PerServing: 220},
				{IngredientID: "ing-cup", PerServing: 1},
			},
		},
		{
			ID: "prod-addon-pearls", Name: "Tapioca Pearls", Category: domain.CategoryAddon, Active: true,
			Sizes:  []domain.SizeVariant{{Size: domain.Size16oz, PriceCents: 2000}},
			Recipe: []domain.BOMEntry{{IngredientID: "ing-tapioca", PerServing: 50}},
		},
		{
			ID: "prod-addon-nata", Name: "Nata de Coco", Category: domain.CategoryAddon, Active: true,
			Sizes:  []domain.SizeVariant{{Size: domain.Size16oz, PriceCents: 1500}},
			Recipe: []domain.BOMEntry{{IngredientID: "ing-nata", PerServing: 40}},
		},
		{
			ID: "prod-addon-pudding", Name: "Egg Pudding", Category: domain.CategoryAddon, Active: true,
			Sizes:  []domain.SizeVariant{{Size: domain.Size16oz, PriceCents: 2500}},
			Recipe: []domain.BOMEntry{{IngredientID: "ing-pudding", PerServing: 1}},
		},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	return s
}

func (s *Source) Fetch(ctx context.Context) (*catalog.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, cloneProduct(p))
	}
	ingredients := make([]domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		ingredients = append(ingredients, ing)
	}
	version := fmt.Sprintf("mem-%d", s.version)
	return catalog.New(version, time.Now().UTC(), products, ingredients), nil
}

// PutProduct inserts or replaces a product and bumps the version.
func (s *Source) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(p)
	s.version++
}

// PutIngredient inserts or replaces an ingredient and bumps the version.
func (s *Source) PutIngredient(ing domain.Ingredient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingredients[ing.ID] = ing
	s.version++
}

// SetStock adjusts an ingredient's on-hand quantity, simulating consumption
// recorded by the external inventory system.
func (s *Source) SetStock(ingredientID string, qty float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ing, ok := s.ingredients[ingredientID]
	if !ok {
		return false
	}
	ing.Quantity = qty
	s.ingredients[ingredientID] = ing
	s.version++
	return true
}

// Deactivate hides a product from future snapshots.
func (s *Source) Deactivate(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return false
	}
	p.Active = false
	s.products[productID] = p
	s.version++
	return true
}

func cloneProduct(p domain.Product) domain.Product {
	cp := p
	cp.Sizes = append([]domain.SizeVariant(nil), p.Sizes...)
	cp.Recipe = append([]domain.BOMEntry(nil), p.Recipe...)
	cp.Styles = append([]string(nil), p.Styles...)
	return cp
}
