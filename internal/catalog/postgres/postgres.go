// Package postgres fetches catalog snapshots from the back-office database.
// Access is read-only: products, recipes and stock are owned by the external
// inventory system, this side only snapshots them.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"brewtab/internal/catalog"
	"brewtab/internal/domain"
)

type Source struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Source, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Source{db: db}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Fetch(ctx context.Context) (*catalog.Snapshot, error) {
	version, err := s.fetchVersion(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.fetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.fetchIngredients(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.New(version, time.Now().UTC(), products, ingredients), nil
}

// fetchVersion reads the single-row catalog_meta revision counter bumped by
// the back-office on every catalog or stock write.
func (s *Source) fetchVersion(ctx context.Context) (string, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx, `
		SELECT revision
		FROM catalog_meta
		LIMIT 1
	`).Scan(&revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "pg-0", nil
		}
		return "", err
	}
	return fmt.Sprintf("pg-%d", revision), nil
}

func (s *Source) fetchProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, COALESCE(styles, ''), active
		FROM products
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	index := make(map[string]int, 64)
	for rows.Next() {
		var p domain.Product
		var styles string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &styles, &p.Active); err != nil {
			return nil, err
		}
		p.Styles = splitStyles(styles)
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sizeRows, err := s.db.QueryContext(ctx, `
		SELECT product_id, size_oz, price_cents
		FROM product_sizes
		ORDER BY product_id, size_oz
	`)
	if err != nil {
		return nil, err
	}
	defer sizeRows.Close()

	for sizeRows.Next() {
		var productID string
		var variant domain.SizeVariant
		if err := sizeRows.Scan(&productID, &variant.Size, &variant.PriceCents); err != nil {
			return nil, err
		}
		if i, ok := index[productID]; ok {
			products[i].Sizes = append(products[i].Sizes, variant)
		}
	}
	if err := sizeRows.Err(); err != nil {
		return nil, err
	}

	recipeRows, err := s.db.QueryContext(ctx, `
		SELECT product_id, ingredient_id, per_serving
		FROM product_recipes
		ORDER BY product_id, ingredient_id
	`)
	if err != nil {
		return nil, err
	}
	defer recipeRows.Close()

	for recipeRows.Next() {
		var productID string
		var entry domain.BOMEntry
		if err := recipeRows.Scan(&productID, &entry.IngredientID, &entry.PerServing); err != nil {
			return nil, err
		}
		if i, ok := index[productID]; ok {
			products[i].Recipe = append(products[i].Recipe, entry)
		}
	}
	if err := recipeRows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Source) fetchIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, quantity, alert_threshold
		FROM ingredients
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]domain.Ingredient, 0, 64)
	for rows.Next() {
		var ing domain.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.Quantity, &ing.AlertThreshold); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ingredients, nil
}

func splitStyles(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
