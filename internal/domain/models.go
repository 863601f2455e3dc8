package domain

import "time"

// Units of measure for ingredient stock. Closed set: recipes are entered in
// the same unit the ingredient is stocked in.
const (
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitMilliliter = "ml"
	UnitLiter      = "l"
	UnitPiece      = "pc"
)

type Ingredient struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	Quantity       float64 `json:"quantity"`
	AlertThreshold float64 `json:"alert_threshold"`
}

// CupSize is the serving size in fluid ounces.
type CupSize int

const (
	Size12oz CupSize = 12
	Size16oz CupSize = 16
	Size20oz CupSize = 20
	Size22oz CupSize = 22
	Size24oz CupSize = 24
)

type SizeVariant struct {
	Size       CupSize `json:"size"`
	PriceCents int64   `json:"price_cents"`
}

// BOMEntry is one ingredient draw of a product recipe, expressed per base
// serving (16oz for sized drinks, one unit for everything else).
type BOMEntry struct {
	IngredientID string  `json:"ingredient_id"`
	PerServing   float64 `json:"per_serving"`
}

// CategoryAddon is the reserved category for add-on products (pearls, nata,
// pudding). Add-ons carry a single size-less price and are never sold alone.
const CategoryAddon = "addon"

type Product struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Sizes    []SizeVariant `json:"sizes"`
	Recipe   []BOMEntry    `json:"recipe"`
	Styles   []string      `json:"styles,omitempty"`
	Active   bool          `json:"active"`
}

type AddonSelection struct {
	AddonID string `json:"addon_id"`
	Qty     int    `json:"qty"`
}

// Line flags set when a snapshot refresh invalidates an existing selection.
// Flagged lines block checkout until the cashier adjusts them.
const (
	LineFlagNoPrice    = "no_price"
	LineFlagShortStock = "short_stock"
)

type OrderLine struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	Size           CupSize          `json:"size"`
	Subcategory    string           `json:"subcategory,omitempty"`
	Addons         []AddonSelection `json:"addons,omitempty"`
	Qty            int              `json:"qty"`
	UnitPriceCents int64            `json:"unit_price_cents"`
	Flag           string           `json:"flag,omitempty"`
}

type CartView struct {
	TerminalID string      `json:"terminal_id"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	Flagged    bool        `json:"flagged"`
	Version    string      `json:"snapshot_version"`
}

// Payment modes accepted at checkout.
const (
	PaymentCash  = "cash"
	PaymentGCash = "gcash"
)

type AddLineRequest struct {
	TerminalID string  `json:"terminal_id"`
	ProductID  string  `json:"product_id"`
	Size       CupSize `json:"size"`
}

type ChangeQuantityRequest struct {
	TerminalID string `json:"terminal_id"`
	LineID     string `json:"line_id"`
	Delta      int    `json:"delta"`
}

type RemoveLineRequest struct {
	TerminalID string `json:"terminal_id"`
	LineID     string `json:"line_id"`
}

type SetAddonsRequest struct {
	TerminalID string           `json:"terminal_id"`
	LineID     string           `json:"line_id"`
	Addons     []AddonSelection `json:"addons"`
}

type AddonDeltaRequest struct {
	TerminalID string `json:"terminal_id"`
	LineID     string `json:"line_id"`
	AddonID    string `json:"addon_id"`
}

type ChangeSizeRequest struct {
	TerminalID string  `json:"terminal_id"`
	LineID     string  `json:"line_id"`
	Size       CupSize `json:"size"`
}

type ChangeStyleRequest struct {
	TerminalID  string `json:"terminal_id"`
	LineID      string `json:"line_id"`
	Subcategory string `json:"subcategory"`
}

type CheckoutRequest struct {
	TerminalID        string `json:"terminal_id"`
	PaymentMode       string `json:"payment_mode"`
	CashReceivedCents int64  `json:"cash_received_cents,omitempty"`
	ReferenceNumber   string `json:"reference_number,omitempty"`
}

type CheckoutResponse struct {
	OrderID           string `json:"order_id"`
	TotalCents        int64  `json:"total_cents"`
	CashReceivedCents int64  `json:"cash_received_cents"`
	ChangeCents       int64  `json:"change_cents"`
	PaymentMode       string `json:"payment_mode"`
	ItemCount         int    `json:"item_count"`
	CreatedAt         string `json:"created_at"`
}

// FinalizedAddon is an add-on resolved by value at checkout time.
type FinalizedAddon struct {
	AddonID    string `json:"addon_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

// FinalizedLine is an order line resolved by value at checkout time. It must
// never reference live catalog objects: order history survives later product
// edits and deletions.
type FinalizedLine struct {
	ProductID      string           `json:"product_id"`
	ProductName    string           `json:"product_name"`
	Category       string           `json:"category"`
	Size           CupSize          `json:"size"`
	Subcategory    string           `json:"subcategory,omitempty"`
	Addons         []FinalizedAddon `json:"addons,omitempty"`
	Qty            int              `json:"qty"`
	UnitPriceCents int64            `json:"unit_price_cents"`
}

// FinalizedOrder is the immutable payload handed to the external order
// submission service.
type FinalizedOrder struct {
	ID                string          `json:"id"`
	Store             string          `json:"store"`
	Cashier           string          `json:"cashier"`
	PaymentMode       string          `json:"payment_mode"`
	CashReceivedCents int64           `json:"cash_received_cents"`
	ChangeCents       int64           `json:"change_cents"`
	ReferenceNumber   string          `json:"reference_number,omitempty"`
	TotalCents        int64           `json:"total_cents"`
	CreatedAt         time.Time       `json:"created_at"`
	Lines             []FinalizedLine `json:"lines"`
}

// Catalog listing views returned to the POS screen, with availability
// computed against the current snapshot.
type SizeListing struct {
	Size        CupSize `json:"size"`
	PriceCents  int64   `json:"price_cents"`
	MaxSellable int     `json:"max_sellable"`
}

type ProductListing struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Styles   []string      `json:"styles,omitempty"`
	Sizes    []SizeListing `json:"sizes"`
}

type AddonListing struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	MaxSellable int    `json:"max_sellable"`
}

type CatalogResponse struct {
	Version   string           `json:"version"`
	FetchedAt string           `json:"fetched_at"`
	Products  []ProductListing `json:"products"`
	Addons    []AddonListing   `json:"addons"`
	LowStock  []Ingredient     `json:"low_stock,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
