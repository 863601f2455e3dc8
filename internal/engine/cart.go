package engine

import (
	"brewtab/internal/catalog"
	"brewtab/internal/domain"
	"brewtab/internal/xid"
)

// Cart is one terminal's in-progress order. Lines are deduplicated by
// LineKey: any edit that lands a line on another line's key merges the two.
type Cart struct {
	lines []domain.OrderLine
}

func NewCart() *Cart {
	return &Cart{}
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []domain.OrderLine {
	out := make([]domain.OrderLine, len(c.lines))
	copy(out, c.lines)
	for i := range out {
		out[i].Addons = append([]domain.AddonSelection(nil), out[i].Addons...)
	}
	return out
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Flagged reports whether any line carries a refresh flag.
func (c *Cart) Flagged() bool {
	for _, line := range c.lines {
		if line.Flag != "" {
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Add puts one cup of the product at the given size into the cart. If an
// identical line already exists the quantity is bumped instead.
func (c *Cart) Add(snap *catalog.Snapshot, productID string, size domain.CupSize) (domain.OrderLine, error) {
	product, ok := snap.Product(productID)
	if !ok {
		return domain.OrderLine{}, ErrNotFound
	}
	if product.Category == domain.CategoryAddon {
		return domain.OrderLine{}, ErrAddonOnly
	}

	price, err := SizePrice(snap, productID, size)
	if err != nil {
		return domain.OrderLine{}, err
	}
	if MaxSellable(snap, productID, size) == 0 {
		return domain.OrderLine{}, ErrInsufficientStock
	}

	subcategory := ""
	if len(product.Styles) > 0 {
		subcategory = product.Styles[0]
	}

	key := LineKey(productID, size, subcategory, nil)
	for i := range c.lines {
		if lineKeyOf(c.lines[i]) == key {
			c.lines[i].Qty++
			c.lines[i].UnitPriceCents = price
			return c.lines[i], nil
		}
	}

	line := domain.OrderLine{
		ID:             xid.New("line"),
		ProductID:      productID,
		Size:           size,
		Subcategory:    subcategory,
		Qty:            1,
		UnitPriceCents: price,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// ChangeQty applies a delta to a line's quantity, clamped at one. Dropping a
// line entirely is an explicit Remove, never a side effect of decrementing.
func (c *Cart) ChangeQty(lineID string, delta int) (domain.OrderLine, error) {
	i, err := c.index(lineID)
	if err != nil {
		return domain.OrderLine{}, err
	}
	qty := c.lines[i].Qty + delta
	if qty < 1 {
		qty = 1
	}
	c.lines[i].Qty = qty
	return c.lines[i], nil
}

func (c *Cart) Remove(lineID string) error {
	i, err := c.index(lineID)
	if err != nil {
		return err
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

// SetAddons replaces a line's add-on selection wholesale.
func (c *Cart) SetAddons(snap *catalog.Snapshot, lineID string, addons []domain.AddonSelection) (domain.OrderLine, error) {
	normalized := NormalizeAddons(addons)
	for _, sel := range normalized {
		if _, err := AddonPrice(snap, sel.AddonID); err != nil {
			return domain.OrderLine{}, err
		}
	}
	return c.rewrite(snap, lineID, func(line *domain.OrderLine) error {
		line.Addons = normalized
		return nil
	})
}

// IncrementAddon adds one scoop of the add-on to the line.
func (c *Cart) IncrementAddon(snap *catalog.Snapshot, lineID string, addonID string) (domain.OrderLine, error) {
	if _, err := AddonPrice(snap, addonID); err != nil {
		return domain.OrderLine{}, err
	}
	return c.rewrite(snap, lineID, func(line *domain.OrderLine) error {
		line.Addons = NormalizeAddons(append(line.Addons, domain.AddonSelection{AddonID: addonID, Qty: 1}))
		return nil
	})
}

// DecrementAddon removes one scoop; at zero the add-on leaves the selection.
func (c *Cart) DecrementAddon(snap *catalog.Snapshot, lineID string, addonID string) (domain.OrderLine, error) {
	return c.rewrite(snap, lineID, func(line *domain.OrderLine) error {
		found := false
		addons := make([]domain.AddonSelection, 0, len(line.Addons))
		for _, sel := range line.Addons {
			if sel.AddonID == addonID {
				found = true
				sel.Qty--
			}
			if sel.Qty > 0 {
				addons = append(addons, sel)
			}
		}
		if !found {
			return ErrNotFound
		}
		line.Addons = NormalizeAddons(addons)
		return nil
	})
}

// ChangeSize moves a line to another cup size. The target size must carry a
// price variant.
func (c *Cart) ChangeSize(snap *catalog.Snapshot, lineID string, size domain.CupSize) (domain.OrderLine, error) {
	return c.rewrite(snap, lineID, func(line *domain.OrderLine) error {
		if _, err := SizePrice(snap, line.ProductID, size); err != nil {
			return err
		}
		line.Size = size
		return nil
	})
}

// ChangeStyle moves a line to another preparation style offered by its
// product.
func (c *Cart) ChangeStyle(snap *catalog.Snapshot, lineID string, subcategory string) (domain.OrderLine, error) {
	return c.rewrite(snap, lineID, func(line *domain.OrderLine) error {
		product, ok := snap.Product(line.ProductID)
		if !ok {
			return ErrNotFound
		}
		if len(product.Styles) == 0 {
			if subcategory != "" {
				return ErrInvalidStyle
			}
			line.Subcategory = ""
			return nil
		}
		for _, style := range product.Styles {
			if style == subcategory {
				line.Subcategory = subcategory
				return nil
			}
		}
		return ErrInvalidStyle
	})
}

// Reprice recomputes unit prices and flags against a snapshot. It runs after
// every refresh: lines whose price disappeared are flagged no_price, lines
// the new stock can no longer cover are flagged short_stock. Flags clear as
// soon as the snapshot satisfies the line again.
func (c *Cart) Reprice(snap *catalog.Snapshot) {
	for i := range c.lines {
		line := &c.lines[i]

		price, err := UnitPrice(snap, *line)
		if err != nil {
			line.Flag = domain.LineFlagNoPrice
			continue
		}
		line.UnitPriceCents = price
		line.Flag = ""
	}

	if err := CheckStock(snap, c.lines); err == nil {
		return
	}

	// Aggregate demand overshoots stock: flag the individual lines that do
	// not fit on their own, or all unflagged lines if each fits alone.
	anyFlagged := false
	for i := range c.lines {
		line := &c.lines[i]
		if line.Flag != "" {
			continue
		}
		if !lineFits(snap, *line) {
			line.Flag = domain.LineFlagShortStock
			anyFlagged = true
		}
	}
	if !anyFlagged {
		for i := range c.lines {
			if c.lines[i].Flag == "" {
				c.lines[i].Flag = domain.LineFlagShortStock
			}
		}
	}
}

func lineFits(snap *catalog.Snapshot, line domain.OrderLine) bool {
	if MaxSellable(snap, line.ProductID, line.Size) < line.Qty {
		return false
	}
	for _, sel := range line.Addons {
		if AddonAvailable(snap, sel.AddonID) < sel.Qty*line.Qty {
			return false
		}
	}
	return true
}

// rewrite applies an edit that may change a line's key, then merges the line
// into an existing one when their keys now collide.
func (c *Cart) rewrite(snap *catalog.Snapshot, lineID string, edit func(*domain.OrderLine) error) (domain.OrderLine, error) {
	i, err := c.index(lineID)
	if err != nil {
		return domain.OrderLine{}, err
	}

	updated := c.lines[i]
	updated.Addons = append([]domain.AddonSelection(nil), updated.Addons...)
	if err := edit(&updated); err != nil {
		return domain.OrderLine{}, err
	}
	for _, sel := range updated.Addons {
		if AddonAvailable(snap, sel.AddonID) < sel.Qty {
			return domain.OrderLine{}, ErrInsufficientStock
		}
	}

	price, err := UnitPrice(snap, updated)
	if err != nil {
		return domain.OrderLine{}, err
	}
	updated.UnitPriceCents = price
	updated.Flag = ""

	key := lineKeyOf(updated)
	for j := range c.lines {
		if j == i || lineKeyOf(c.lines[j]) != key {
			continue
		}
		c.lines[j].Qty += updated.Qty
		c.lines[j].UnitPriceCents = price
		c.lines[j].Flag = ""
		merged := c.lines[j]
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return merged, nil
	}

	c.lines[i] = updated
	return updated, nil
}

func (c *Cart) index(lineID string) (int, error) {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return i, nil
		}
	}
	return 0, ErrNotFound
}
