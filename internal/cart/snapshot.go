package cart

import "github.com/shopspring/decimal"

// taxRate matches the rate the ordering UI displays alongside the cart.
var taxRate = decimal.NewFromFloat(0.08)

// LineItem is a single priced entry of a cart.
type LineItem struct {
	ItemID          int64
	Name            string
	UnitPrice       decimal.Decimal
	Quantity        int
	SelectedOptions []string
}

// Snapshot is an immutable copy of the cart taken at submission time.
// Every line carries quantity >= 1; a fresh snapshot is built per attempt.
type Snapshot struct {
	items []LineItem
}

// BuildSnapshot copies the live cart into a Snapshot, preserving order.
// Entries with quantity <= 0 are dropped even though the cart editor is
// expected to remove them before handoff.
func BuildSnapshot(live []LineItem) Snapshot {
	items := make([]LineItem, 0, len(live))
	for _, it := range live {
		if it.Quantity <= 0 {
			continue
		}
		if len(it.SelectedOptions) > 0 {
			opts := make([]string, len(it.SelectedOptions))
			copy(opts, it.SelectedOptions)
			it.SelectedOptions = opts
		}
		items = append(items, it)
	}
	return Snapshot{items: items}
}

// Empty reports whether the snapshot has no lines.
func (s Snapshot) Empty() bool {
	return len(s.items) == 0
}

// Items returns a copy of the snapshot lines.
func (s Snapshot) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal is the sum of unit price * quantity over all lines.
func (s Snapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Tax applies the display tax rate to the subtotal.
func (s Snapshot) Tax() decimal.Decimal {
	return s.Subtotal().Mul(taxRate)
}

// Total is subtotal plus tax.
func (s Snapshot) Total() decimal.Decimal {
	return s.Subtotal().Add(s.Tax())
}
