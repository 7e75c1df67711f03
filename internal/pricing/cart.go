package pricing

// Key identifies a cart line. Two lines for the same product with different
// size or color variants are distinct entries and never merge.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

// Key returns the composite identity of the line.
func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// Add returns a new cart with the line appended, or its quantity merged into an
// existing entry with the same key. The input slice is never mutated.
func Add(lines []Line, l Line) []Line {
	if l.Qty <= 0 {
		l.Qty = 1
	}
	out := make([]Line, 0, len(lines)+1)
	merged := false
	for _, existing := range lines {
		if existing.Key() == l.Key() {
			existing.Qty += l.Qty
			merged = true
		}
		out = append(out, existing)
	}
	if !merged {
		out = append(out, l)
	}
	return out
}

// SetQty returns a new cart with the keyed line's quantity replaced. A quantity
// of zero or less removes the line. Setting an absent key is a no-op, which
// makes repeated decrements idempotent.
func SetQty(lines []Line, key Key, qty int) []Line {
	out := make([]Line, 0, len(lines))
	for _, existing := range lines {
		if existing.Key() == key {
			if qty <= 0 {
				continue
			}
			existing.Qty = qty
		}
		out = append(out, existing)
	}
	return out
}

// Remove returns a new cart without the keyed line.
func Remove(lines []Line, key Key) []Line {
	return SetQty(lines, key, 0)
}
