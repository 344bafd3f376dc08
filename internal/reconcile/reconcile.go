// Package reconcile computes the delta between the last variant lines
// pushed to the platform and the current cart. The sync agent uses it to
// skip pushes that would be byte-for-byte no-ops, and to log what a push
// actually changed.
package reconcile

import "deliwer-commerce/internal/model"

// Diff describes how the current cart differs from the last pushed state.
type Diff struct {
	ToAdd    []model.VariantLine // variants present now but absent from the last push
	ToRemove []string            // variant IDs pushed before but gone now
	ToUpdate []QuantityChange    // variants present in both with different quantities
}

// QuantityChange records a quantity move for an already-pushed variant.
type QuantityChange struct {
	VariantID   string
	OldQuantity int
	NewQuantity int
}

// IsEmpty returns true if the current cart matches the last push exactly.
func (d *Diff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffLines computes the delta between two variant-line sets.
// Matching is by variant ID; the cart guarantees at most one line per
// variant on each side.
func DiffLines(last, current []model.VariantLine) *Diff {
	diff := &Diff{}

	lastByVariant := make(map[string]model.VariantLine, len(last))
	for _, line := range last {
		lastByVariant[line.VariantID] = line
	}
	currentByVariant := make(map[string]model.VariantLine, len(current))
	for _, line := range current {
		currentByVariant[line.VariantID] = line
	}

	for id, cur := range currentByVariant {
		prev, pushed := lastByVariant[id]
		if !pushed {
			diff.ToAdd = append(diff.ToAdd, cur)
			continue
		}
		if prev.Quantity != cur.Quantity {
			diff.ToUpdate = append(diff.ToUpdate, QuantityChange{
				VariantID:   id,
				OldQuantity: prev.Quantity,
				NewQuantity: cur.Quantity,
			})
		}
	}

	for id := range lastByVariant {
		if _, ok := currentByVariant[id]; !ok {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}

	return diff
}
