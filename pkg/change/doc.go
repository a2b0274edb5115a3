// Package change models observed mutations of tracked listing attributes and
// classifies them into semantic categories.
//
// A write path that updates a listing's inventory count or unit price emits one
// Event per changed attribute. Classify maps the (old, new) pair onto a
// Category, a sealed sum type with one variant per attribute:
//
//   - InventoryChange carries an InventoryStatus resolved by first-matching rule
//     (became available, sold out, running low, restocked, generic update).
//   - PriceChange carries the signed difference and percentage, never bucketed.
//
// Classify is total, pure and deterministic. Malformed input is a caller
// contract violation, which is why Event.Validate exists and is enforced at the
// orchestration boundary instead of inside the classifier.
//
// # Usage
//
//	cat := change.Classify(change.AttributeInventory, 0, 15)
//	switch c := cat.(type) {
//	case change.InventoryChange:
//		fmt.Println(c.Status) // became_available
//	case change.PriceChange:
//		fmt.Println(c.Difference)
//	}
//
// # Serialization
//
// Categories are persisted inside job payloads. MarshalCategory and
// UnmarshalCategory use a {"kind": ..., "data": ...} envelope so decoding always
// yields a concrete variant and unknown kinds fail with ErrUnknownCategory.
package change
