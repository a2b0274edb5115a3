package change

// Inventory thresholds used by Classify.
const (
	RunningLowThreshold = 5
	RestockThreshold    = 10
)

// InventoryStatus is the semantic outcome of an inventory change.
type InventoryStatus string

const (
	BecameAvailable  InventoryStatus = "became_available"
	SoldOut          InventoryStatus = "sold_out"
	RunningLow       InventoryStatus = "running_low"
	Restocked        InventoryStatus = "restocked"
	InventoryUpdated InventoryStatus = "inventory_updated"
)

// Category is the classification result. The set of implementations is closed:
// InventoryChange and PriceChange.
type Category interface {
	Attribute() Attribute
	// Kind is the stable discriminator used in serialized payloads and template lookups.
	Kind() string
	sealed()
}

// InventoryChange is the category of an inventory count change.
type InventoryChange struct {
	Status   InventoryStatus `json:"status"`
	OldCount float64         `json:"old_count"`
	NewCount float64         `json:"new_count"`
}

func (InventoryChange) Attribute() Attribute { return AttributeInventory }
func (c InventoryChange) Kind() string       { return string(c.Status) }
func (InventoryChange) sealed()              {}

// Delta returns the signed change in units.
func (c InventoryChange) Delta() float64 {
	return c.NewCount - c.OldCount
}

// PriceChange is the category of a unit price change.
// PercentChange is nil when the old price was zero.
type PriceChange struct {
	OldPrice      float64  `json:"old_price"`
	NewPrice      float64  `json:"new_price"`
	Difference    float64  `json:"difference"`
	PercentChange *float64 `json:"percent_change,omitempty"`
	IsDecrease    bool     `json:"is_decrease"`
}

func (PriceChange) Attribute() Attribute { return AttributePrice }
func (PriceChange) Kind() string         { return "price_changed" }
func (PriceChange) sealed()              {}

// Classify maps an (old, new) attribute pair onto its category.
// It never fails: an unknown attribute is treated as an inventory change.
func Classify(attr Attribute, oldValue, newValue float64) Category {
	if attr == AttributePrice {
		return classifyPrice(oldValue, newValue)
	}
	return classifyInventory(oldValue, newValue)
}

// Rule order matters: 0 -> 3 is BecameAvailable, not RunningLow.
func classifyInventory(oldCount, newCount float64) InventoryChange {
	c := InventoryChange{OldCount: oldCount, NewCount: newCount}

	switch {
	case oldCount == 0 && newCount > 0:
		c.Status = BecameAvailable
	case oldCount > 0 && newCount == 0:
		c.Status = SoldOut
	case newCount > 0 && newCount <= RunningLowThreshold:
		c.Status = RunningLow
	case newCount-oldCount >= RestockThreshold:
		c.Status = Restocked
	default:
		c.Status = InventoryUpdated
	}

	return c
}

func classifyPrice(oldPrice, newPrice float64) PriceChange {
	diff := newPrice - oldPrice
	c := PriceChange{
		OldPrice:   oldPrice,
		NewPrice:   newPrice,
		Difference: diff,
		IsDecrease: diff < 0,
	}
	if oldPrice != 0 {
		pct := diff / oldPrice * 100
		c.PercentChange = &pct
	}
	return c
}
