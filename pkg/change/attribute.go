package change

// Attribute identifies a tracked listing attribute.
type Attribute string

const (
	AttributeInventory Attribute = "inventory"
	AttributePrice     Attribute = "price"
)

// Valid reports whether a is a tracked attribute.
func (a Attribute) Valid() bool {
	switch a {
	case AttributeInventory, AttributePrice:
		return true
	}
	return false
}

func (a Attribute) String() string {
	return string(a)
}
