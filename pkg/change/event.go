package change

import (
	"fmt"
	"time"
)

// Listing is the producer-side snapshot of a listing taken at detection time.
// It is frozen into every notification payload and never re-fetched.
type Listing struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	SellerName     string            `json:"seller_name,omitempty"`
	URL            string            `json:"url,omitempty"`
	UnitPrice      float64           `json:"unit_price"`
	UnitsAvailable float64           `json:"units_available"`
	Details        map[string]string `json:"details,omitempty"` // breed, EPD scores, etc.
}

// Event is one observed mutation of a tracked attribute.
type Event struct {
	ListingID  string    `json:"listing_id"`
	Attribute  Attribute `json:"attribute"`
	OldValue   *float64  `json:"old_value"`
	NewValue   float64   `json:"new_value"`
	OccurredAt time.Time `json:"occurred_at"`
	Listing    Listing   `json:"listing"`
}

// NewEvent builds an event for an update of an existing listing.
func NewEvent(listing Listing, attr Attribute, oldValue, newValue float64, occurredAt time.Time) Event {
	return Event{
		ListingID:  listing.ID,
		Attribute:  attr,
		OldValue:   &oldValue,
		NewValue:   newValue,
		OccurredAt: occurredAt,
		Listing:    listing,
	}
}

// Validate rejects events that must not enter the pipeline.
func (e Event) Validate() error {
	switch {
	case e.ListingID == "":
		return fmt.Errorf("%w: listing id is required", ErrInvalidEvent)
	case !e.Attribute.Valid():
		return fmt.Errorf("%w: unknown attribute %q", ErrInvalidEvent, e.Attribute)
	case e.OldValue == nil:
		return fmt.Errorf("%w: old value is required, newly created listings are not tracked", ErrInvalidEvent)
	case *e.OldValue == e.NewValue:
		return fmt.Errorf("%w: %s did not change", ErrInvalidEvent, e.Attribute)
	case e.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}
	return nil
}

// Classify classifies a validated event.
func (e Event) Classify() Category {
	var oldValue float64
	if e.OldValue != nil {
		oldValue = *e.OldValue
	}
	return Classify(e.Attribute, oldValue, e.NewValue)
}
