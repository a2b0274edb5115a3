package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/queue"
)

// Payload is the frozen snapshot a job is rendered from.
type Payload struct {
	Listing    change.Listing
	Change     change.Category
	OccurredAt time.Time
}

type payloadJSON struct {
	Listing    change.Listing  `json:"listing"`
	Change     json.RawMessage `json:"change"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (p Payload) MarshalJSON() ([]byte, error) {
	c, err := change.MarshalCategory(p.Change)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payloadJSON{Listing: p.Listing, Change: c, OccurredAt: p.OccurredAt})
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	var raw payloadJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c, err := change.UnmarshalCategory(raw.Change)
	if err != nil {
		return err
	}
	p.Listing = raw.Listing
	p.Change = c
	p.OccurredAt = raw.OccurredAt
	return nil
}

// DecodePayload reads the payload of job.
func DecodePayload(job *queue.Job) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: job %s: %w", ErrInvalidPayload, job.ID, err)
	}
	return p, nil
}

// KindOf returns the job kind carrying category.
func KindOf(c change.Category) queue.Kind {
	switch c.(type) {
	case change.InventoryChange:
		return queue.KindInventoryChange
	case change.PriceChange:
		return queue.KindPriceChange
	}
	return ""
}
