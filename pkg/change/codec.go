package change

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalCategory encodes c with its discriminator.
func MarshalCategory(c Category) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil category", ErrUnknownCategory)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s category: %w", c.Kind(), err)
	}
	return json.Marshal(envelope{Kind: c.Kind(), Data: data})
}

// UnmarshalCategory decodes an envelope produced by MarshalCategory.
func UnmarshalCategory(b []byte) (Category, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("failed to decode category envelope: %w", err)
	}

	switch env.Kind {
	case string(BecameAvailable), string(SoldOut), string(RunningLow), string(Restocked), string(InventoryUpdated):
		var c InventoryChange
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode inventory change: %w", err)
		}
		c.Status = InventoryStatus(env.Kind)
		return c, nil
	case PriceChange{}.Kind():
		var c PriceChange
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode price change: %w", err)
		}
		return c, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, env.Kind)
}
