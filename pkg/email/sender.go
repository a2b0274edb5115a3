package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Sender delivers a notification email.
type Sender interface {
	// Send delivers msg and returns the provider message ID.
	Send(ctx context.Context, msg Message) (string, error)
}

// Message is one templated email.
type Message struct {
	Template string         `json:"template"`      // Catalog key, e.g. "inventory_change"
	To       string         `json:"to"`            // Recipient address
	Data     map[string]any `json:"data"`          // Template model
	Tag      string         `json:"tag,omitempty"` // Optional, for provider analytics
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks that the message can be sent.
func (m Message) Validate() error {
	to := strings.TrimSpace(m.To)
	switch {
	case to == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	case !emailRegex.MatchString(to):
		return fmt.Errorf("%w: recipient must be a valid email address", ErrInvalidMessage)
	case strings.TrimSpace(m.Template) == "":
		return fmt.Errorf("%w: template is required", ErrInvalidMessage)
	}
	return nil
}

// NewSender builds the sender described by cfg: Postmark when a server token
// is configured, otherwise DevSender writing to cfg.DevOutputDir.
func NewSender(cfg Config) (Sender, error) {
	catalog, err := DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = LoadCatalog(cfg.CatalogPath)
	}
	if err != nil {
		return nil, err
	}

	if cfg.UsePostmark() {
		return NewPostmarkSender(cfg, catalog)
	}
	return NewDevSender(cfg.DevOutputDir, catalog), nil
}
