package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevSender implements Sender for local development.
// It renders each message and writes it as HTML plus JSON metadata to a directory.
type DevSender struct {
	dir     string
	catalog *Catalog
	now     func() time.Time
}

// NewDevSender creates a development sender that writes emails to dir.
// The directory is created on first send.
func NewDevSender(dir string, catalog *Catalog) *DevSender {
	return &DevSender{dir: dir, catalog: catalog, now: time.Now}
}

type emailMetadata struct {
	MessageID string         `json:"message_id"`
	Timestamp string         `json:"timestamp"`
	SendTo    string         `json:"send_to"`
	Template  string         `json:"template"`
	Alias     string         `json:"alias"`
	Subject   string         `json:"subject"`
	Tag       string         `json:"tag,omitempty"`
	Data      map[string]any `json:"data"`
}

// Send implements Sender.
func (d *DevSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	tpl, err := d.catalog.Lookup(msg.Template)
	if err != nil {
		return "", err
	}

	subject := tpl.RenderSubject(msg.Data)
	body, err := Render(ctx, NotificationBody(subject, Fields(msg.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: render: %w", ErrFailedToSend, err)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %w", ErrFailedToSend, err)
	}

	now := d.now()
	id := uuid.NewString()
	base := fmt.Sprintf("%s_%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(msg.Template), id[:8])

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write HTML file: %w", ErrFailedToSend, err)
	}

	meta, err := json.MarshalIndent(emailMetadata{
		MessageID: id,
		Timestamp: now.Format(time.RFC3339),
		SendTo:    msg.To,
		Template:  msg.Template,
		Alias:     tpl.Alias,
		Subject:   subject,
		Tag:       msg.Tag,
		Data:      msg.Data,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal metadata: %w", ErrFailedToSend, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write JSON file: %w", ErrFailedToSend, err)
	}

	return id, nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename makes s safe to use in a file name.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
