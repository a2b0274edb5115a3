package email

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Template describes how a message kind is rendered.
type Template struct {
	Alias   string `yaml:"alias"`   // Postmark template alias
	Subject string `yaml:"subject"` // Subject with {{key}} placeholders filled from Message.Data
}

// Catalog maps template kinds to their provider templates.
type Catalog struct {
	Templates map[string]Template `yaml:"templates"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and checks every entry has an alias.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if len(c.Templates) == 0 {
		return nil, fmt.Errorf("%w: no templates", ErrInvalidCatalog)
	}
	for kind, tpl := range c.Templates {
		if tpl.Alias == "" {
			return nil, fmt.Errorf("%w: template %q has no alias", ErrInvalidCatalog, kind)
		}
	}
	return &c, nil
}

// Lookup returns the template registered for kind.
func (c *Catalog) Lookup(kind string) (Template, error) {
	tpl, ok := c.Templates[kind]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	return tpl, nil
}

// Kinds returns the registered template kinds in sorted order.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.Templates))
	for k := range c.Templates {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// RenderSubject fills {{key}} placeholders from data. Unknown keys render empty.
func (t Template) RenderSubject(data map[string]any) string {
	out := placeholderRegex.ReplaceAllStringFunc(t.Subject, func(m string) string {
		key := placeholderRegex.FindStringSubmatch(m)[1]
		if v, ok := data[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	})
	return strings.TrimSpace(out)
}
