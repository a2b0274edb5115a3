package email_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/email"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := email.DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"inventory_change", "price_change"}, catalog.Kinds())

	tpl, err := catalog.Lookup("price_change")
	require.NoError(t, err)
	assert.Equal(t, "listing-price-change", tpl.Alias)

	_, err = catalog.Lookup("newsletter")
	assert.ErrorIs(t, err, email.ErrUnknownTemplate)
}

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{name: "valid", yaml: "templates:\n  a:\n    alias: x\n    subject: hi\n"},
		{name: "malformed", yaml: "templates: [", wantErr: true},
		{name: "empty", yaml: "templates: {}\n", wantErr: true},
		{name: "missing alias", yaml: "templates:\n  a:\n    subject: hi\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := email.ParseCatalog([]byte(tt.yaml))
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidCatalog)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  inventory_change:\n    alias: custom\n"), 0o644))

	catalog, err := email.LoadCatalog(path)
	require.NoError(t, err)
	tpl, err := catalog.Lookup("inventory_change")
	require.NoError(t, err)
	assert.Equal(t, "custom", tpl.Alias)

	_, err = email.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, email.ErrInvalidCatalog)
}

func TestTemplate_RenderSubject(t *testing.T) {
	t.Parallel()

	tpl := email.Template{Subject: "Price update: {{listing_title}} by {{ seller }}{{missing}}"}
	got := tpl.RenderSubject(map[string]any{"listing_title": "Angus straws", "seller": "Rocking R"})
	assert.Equal(t, "Price update: Angus straws by Rocking R", got)
}
