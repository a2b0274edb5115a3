package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/email"
)

func TestFields(t *testing.T) {
	t.Parallel()

	fields := email.Fields(map[string]any{"units_available": 3, "listing_title": "Angus bull", "percent": -25.5})
	assert.Equal(t, []email.Field{
		{Name: "listing_title", Value: "Angus bull"},
		{Name: "percent", Value: "-25.5"},
		{Name: "units_available", Value: "3"},
	}, fields)
	assert.Empty(t, email.Fields(nil))
}

func TestNotificationBody(t *testing.T) {
	t.Parallel()

	body, err := email.Render(context.Background(), email.NotificationBody("Price drop: <Heifer>", []email.Field{
		{Name: "new_price", Value: "30"},
		{Name: "note", Value: `"bred" & ready`},
	}))
	require.NoError(t, err)

	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Price drop: &lt;Heifer&gt;</title>")
	assert.Contains(t, body, "<h1>Price drop: &lt;Heifer&gt;</h1>")
	assert.Contains(t, body, `<tr><th align="left">new_price</th><td>30</td></tr>`)
	assert.Contains(t, body, "&amp; ready")
	assert.NotContains(t, body, "<Heifer>")
}

func TestNotificationBody_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := email.Render(ctx, email.NotificationBody("subject", nil))
	assert.ErrorIs(t, err, context.Canceled)
}
