package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/logger"
)

type ctxKey struct{}

func TestNew_JSONWithContextValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "stockalert")),
		logger.WithContextValue("request_id", ctxKey{}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	log.InfoContext(ctx, "hello", logger.ListingID("lst_1"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "stockalert", rec["service"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, "lst_1", rec["listing_id"])
}

func TestNew_Environment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithEnvironment("dev", "svc"))
	log.Debug("visible in development")

	assert.Contains(t, buf.String(), "visible in development")
	assert.Contains(t, buf.String(), "env=development")

	buf.Reset()
	log = logger.New(logger.WithOutput(&buf), logger.WithEnvironment("prod", "svc"))
	log.Debug("hidden in production")
	assert.Empty(t, buf.String())
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	err := errors.New("boom")
	assert.Equal(t, err, logger.Error(err).Value.Any())

	group := logger.Errors(err, nil, err)
	require.Equal(t, "errors", group.Key)
	assert.Len(t, group.Value.Group(), 2)
	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))

	assert.Equal(t, "attempt", logger.Attempt(2).Key)
	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Duration())
	assert.True(t, logger.JobID(nil).Equal(slog.Attr{}))
}
