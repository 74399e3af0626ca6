package events_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveline/driveline/internal/events"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(&buf)

	logger.WithField("service", "drive").
		WithFields(map[string]interface{}{"id": 7}).
		WithError(errors.New("boom")).
		Info("Something happened")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "drive", entry["service"])
	assert.Equal(t, float64(7), entry["id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "Something happened", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(&buf)

	// Test loggers run at debug, so nothing is filtered.
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
