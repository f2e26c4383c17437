package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	Init(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Init(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestWithComponent(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	log.Logger = New(&buf)

	logger := WithComponent("segmenter")
	logger.Warn().Int("intervals", 3).Msg("done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "segmenter", entry["component"])
	assert.Equal(t, "done", entry["message"])
	assert.EqualValues(t, 3, entry["intervals"])
	assert.Contains(t, entry, "time")
}
