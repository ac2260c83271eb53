package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("info level drops debug output", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, false)

		log.Debug("hidden")
		assert.Empty(t, buf.String())

		log.Info("visible", "key", "value")
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "visible", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("debug level includes debug output", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, true)

		log.Debug("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "d9f2", Redact("0x51a9e23bd9f2"))
	assert.Equal(t, "abcd", Redact("abcd"))
	assert.Equal(t, "ab", Redact("ab"))
	assert.Equal(t, "", Redact(""))
}
