package jsoncodec

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWritesSingleLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]any{"type": "STATE"}))
	assert.Equal(t, "{\"type\":\"STATE\"}\n", buf.String())
}

func TestMarshalKeepsDecimalPrecision(t *testing.T) {
	data, err := Marshal(map[string]any{"amount": json.Number("12345678901234567890.123456789")})
	require.NoError(t, err)
	assert.Equal(t, `{"amount":12345678901234567890.123456789}`, string(data))
}
