package iojson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"healthy": true}))
	assert.JSONEq(t, `{"healthy": true}`, out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_EncodeFailure(t *testing.T) {
	var out, errOut bytes.Buffer

	err := WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Empty(t, out.String())

	var got Error
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &got))
	assert.Equal(t, "encode output", got.Message)
	assert.Contains(t, got.Data, "json_error")
}

func TestMarshalError_Fallback(t *testing.T) {
	s := MarshalError("bad", map[string]any{"fn": func() {}})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &got))
	assert.Equal(t, "bad", got["message"])
}
