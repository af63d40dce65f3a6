package store

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumafield/enginemesh/core"
)

func sampleSnapshot(keys ...string) core.Snapshot {
	snap := make(core.Snapshot, len(keys))
	for _, key := range keys {
		snap[key] = core.Entry{
			Key:     key,
			Payload: "payload-" + key,
			Active:  true,
			Options: core.EntryOptions{Priority: 1, Tags: []string{"t"}},
		}
	}
	return snap
}

func TestEncode_SmallValueStaysPlain(t *testing.T) {
	env, err := Encode(sampleSnapshot("a"), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.False(t, env.Compressed)
	assert.Nil(t, env.Expires)

	snap, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, "payload-a", snap["a"].Payload)
}

func TestEncode_LargeValueIsCompressed(t *testing.T) {
	snap := core.Snapshot{
		"big": {Key: "big", Payload: strings.Repeat("x", 4096), Active: true},
	}

	env, err := Encode(snap, 0, 0)
	require.NoError(t, err)
	assert.True(t, env.Compressed)
	assert.Less(t, len(env.Value), 4096, "gzip should shrink a repetitive payload")

	decoded, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 4096), decoded["big"].Payload)
}

func TestEncode_CustomThreshold(t *testing.T) {
	snap := sampleSnapshot("a", "b")

	env, err := Encode(snap, 1, 0)
	require.NoError(t, err)
	assert.True(t, env.Compressed, "threshold 1 forces compression")
}

func TestEncode_TTLSetsExpiry(t *testing.T) {
	env, err := Encode(sampleSnapshot("a"), 0, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, env.Expires)

	assert.False(t, env.Expired(time.Now()))
	assert.True(t, env.Expired(time.Now().Add(2*time.Hour)))
}

func TestEnvelope_WireFieldNames(t *testing.T) {
	env, err := Encode(sampleSnapshot("a"), 0, 0)
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "__v")
	assert.Contains(t, raw, "compressed")
	assert.Contains(t, raw, "value")
	assert.NotContains(t, raw, "expires", "zero ttl omits the expires field")
}

func TestDecode_RejectsCorruptCompressedValue(t *testing.T) {
	env := Envelope{Version: EnvelopeVersion, Compressed: true, Value: []byte("not gzip")}
	_, err := env.Decode()
	assert.Error(t, err)
}
