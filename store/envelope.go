package store

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"time"

	"github.com/lumafield/enginemesh/core"
)

// EnvelopeVersion is the current envelope schema version.
const EnvelopeVersion = 1

// DefaultCompressionThreshold is the serialized size in bytes above which
// Encode gzips the value unless compression was forced on or off.
const DefaultCompressionThreshold = 1 << 10

// Envelope is the persistence wrapper around a serialized snapshot. The
// wire field names (__v, compressed, value, expires) are part of the
// storage format and must not change. Value is base64 in the JSON form
// (Go's default []byte encoding) and gzipped when Compressed is set.
type Envelope struct {
	Version    int        `json:"__v"`
	Compressed bool       `json:"compressed"`
	Value      []byte     `json:"value"`
	Expires    *time.Time `json:"expires,omitempty"`
}

// Encode wraps a snapshot in an envelope. The value is gzipped when it
// exceeds the threshold; a zero threshold means DefaultCompressionThreshold
// and a negative one disables compression. A zero ttl produces a
// non-expiring envelope.
func Encode(snap core.Snapshot, threshold int, ttl time.Duration) (Envelope, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return Envelope{}, err
	}

	if threshold == 0 {
		threshold = DefaultCompressionThreshold
	}

	env := Envelope{Version: EnvelopeVersion, Value: raw}
	if threshold > 0 && len(raw) > threshold {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return Envelope{}, err
		}
		if err := zw.Close(); err != nil {
			return Envelope{}, err
		}
		env.Compressed = true
		env.Value = buf.Bytes()
	}

	if ttl > 0 {
		expires := time.Now().Add(ttl).UTC()
		env.Expires = &expires
	}

	return env, nil
}

// Expired reports whether the envelope carries an expiry in the past.
func (e Envelope) Expired(now time.Time) bool {
	return e.Expires != nil && now.After(*e.Expires)
}

// Decode unwraps the envelope back into a snapshot, inflating the value
// when it was stored compressed.
func (e Envelope) Decode() (core.Snapshot, error) {
	raw := e.Value
	if e.Compressed {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
	}

	snap := make(core.Snapshot)
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
