// Package wire codes the host's array payload format: base64 text
// wrapping a raw little-endian IEEE-754 float32 sequence.
package wire

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedPayload reports a decoded byte sequence whose length is
// not a multiple of 4.
var ErrMalformedPayload = errors.New("wire: payload length not a multiple of 4")

// DecodeFloat32 converts a base64-encoded byte sequence into a
// little-endian float32 array.
func DecodeFloat32(s string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, ErrMalformedPayload
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// EncodeFloat32 is the inverse of DecodeFloat32, used by host fakes in
// tests.
func EncodeFloat32(vals []float32) string {
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}
