package dependencies

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Tensors cross the wire as base64 of little-endian float32.

func encodeFloat32s(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeFloat32s(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode tensor: %w", err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("decode tensor: %d bytes is not a float32 multiple", len(buf))
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}

func float64sToList(v []float64) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = f
	}
	return out
}
