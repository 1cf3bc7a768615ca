package generator

import (
	"context"
	"fmt"
	"strings"
)

type NoiseMode string

const (
	NoiseConst  NoiseMode = "const"
	NoiseRandom NoiseMode = "random"
	NoiseNone   NoiseMode = "none"
)

func ParseNoiseMode(s string) (NoiseMode, error) {
	switch m := NoiseMode(strings.ToLower(strings.TrimSpace(s))); m {
	case NoiseConst, NoiseRandom, NoiseNone:
		return m, nil
	case "":
		return NoiseConst, nil
	default:
		return "", fmt.Errorf("unknown noise mode %q", s)
	}
}

// NetworkInfo describes a loaded weights bundle.
type NetworkInfo struct {
	ZDim       int
	CDim       int
	WDim       int
	NumWs      int
	Resolution int
	// Networks lists the keys present in the bundle, e.g. "G" and "D".
	Networks []string
}

func (n NetworkInfo) Has(key string) bool {
	for _, k := range n.Networks {
		if k == key {
			return true
		}
	}
	return false
}

// Representation is the output of the mapping stage (one w per synthesis layer).
type Representation struct {
	NumWs int
	WDim  int
	Data  []float32
}

// Tensor is a single NCHW image as produced by the synthesis stage, values nominally in [-1, 1].
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// Network is the opaque generative model. Implementations run on whatever
// device holds the model; calls are synchronous.
type Network interface {
	Load(ctx context.Context, weightsPath string, device int) (NetworkInfo, error)
	Mapping(ctx context.Context, z, c []float64, truncationPsi float64) (Representation, error)
	Synthesis(ctx context.Context, ws Representation, mode NoiseMode) (Tensor, error)
}
