package generator

import (
	"context"
	"errors"
)

type fakeNetwork struct {
	info    NetworkInfo
	loadErr error

	lastPsi    float64
	lastZ      []float64
	lastLabel  []float64
	lastMode   NoiseMode
	mappings   int
	syntheses  int
	noiseCalls int
}

func newFakeNetwork(zDim int) *fakeNetwork {
	return &fakeNetwork{info: NetworkInfo{
		ZDim:       zDim,
		CDim:       0,
		WDim:       zDim,
		NumWs:      2,
		Resolution: 2,
		Networks:   []string{"G", "D"},
	}}
}

func (f *fakeNetwork) Load(ctx context.Context, weightsPath string, device int) (NetworkInfo, error) {
	if f.loadErr != nil {
		return NetworkInfo{}, f.loadErr
	}
	return f.info, nil
}

func (f *fakeNetwork) Mapping(ctx context.Context, z, c []float64, psi float64) (Representation, error) {
	f.mappings++
	f.lastPsi = psi
	f.lastZ = append([]float64(nil), z...)
	f.lastLabel = append([]float64(nil), c...)

	data := make([]float32, 0, f.info.NumWs*len(z))
	for w := 0; w < f.info.NumWs; w++ {
		for _, v := range z {
			data = append(data, float32(v*psi))
		}
	}
	return Representation{NumWs: f.info.NumWs, WDim: len(z), Data: data}, nil
}

// Synthesis produces a 3x2x2 image whose pixels depend on the sum of ws.
func (f *fakeNetwork) Synthesis(ctx context.Context, ws Representation, mode NoiseMode) (Tensor, error) {
	f.syntheses++
	f.lastMode = mode
	if len(ws.Data) == 0 {
		return Tensor{}, errors.New("empty ws")
	}

	var sum float32
	for _, v := range ws.Data {
		sum += v
	}
	sum /= float32(len(ws.Data))

	var noise float32
	if mode == NoiseRandom {
		f.noiseCalls++
		noise = float32(f.noiseCalls) * 0.01
	}

	data := make([]float32, 12)
	for i := range data {
		data[i] = sum + noise + float32(i)*0.05 - 0.3
	}
	return Tensor{Channels: 3, Height: 2, Width: 2, Data: data}, nil
}
