package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// TruncationPsi is fixed; the mapping stage is always run without a cutoff layer.
	TruncationPsi = 0.7

	generatorKey     = "G"
	discriminatorKey = "D"
)

type Options struct {
	Device int
	// Seed for latent draws; zero seeds from the clock.
	Seed uint64
}

// Service wraps a frozen generator and holds the current latent vector.
// It is not safe for concurrent use; callers serialize access.
type Service struct {
	net    Network
	info   NetworkInfo
	device int
	label  []float64
	latent []float64
	rng    *rand.Rand
	log    *log.Logger
}

// Initialize loads the weights bundle through net and draws the first latent.
// Any failure to obtain a usable bundle is reported as ErrWeightsUnavailable.
func Initialize(ctx context.Context, net Network, weightsPath string, opts Options) (*Service, error) {
	info, err := net.Load(ctx, weightsPath, opts.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrWeightsUnavailable, weightsPath, err)
	}
	for _, key := range []string{generatorKey, discriminatorKey} {
		if !info.Has(key) {
			return nil, fmt.Errorf("%w: bundle %s has no %q network (got %s)", ErrWeightsUnavailable, weightsPath, key, strings.Join(info.Networks, ","))
		}
	}
	if info.ZDim <= 0 {
		return nil, fmt.Errorf("%w: bundle %s reports z_dim %d", ErrWeightsUnavailable, weightsPath, info.ZDim)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Service{
		net:    net,
		info:   info,
		device: opts.Device,
		label:  make([]float64, info.CDim),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:    log.With("component", "generator"),
	}
	s.latent = s.DrawRandomLatent()

	s.log.Info("generator loaded", "weights", weightsPath, "device", opts.Device, "zDim", info.ZDim, "resolution", info.Resolution)
	return s, nil
}

func (s *Service) Info() NetworkInfo { return s.info }

func (s *Service) ZDim() int { return s.info.ZDim }

// Latent returns a copy of the current vector.
func (s *Service) Latent() []float64 {
	out := make([]float64, len(s.latent))
	copy(out, s.latent)
	return out
}

// DrawRandomLatent samples a standard normal vector without touching the current one.
func (s *Service) DrawRandomLatent() []float64 {
	z := make([]float64, s.info.ZDim)
	for i := range z {
		z[i] = s.rng.NormFloat64()
	}
	return z
}

func (s *Service) ResetCurrentLatent() {
	s.latent = s.DrawRandomLatent()
	s.log.Debug("latent reset")
}

func (s *Service) Coordinate(i int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	return s.latent[i], nil
}

func (s *Service) SetCoordinate(i int, v float64) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.latent[i] = v
	return nil
}

func (s *Service) checkIndex(i int) error {
	if i < 0 || i >= s.info.ZDim {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, s.info.ZDim)
	}
	return nil
}

// Project runs the mapping stage on z, or on the current vector when z is nil.
func (s *Service) Project(ctx context.Context, z []float64) (Representation, error) {
	if z == nil {
		z = s.latent
	}
	if len(z) != s.info.ZDim {
		return Representation{}, fmt.Errorf("%w: got %d, want %d", ErrLatentShape, len(z), s.info.ZDim)
	}
	rep, err := s.net.Mapping(ctx, z, s.label, TruncationPsi)
	if err != nil {
		return Representation{}, fmt.Errorf("mapping: %w", err)
	}
	return rep, nil
}

func (s *Service) Synthesize(ctx context.Context, rep Representation, mode NoiseMode) (*Frame, error) {
	t, err := s.net.Synthesis(ctx, rep, mode)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	frame, err := FrameFromTensor(t)
	if err != nil {
		return nil, err
	}
	frame.Representation = rep
	return frame, nil
}

// SampleCurrent renders the current vector. With NoiseConst the result only
// changes when the vector does.
func (s *Service) SampleCurrent(ctx context.Context, mode NoiseMode) (*Frame, error) {
	return s.Sample(ctx, s.latent, mode)
}

// Sample renders z, or a fresh random vector when z is nil. The fresh vector
// does not replace the current one.
func (s *Service) Sample(ctx context.Context, z []float64, mode NoiseMode) (*Frame, error) {
	if z == nil {
		z = s.DrawRandomLatent()
	}
	if mode == "" {
		mode = NoiseConst
	}
	rep, err := s.Project(ctx, z)
	if err != nil {
		return nil, err
	}
	return s.Synthesize(ctx, rep, mode)
}
