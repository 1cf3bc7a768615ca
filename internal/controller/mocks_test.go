package controller

import (
	"context"
	"fmt"
	"sort"
	"time"

	"explorer/internal/generator"
)

type fakeLatent struct {
	z       []float64
	resets  int
	samples int
	// snapshots of z at every SampleCurrent call
	sampled [][]float64
	onReset func(z []float64)
}

func newFakeLatent(zDim int) *fakeLatent {
	z := make([]float64, zDim)
	return &fakeLatent{z: z}
}

func (f *fakeLatent) ZDim() int { return len(f.z) }

func (f *fakeLatent) Coordinate(i int) (float64, error) {
	if i < 0 || i >= len(f.z) {
		return 0, fmt.Errorf("%w: %d", generator.ErrIndexOutOfRange, i)
	}
	return f.z[i], nil
}

func (f *fakeLatent) SetCoordinate(i int, v float64) error {
	if i < 0 || i >= len(f.z) {
		return fmt.Errorf("%w: %d", generator.ErrIndexOutOfRange, i)
	}
	f.z[i] = v
	return nil
}

func (f *fakeLatent) ResetCurrentLatent() {
	f.resets++
	if f.onReset != nil {
		f.onReset(f.z)
		return
	}
	for i := range f.z {
		f.z[i] = float64(f.resets) + float64(i)*0.123456
	}
}

func (f *fakeLatent) SampleCurrent(ctx context.Context, mode generator.NoiseMode) (*generator.Frame, error) {
	f.samples++
	f.sampled = append(f.sampled, append([]float64(nil), f.z...))
	return &generator.Frame{Width: 1, Height: 1, Pix: []uint8{1, 2, 3}}, nil
}

type recordingDisplay struct {
	frames []*generator.Frame
	onShow func()
}

func (d *recordingDisplay) Show(frame *generator.Frame) error {
	d.frames = append(d.frames, frame)
	if d.onShow != nil {
		d.onShow()
	}
	return nil
}

type recordingObserver struct {
	changes     []ControlState
	validations []*ValidationError
}

func (o *recordingObserver) ControlChanged(state ControlState) {
	o.changes = append(o.changes, state)
}

func (o *recordingObserver) ValidationFailed(err *ValidationError) {
	o.validations = append(o.validations, err)
}

type recordingRecorder struct {
	calls int
	errs  []error
}

func (r *recordingRecorder) RecordRegeneration(ctx context.Context, dur time.Duration, err error) {
	r.calls++
	r.errs = append(r.errs, err)
}

// fakeScheduler is a manual clock. Callbacks run synchronously inside Advance,
// which stands in for the event loop.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{due: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *fakeTimer
		live := s.timers[:0]
		for _, t := range s.timers {
			if !t.stopped && !t.fired {
				live = append(live, t)
			}
		}
		s.timers = live
		sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].due < s.timers[j].due })
		if len(s.timers) > 0 && s.timers[0].due <= target {
			next = s.timers[0]
		}
		if next == nil {
			break
		}
		s.now = next.due
		next.fired = true
		next.fn()
	}
	s.now = target
}

func (s *fakeScheduler) Armed() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
