package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"explorer/internal/generator"
)

var (
	ErrUnknownControl       = errors.New("unknown control")
	ErrRegenerationInFlight = errors.New("regeneration already in flight")
	ErrInvalidValue         = errors.New("invalid control value")
)

// Latent is the part of the generator service the controller drives.
type Latent interface {
	ZDim() int
	Coordinate(i int) (float64, error)
	SetCoordinate(i int, v float64) error
	ResetCurrentLatent()
	SampleCurrent(ctx context.Context, mode generator.NoiseMode) (*generator.Frame, error)
}

// Display receives every regenerated frame.
type Display interface {
	Show(frame *generator.Frame) error
}

// Observer is told whenever a control's displayed value or binding changes,
// and when a rebind is rejected.
type Observer interface {
	ControlChanged(state ControlState)
	ValidationFailed(err *ValidationError)
}

// Recorder is an optional sink for regeneration timings.
type Recorder interface {
	RecordRegeneration(ctx context.Context, dur time.Duration, err error)
}

// Timer is an armed deferred callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms deferred callbacks. Callbacks must run on the same logical
// thread as every other controller call.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type ControlState struct {
	ID    int     `json:"id"`
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

type PendingEdit struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`

	seq uint64
}

// ValidationError is a rejected rebind. Message is meant for the user.
type ValidationError struct {
	ControlID int
	Input     string
	Message   string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("control %d: %s", e.ControlID, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type Options struct {
	Sliders  int
	Debounce time.Duration
	Min      float64
	Max      float64
	// Decimals is the control resolution, 2 means steps of 0.01.
	Decimals int
	// Step is the default increment/decrement delta.
	Step     float64
	Recorder Recorder
}

func (o Options) withDefaults() Options {
	if o.Sliders <= 0 {
		o.Sliders = 15
	}
	if o.Debounce <= 0 {
		o.Debounce = 200 * time.Millisecond
	}
	if o.Min == 0 && o.Max == 0 {
		o.Min, o.Max = -4, 4
	}
	if o.Decimals <= 0 {
		o.Decimals = 2
	}
	if o.Step <= 0 {
		o.Step = 0.01
	}
	return o
}
