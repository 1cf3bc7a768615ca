package controller

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"explorer/internal/generator"
	"explorer/utils"

	"github.com/charmbracelet/log"
)

type control struct {
	index int
	value float64
}

// Controller binds controls to latent coordinates and coalesces edits into
// regenerations. None of its methods are safe for concurrent use: every call,
// including timer callbacks, must come from the same Loop.
type Controller struct {
	ctx      context.Context
	latent   Latent
	sched    Scheduler
	display  Display
	observer Observer
	opts     Options
	log      *log.Logger

	controls map[int]*control

	pending *PendingEdit
	timer   Timer
	seq     uint64

	rendering bool
}

func New(ctx context.Context, latent Latent, sched Scheduler, display Display, observer Observer, opts Options) *Controller {
	opts = opts.withDefaults()

	c := &Controller{
		ctx:      ctx,
		latent:   latent,
		sched:    sched,
		display:  display,
		observer: observer,
		opts:     opts,
		log:      log.With("component", "controller"),
		controls: map[int]*control{},
	}

	n := min(opts.Sliders, latent.ZDim())
	for i := 0; i < n; i++ {
		v, _ := latent.Coordinate(i)
		c.controls[i] = &control{index: i, value: c.round(v)}
	}
	return c
}

func (c *Controller) ZDim() int { return c.latent.ZDim() }

func (c *Controller) Controls() []ControlState {
	out := make([]ControlState, 0, len(c.controls))
	for id, ctl := range c.controls {
		out = append(out, ControlState{ID: id, Index: ctl.index, Value: ctl.value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Controller) Control(id int) (ControlState, error) {
	ctl, err := c.lookup(id)
	if err != nil {
		return ControlState{}, err
	}
	return ControlState{ID: id, Index: ctl.index, Value: ctl.value}, nil
}

func (c *Controller) Pending() (PendingEdit, bool) {
	if c.pending == nil {
		return PendingEdit{}, false
	}
	return *c.pending, true
}

// BindControl points control id at coordinate index and reads the coordinate
// back into the control. It never regenerates.
func (c *Controller) BindControl(id, index int) error {
	return c.bind(id, index, strconv.Itoa(index))
}

// BindControlText accepts the raw text of a feature field, e.g. "12" or "11.6".
func (c *Controller) BindControlText(id int, text string) error {
	if _, err := c.lookup(id); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return c.reject(&ValidationError{
			ControlID: id,
			Input:     text,
			Message:   "Error: Feature number must be an integer",
			Err:       fmt.Errorf("parse %q: %w", text, strconv.ErrSyntax),
		})
	}
	r := math.Round(f)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return c.reject(c.rangeError(id, text, generator.ErrIndexOutOfRange))
	}
	return c.bind(id, int(r), text)
}

func (c *Controller) bind(id, index int, input string) error {
	ctl, err := c.lookup(id)
	if err != nil {
		return err
	}

	v, err := c.latent.Coordinate(index)
	if err != nil {
		return c.reject(c.rangeError(id, input, err))
	}

	ctl.index = index
	ctl.value = c.round(v)
	c.log.Debug("control rebound", "control", id, "index", index, "value", ctl.value)
	c.notify(id, ctl)
	return nil
}

func (c *Controller) rangeError(id int, input string, err error) *ValidationError {
	return &ValidationError{
		ControlID: id,
		Input:     input,
		Message:   fmt.Sprintf("Error: Must be between 0 and %d", c.latent.ZDim()-1),
		Err:       err,
	}
}

func (c *Controller) reject(verr *ValidationError) error {
	c.log.Warn("rebind rejected", "control", verr.ControlID, "input", verr.Input, "err", verr.Err)
	if c.observer != nil {
		c.observer.ValidationFailed(verr)
	}
	return verr
}

// OnControlRawInput records value as the single pending edit and re-arms the
// debounce timer. Only the value present when the timer fires is applied.
func (c *Controller) OnControlRawInput(id int, value float64) error {
	ctl, err := c.lookup(id)
	if err != nil {
		return err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}

	ctl.value = c.round(math.Max(c.opts.Min, math.Min(c.opts.Max, value)))
	c.notify(id, ctl)

	c.cancelTimer()
	c.seq++
	seq := c.seq
	c.pending = &PendingEdit{Index: ctl.index, Value: ctl.value, seq: seq}
	c.timer = c.sched.AfterFunc(c.opts.Debounce, func() { c.fire(seq) })
	return nil
}

func (c *Controller) IncrementControl(id int, delta float64) error {
	return c.nudge(id, c.step(delta))
}

func (c *Controller) DecrementControl(id int, delta float64) error {
	return c.nudge(id, -c.step(delta))
}

func (c *Controller) step(delta float64) float64 {
	if delta <= 0 {
		return c.opts.Step
	}
	return delta
}

func (c *Controller) nudge(id int, delta float64) error {
	ctl, err := c.lookup(id)
	if err != nil {
		return err
	}
	return c.OnControlRawInput(id, ctl.value+delta)
}

func (c *Controller) fire(seq uint64) {
	if c.pending == nil || c.pending.seq != seq {
		c.log.Debug("stale flush ignored", "seq", seq)
		return
	}
	if err := c.FlushEdit(); err != nil {
		c.log.Error("flush failed", "err", err)
	}
}

// FlushEdit applies the pending edit and regenerates. Without a pending edit
// it does nothing.
func (c *Controller) FlushEdit() error {
	if c.pending == nil {
		return nil
	}
	edit := *c.pending
	c.pending = nil
	c.cancelTimer()

	if err := c.latent.SetCoordinate(edit.Index, edit.Value); err != nil {
		return fmt.Errorf("apply edit: %w", err)
	}
	c.syncIndex(edit.Index, edit.Value)
	return c.RegenerateAndDisplay()
}

// syncIndex updates every other control bound to index.
func (c *Controller) syncIndex(index int, value float64) {
	for _, st := range c.Controls() {
		if st.Index != index || st.Value == value {
			continue
		}
		ctl := c.controls[st.ID]
		ctl.value = value
		c.notify(st.ID, ctl)
	}
}

// ResetLatent draws a new current vector and reads every control back from
// it. The caller regenerates.
func (c *Controller) ResetLatent() error {
	c.cancelTimer()
	c.pending = nil

	c.latent.ResetCurrentLatent()

	for _, st := range c.Controls() {
		ctl := c.controls[st.ID]
		v, err := c.latent.Coordinate(ctl.index)
		if err != nil {
			return fmt.Errorf("resync control %d: %w", st.ID, err)
		}
		ctl.value = c.round(v)
		c.notify(st.ID, ctl)
	}
	c.log.Info("latent reset", "controls", len(c.controls))
	return nil
}

func (c *Controller) RegenerateAndDisplay() error {
	if c.rendering {
		return ErrRegenerationInFlight
	}
	c.rendering = true
	defer func() { c.rendering = false }()

	start := time.Now()
	err := c.regenerate()
	dur := time.Since(start)

	if c.opts.Recorder != nil {
		c.opts.Recorder.RecordRegeneration(c.ctx, dur, err)
	}
	if err != nil {
		return err
	}
	c.log.Debug("regenerated", "dur", dur.String())
	return nil
}

func (c *Controller) regenerate() error {
	frame, err := c.latent.SampleCurrent(c.ctx, generator.NoiseConst)
	if err != nil {
		return fmt.Errorf("sample current latent: %w", err)
	}
	if c.display == nil {
		return nil
	}
	if err := c.display.Show(frame); err != nil {
		return fmt.Errorf("display frame: %w", err)
	}
	return nil
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) lookup(id int) (*control, error) {
	ctl, ok := c.controls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownControl, id)
	}
	return ctl, nil
}

func (c *Controller) notify(id int, ctl *control) {
	if c.observer != nil {
		c.observer.ControlChanged(ControlState{ID: id, Index: ctl.index, Value: ctl.value})
	}
}

func (c *Controller) round(v float64) float64 {
	return utils.Round(v, c.opts.Decimals)
}
