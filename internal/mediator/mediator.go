package mediator

import (
	"context"
	"fmt"

	"explorer/config"
	"explorer/internal/clients/weights"
	"explorer/internal/controller"
	"explorer/internal/dependencies"
	"explorer/internal/generator"
	"explorer/internal/metrics"
	"explorer/internal/services"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	api     *services.Api
	rpc     *dependencies.Rpc
	loop    *controller.Loop
	hub     *services.Hub
	ctl     *controller.Controller
	metrics *metrics.SentryMetrics
	// settings
	Config config.Config
}

// NewApp wires the explorer together. It fails when the weights cannot be
// obtained or the model service rejects them.
func NewApp(ctx context.Context, config config.Config) (*App, error) {
	if lvl, err := log.ParseLevel(config.Log.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warn("unknown log level, keeping default", "level", config.Log.Level)
	}

	sentryMetrics, err := metrics.NewSentryMetrics(config.Sentry)
	if err != nil {
		return nil, fmt.Errorf("error creating newapp: %w", err)
	}

	weightsPath, err := weights.NewFetcher(config.Model).Ensure(ctx)
	if err != nil {
		sentryMetrics.CaptureFatal(err)
		return nil, fmt.Errorf("error creating newapp: %w", err)
	}

	rpc, err := dependencies.NewRpc(config.Rpc)
	if err != nil {
		sentryMetrics.CaptureFatal(err)
		return nil, fmt.Errorf("error creating newapp: %w", err)
	}

	gen, err := generator.Initialize(ctx, rpc, weightsPath, generator.Options{
		Device: config.Model.Device,
		Seed:   config.Model.Seed,
	})
	if err != nil {
		rpc.Close()
		sentryMetrics.CaptureFatal(err)
		return nil, fmt.Errorf("error creating newapp: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	loop := controller.NewLoop(0)
	hub := services.NewHub()
	sink := services.NewFrameSink(hub, config.Display)
	ctl := controller.New(ctx, gen, loop, sink, hub, controller.Options{
		Sliders:  config.Controller.Sliders,
		Debounce: config.Controller.Debounce(),
		Min:      config.Controller.Min,
		Max:      config.Controller.Max,
		Decimals: config.Controller.Decimals,
		Step:     config.Controller.Step,
		Recorder: sentryMetrics,
	})

	api := services.NewApi(loop, ctl, gen, hub, sink, config.Api)

	log.Info("explorer ready",
		"zDim", gen.ZDim(),
		"resolution", gen.Info().Resolution,
		"sliders", len(ctl.Controls()),
	)

	return &App{
		ctx:     ctx,
		cancel:  cancel,
		api:     api,
		rpc:     rpc,
		loop:    loop,
		hub:     hub,
		ctl:     ctl,
		metrics: sentryMetrics,
		Config:  config,
	}, nil
}

// Start runs the controller loop and the api until either stops or the app
// context is cancelled. The first frame is rendered as soon as the loop runs.
func (a *App) Start() error {
	g, ctx := errgroup.WithContext(a.ctx)

	g.Go(func() error {
		return a.loop.Run(ctx)
	})
	g.Go(func() error {
		return a.api.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.api.Shutdown()
	})

	a.loop.Post(func() {
		if err := a.ctl.RegenerateAndDisplay(); err != nil {
			log.Error("initial render failed", "err", err)
		}
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.hub != nil {
		a.hub.Shutdown()
	}
	if a.rpc != nil {
		a.rpc.Close()
	}
	a.metrics.Flush()
}
