package services

import (
	"context"
	"fmt"

	"explorer/config"
	"explorer/internal/controller"
	"explorer/internal/generator"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Sampler renders arbitrary latents without touching the current one.
type Sampler interface {
	Sample(ctx context.Context, z []float64, mode generator.NoiseMode) (*generator.Frame, error)
}

type Api struct {
	server         *fiber.App
	loop           *controller.Loop
	ctl            *controller.Controller
	sampler        Sampler
	hub            *Hub
	display        *FrameSink
	port           string
	allowedOrigins string
}

func NewApi(loop *controller.Loop, ctl *controller.Controller, sampler Sampler, hub *Hub, display *FrameSink, config config.ApiConfig) *Api {
	if config.AllowedOrigins == "" {
		config.AllowedOrigins = "*"
	}

	a := &Api{
		server:         fiber.New(fiber.Config{DisableStartupMessage: true}),
		loop:           loop,
		ctl:            ctl,
		sampler:        sampler,
		hub:            hub,
		display:        display,
		port:           config.Port,
		allowedOrigins: config.AllowedOrigins,
	}
	a.setup()
	return a
}

func (a *Api) setup() {

	allowCredentials := a.allowedOrigins != "*"

	a.server.Use(RequestLogger("/health", "/frame", "/state"))
	a.server.Use(cors.New(cors.Config{
		AllowOrigins:     a.allowedOrigins,
		AllowCredentials: allowCredentials,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,Accept,Origin",
	}))

	a.addRoutes()
}

func (a *Api) Start() error {
	log.Info("api listening", "port", a.port)
	return a.server.Listen(fmt.Sprint(":", a.port))
}

func (a *Api) Shutdown() error {
	return a.server.Shutdown()
}

func (a *Api) addRoutes() {
	a.server.Add("GET", "/health", a.Health())
	a.server.Add("GET", "/state", a.State())
	a.server.Add("POST", "/controls/:id/bind", a.BindControl())
	a.server.Add("POST", "/controls/:id/input", a.ControlInput())
	a.server.Add("POST", "/controls/:id/increment", a.StepControl(1))
	a.server.Add("POST", "/controls/:id/decrement", a.StepControl(-1))
	a.server.Add("POST", "/latent/reset", a.ResetLatent())
	a.server.Add("POST", "/regenerate", a.Regenerate())
	a.server.Add("GET", "/frame", a.Frame())
	a.server.Add("POST", "/sample", a.Sample())

	// websocket connection
	a.server.Use("/ws", a.WsUpgrade())
	a.server.Get("/ws", a.Notifications())
}

// do runs fn on the controller loop.
func (a *Api) do(ctx context.Context, fn func() error) error {
	return a.loop.Do(ctx, fn)
}

// snapshot must be called from the loop.
func (a *Api) snapshot() StateSnapshot {
	st := StateSnapshot{ZDim: a.ctl.ZDim(), Controls: a.ctl.Controls()}
	if p, ok := a.ctl.Pending(); ok {
		st.Pending = &p
	}
	return st
}
