package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"explorer/internal/controller"
	"explorer/types"

	"github.com/charmbracelet/log"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (a *Api) WsUpgrade() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Notifications is the websocket endpoint: it streams frames and control
// updates out and accepts slider events in.
func (a *Api) Notifications() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {

		clientId := strings.TrimSpace(conn.Query("clientId"))
		if clientId == "" {
			clientId = uuid.NewString()
		}

		client := NewWSClient(clientId, conn)
		a.hub.Add(client)
		logger := log.With("component", "ws", "clientId", clientId)
		logger.Info("client connected")

		go client.writeLoop()
		a.sendState(client.id)

		client.readPump(func(msg []byte) {
			a.HandleCommand(context.Background(), client.id, msg)
		}, func() {
			a.hub.removeClient(client)
			logger.Info("client disconnected")
		})
	})
}

func (a *Api) sendState(clientId string) {
	var st StateSnapshot
	if err := a.do(context.Background(), func() error {
		st = a.snapshot()
		return nil
	}); err != nil {
		return
	}
	resp := st.Response()
	a.hub.SendTo(clientId, types.WSEvent{Type: "state", State: &resp})
}

// HandleCommand applies one client command on the controller loop. Failures
// are reported back to the sending client only.
func (a *Api) HandleCommand(ctx context.Context, clientId string, msg []byte) {
	var cmd types.WSCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		a.hub.SendTo(clientId, types.WSEvent{Type: "error", Message: "invalid command: " + err.Error()})
		return
	}

	if err := validateCommand(cmd); err != nil {
		a.hub.SendTo(clientId, types.WSEvent{Type: "error", Message: err.Error()})
		return
	}

	err := a.do(ctx, func() error {
		switch cmd.Type {
		case "input":
			return a.ctl.OnControlRawInput(*cmd.Control, *cmd.Value)
		case "increment":
			return a.ctl.IncrementControl(*cmd.Control, cmd.Delta)
		case "decrement":
			return a.ctl.DecrementControl(*cmd.Control, cmd.Delta)
		case "bind":
			return a.ctl.BindControlText(*cmd.Control, string(cmd.Index))
		case "reset":
			if err := a.ctl.ResetLatent(); err != nil {
				return err
			}
			return a.ctl.RegenerateAndDisplay()
		case "regenerate":
			return a.ctl.RegenerateAndDisplay()
		default:
			return errUnknownCommand(cmd.Type)
		}
	})
	if err != nil {
		// rejected rebinds were already broadcast by the hub
		var verr *controller.ValidationError
		if errors.As(err, &verr) {
			return
		}
		a.hub.SendTo(clientId, types.WSEvent{Type: "error", Message: err.Error()})
	}
}
