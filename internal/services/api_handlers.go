package services

import (
	"context"
	"errors"
	"time"

	"explorer/internal/controller"
	"explorer/internal/generator"
	"explorer/types"

	"github.com/gofiber/fiber/v2"
)

func (a *Api) Health() fiber.Handler {
	return func(ctx *fiber.Ctx) error {

		return ctx.Status(fiber.StatusOK).JSON(types.HealthResponse{
			Status:    fiber.StatusOK,
			TimeStamp: time.Now().Unix(),
		})
	}
}

func (a *Api) State() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var st StateSnapshot
		if err := a.do(ctx.UserContext(), func() error {
			st = a.snapshot()
			return nil
		}); err != nil {
			return a.controlError(ctx, "state", err)
		}
		return ctx.Status(fiber.StatusOK).JSON(st.Response())
	}
}

func (a *Api) BindControl() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := ctx.ParamsInt("id")
		if err != nil {
			return badRequest(ctx, err, "invalid control id")
		}

		var requestBody types.BindRequest
		if err := ctx.BodyParser(&requestBody); err != nil {
			return badRequest(ctx, err, "invalid body")
		}

		var state controller.ControlState
		err = a.do(ctx.UserContext(), func() error {
			if err := a.ctl.BindControlText(id, string(requestBody.Index)); err != nil {
				return err
			}
			state, err = a.ctl.Control(id)
			return err
		})
		if err != nil {
			return a.controlError(ctx, "bind", err)
		}
		return ctx.Status(fiber.StatusOK).JSON(controlResponse(state))
	}
}

func (a *Api) ControlInput() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := ctx.ParamsInt("id")
		if err != nil {
			return badRequest(ctx, err, "invalid control id")
		}

		var requestBody types.InputRequest
		if err := ctx.BodyParser(&requestBody); err != nil {
			return badRequest(ctx, err, "invalid body")
		}
		if requestBody.Value == nil {
			return badRequest(ctx, errors.New("value is required"), "missing value")
		}

		var state controller.ControlState
		err = a.do(ctx.UserContext(), func() error {
			if err := a.ctl.OnControlRawInput(id, *requestBody.Value); err != nil {
				return err
			}
			state, err = a.ctl.Control(id)
			return err
		})
		if err != nil {
			return a.controlError(ctx, "input", err)
		}
		return ctx.Status(fiber.StatusAccepted).JSON(controlResponse(state))
	}
}

// StepControl serves both +/- buttons; sign picks the direction.
func (a *Api) StepControl(sign int) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := ctx.ParamsInt("id")
		if err != nil {
			return badRequest(ctx, err, "invalid control id")
		}

		var requestBody types.StepRequest
		if len(ctx.Body()) > 0 {
			if err := ctx.BodyParser(&requestBody); err != nil {
				return badRequest(ctx, err, "invalid body")
			}
		}

		var state controller.ControlState
		err = a.do(ctx.UserContext(), func() error {
			var err error
			if sign < 0 {
				err = a.ctl.DecrementControl(id, requestBody.Delta)
			} else {
				err = a.ctl.IncrementControl(id, requestBody.Delta)
			}
			if err != nil {
				return err
			}
			state, err = a.ctl.Control(id)
			return err
		})
		if err != nil {
			return a.controlError(ctx, "step", err)
		}
		return ctx.Status(fiber.StatusAccepted).JSON(controlResponse(state))
	}
}

func (a *Api) ResetLatent() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var st StateSnapshot
		err := a.do(ctx.UserContext(), func() error {
			if err := a.ctl.ResetLatent(); err != nil {
				return err
			}
			st = a.snapshot()
			return a.ctl.RegenerateAndDisplay()
		})
		if err != nil {
			return a.controlError(ctx, "reset", err)
		}
		return ctx.Status(fiber.StatusOK).JSON(st.Response())
	}
}

func (a *Api) Regenerate() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := a.do(ctx.UserContext(), a.ctl.RegenerateAndDisplay); err != nil {
			return a.controlError(ctx, "regenerate", err)
		}
		return ctx.Status(fiber.StatusOK).JSON(types.RegenerateResponse{Status: "ok"})
	}
}

func (a *Api) Frame() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		b, mime, ok := a.display.Latest()
		if !ok {
			return ctx.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
				Error:   "no frame",
				Message: "nothing has been rendered yet",
			})
		}
		ctx.Set(fiber.HeaderContentType, mime)
		return ctx.Status(fiber.StatusOK).Send(b)
	}
}

// Sample renders a fresh random latent that is not kept.
func (a *Api) Sample() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var requestBody types.SampleRequest
		if len(ctx.Body()) > 0 {
			if err := ctx.BodyParser(&requestBody); err != nil {
				return badRequest(ctx, err, "invalid body")
			}
		}
		mode, err := generator.ParseNoiseMode(requestBody.NoiseMode)
		if err != nil {
			return badRequest(ctx, err, "invalid noise mode")
		}

		var frame *generator.Frame
		err = a.do(ctx.UserContext(), func() error {
			var err error
			frame, err = a.sampler.Sample(ctx.UserContext(), nil, mode)
			return err
		})
		if err != nil {
			return a.controlError(ctx, "sample", err)
		}

		b, mime, err := a.display.Encode(frame)
		if err != nil {
			return a.controlError(ctx, "sample", err)
		}
		ctx.Set(fiber.HeaderContentType, mime)
		return ctx.Status(fiber.StatusOK).Send(b)
	}
}

func badRequest(ctx *fiber.Ctx, err error, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
		Error:   err.Error(),
		Message: message,
	})
}

func (a *Api) controlError(ctx *fiber.Ctx, action string, err error) error {
	var verr *controller.ValidationError
	code := fiber.StatusInternalServerError
	message := "model service failed"

	switch {
	case errors.As(err, &verr):
		code, message = fiber.StatusUnprocessableEntity, verr.Message
	case errors.Is(err, controller.ErrUnknownControl):
		code, message = fiber.StatusNotFound, "unknown control"
	case errors.Is(err, controller.ErrInvalidValue):
		code, message = fiber.StatusBadRequest, "invalid value"
	case errors.Is(err, controller.ErrRegenerationInFlight):
		code, message = fiber.StatusConflict, "regeneration in flight"
	case errors.Is(err, controller.ErrLoopClosed), errors.Is(err, context.Canceled):
		code, message = fiber.StatusServiceUnavailable, "shutting down"
	}

	if code >= fiber.StatusInternalServerError {
		HttpLogger(action, ctx).Error("request failed", "err", err)
	}
	return ctx.Status(code).JSON(types.ErrorResponse{
		Error:   err.Error(),
		Message: message,
	})
}
