package services

import (
	"time"

	"explorer/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const reqIDKey = "reqId"

// RequestLogger tags every request with an id and logs its outcome. Paths in
// quiet (health checks, frame polling) are only logged at debug level.
func RequestLogger(quiet ...string) fiber.Handler {
	base := log.With("component", "http")
	quietPaths := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = true
	}

	return func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-Id")
		if reqID == "" || len(reqID) > 64 {
			reqID = utils.NewRequestID()
		}
		c.Locals(reqIDKey, reqID)
		c.Set("X-Request-Id", reqID)

		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		fields := []any{
			"reqId", reqID,
			"method", method,
			"path", path,
			"status", c.Response().StatusCode(),
			"bytes", len(c.Response().Body()),
			"dur", time.Since(start).String(),
		}
		switch {
		case err != nil:
			base.Error("request failed", append(fields, "err", err)...)
		case quietPaths[path]:
			base.Debug("request completed", fields...)
		default:
			base.Info("request completed", fields...)
		}
		return err
	}
}

func ReqID(c *fiber.Ctx) string {
	if s, ok := c.Locals(reqIDKey).(string); ok {
		return s
	}
	return ""
}

func HttpLogger(action string, c *fiber.Ctx) *log.Logger {
	return log.With(
		"component", "api",
		"action", action,
		"reqId", ReqID(c),
		"path", c.Path(),
	)
}
