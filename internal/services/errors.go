package services

import (
	"errors"
	"fmt"

	"explorer/types"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingField   = errors.New("missing field")
)

func errUnknownCommand(t string) error {
	return fmt.Errorf("%w: %q", ErrUnknownCommand, t)
}

func errMissingField(cmd, field string) error {
	return fmt.Errorf("%w: %s needs %q", ErrMissingField, cmd, field)
}

// validateCommand checks that cmd carries every field its type needs.
func validateCommand(cmd types.WSCommand) error {
	switch cmd.Type {
	case "input":
		if cmd.Control == nil {
			return errMissingField(cmd.Type, "control")
		}
		if cmd.Value == nil {
			return errMissingField(cmd.Type, "value")
		}
	case "increment", "decrement", "bind":
		if cmd.Control == nil {
			return errMissingField(cmd.Type, "control")
		}
	}
	return nil
}
