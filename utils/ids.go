package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewRequestID returns a 32 char hex id.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
