// Package loggertest provides a logger.Logger for tests.
package loggertest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ector/backend/internal/logger"
)

// New returns a logger that writes through t, so output shows up only for
// failing or verbose tests.
func New(t testing.TB) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}
