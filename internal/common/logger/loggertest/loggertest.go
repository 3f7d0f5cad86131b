// Package loggertest provides a logger.Logger that writes through testing.TB.
package loggertest

import (
	"testing"

	"credit-risk-console/internal/common/logger"

	"go.uber.org/zap/zaptest"
)

// New routes debug and above through t.Log, so output only shows for
// failing or verbose tests.
func New(t testing.TB) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}
