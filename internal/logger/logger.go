package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init replaces zap's global logger. "production" gets JSON output at info level,
// everything else the development console encoder.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)

	switch env {
	case "production":
		l, err = zap.NewProduction()
	case "test":
		l = zap.NewNop()
	default:
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("zap.New -> %w", err)
	}

	zap.ReplaceGlobals(l)

	return nil
}
