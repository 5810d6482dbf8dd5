//go:build nogui || headless

package tray

import (
	"context"
	"errors"
)

// ErrUnsupported is returned when the binary was built without tray support
var ErrUnsupported = errors.New("tray support is not built into this binary")

// Run returns ErrUnsupported
func (a *App) Run(context.Context) error {
	a.logger.Warn("Tray requested but this build has no GUI support")
	a.dispose()
	return ErrUnsupported
}
