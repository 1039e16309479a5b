// Package log wraps the structured logger shared by every component, so
// that switching log backends never touches call sites.
package log

import (
	golog "github.com/ipfs/go-log"
)

type Logger = golog.StandardLogger

// Named returns a logger scoped to one subsystem ("gateway", "signing",
// "coordinator", ...), one logger per package.
func Named(name string) Logger {
	return golog.Logger(name)
}

func SetLevel(name, level string) error {
	return golog.SetLogLevel(name, level)
}
