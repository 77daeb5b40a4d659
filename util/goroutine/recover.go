// Package goroutine starts background services so that a panic in one of them is
// logged instead of crashing the process.
package goroutine

import (
	"fmt"
	"os"
	"runtime/debug"

	"streamingapp/util"

	"go.uber.org/zap"
)

// Recover must be deferred directly by the goroutine it guards. A recovered
// panic is logged with its stack; the panic value is sanitized because it often
// carries a connection string.
func Recover(name string, logger *zap.SugaredLogger) {
	r := recover()
	if r == nil {
		return
	}
	reportPanic(name, logger, r, debug.Stack())
}

func reportPanic(name string, logger *zap.SugaredLogger, r any, stack []byte) {
	value := util.SanitizeString(fmt.Sprint(r))
	if logger == nil {
		fmt.Fprintf(os.Stderr, "streamingapp: goroutine %q panicked: %s\n%s", name, value, stack)
		return
	}
	logger.Errorw("Goroutine panic recovered",
		"goroutine", name,
		"panic", value,
		"stack", string(stack))
}

// Go runs fn in a new goroutine guarded by Recover. done, when non-nil,
// is closed after fn returns or panics.
func Go(name string, logger *zap.SugaredLogger, done chan<- struct{}, fn func()) {
	go func() {
		if done != nil {
			defer close(done)
		}
		defer Recover(name, logger)
		fn()
	}()
}
