// Package concurrency holds small goroutine-lifecycle helpers used by the
// storage supervisor and the config watcher.
package concurrency

import (
	"fmt"
	"runtime/debug"

	"neon-beat-back/internal/logging"
)

// GoSafe runs fn in a new goroutine and recovers from panics, logging the
// panic and stack via the project's logger. Panics are logged; process
// lifecycle (restarts) is left to the runtime/container.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logging.Log.WithFields(map[string]any{
					"panic": r,
				}).Error("recovered panic in background goroutine: " + fmt.Sprintf("%v", r) + "\n" + stack)
			}
		}()
		fn()
	}()
}
