// Package diag is the diagnostic sink used by the type-inference pass to
// report non-fatal warnings (spec.md §7: "Warnings are emitted via a
// diagnostic sink (stderr is acceptable)"). It follows the same shape as
// the teacher's own debug logger (wagon's wasm.PrintDebugInfo / wasm/log.go):
// a package-level *log.Logger that tests can redirect.
package diag

import (
	"log"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "stackjit: ", 0)
)

// SetOutput redirects where warnings are written. Tests use this to capture
// and assert on emitted warnings instead of polluting stderr.
func SetOutput(w *log.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = w
}

// Warnf emits a warning, used for spec.md's TypeConflict class of
// diagnostics: inconsistent local types observed by the inference pass.
func Warnf(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Printf(format, args...)
}
