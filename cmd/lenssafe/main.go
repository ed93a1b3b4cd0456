// Command lenssafe watches a camera for eye rubbing and raises alerts.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/jedawel/lenssafe/internal/observability"
)

// The tray and the preview window need the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}
