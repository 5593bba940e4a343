// Package statsview runs a local HTTP server with live runtime statistics
// (heap, goroutines, GC pauses) for profiling the emulator loop. Charts are
// served at Address + "/debug/statsview" and pprof at Address + "/debug/pprof/".
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const Address = "localhost:12600"
const url = "/debug/statsview"

// Launch starts the server in a new goroutine. An empty addr uses Address.
func Launch(output io.Writer, addr string) {
	if addr == "" {
		addr = Address
	}
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", addr, url)
}
