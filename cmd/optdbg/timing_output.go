package main

import (
	"fmt"
	"io"

	"optdbg/internal/pipeline"
)

func printTimings(out io.Writer, res pipeline.Result) {
	if out == nil {
		return
	}
	if res.Cached {
		fmt.Fprintln(out, "timings: session served from cache")
		return
	}
	fmt.Fprint(out, res.Timings.Report().Summary())
}
