package pipeline

import (
	"errors"
	"fmt"

	"optdbg/internal/catalog"
	"optdbg/internal/passrun"
	"optdbg/internal/session"
)

// ErrNoInput is returned when neither an input file nor --before/--after
// was given.
var ErrNoInput = errors.New("no input specified: provide an IR file or use --before/--after")

// Request describes one analysis run. Exactly one input mode is used:
// Input runs opt on a single module, Before/After compares two existing
// snapshots with an optional Remarks file.
type Request struct {
	Input   string
	Before  string
	After   string
	Remarks string

	Pass passrun.Options
	Jobs int // diff workers, 0 means GOMAXPROCS

	Catalog  *catalog.Catalog // nil means catalog.Builtin()
	Cache    *session.Cache   // nil disables caching
	Progress ProgressSink

	// WorkDir receives opt output; empty means a temporary directory
	// removed after the run.
	WorkDir string
}

// Validate checks the input mode combination.
func (r *Request) Validate() error {
	if r.Before != "" && r.After == "" {
		return errors.New("--before requires --after")
	}
	if r.After != "" && r.Before == "" {
		return errors.New("--after requires --before")
	}
	if r.Input != "" && r.Before != "" {
		return errors.New("cannot specify both a positional input file and --before/--after")
	}
	if r.Input == "" && r.Before == "" {
		return ErrNoInput
	}
	if r.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}
	if r.Input != "" {
		if err := r.Pass.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Request) pairMode() bool { return r.Before != "" }

func (r *Request) pipelineLabel() string {
	if r.pairMode() {
		return "external"
	}
	return r.Pass.Pipeline()
}
