package pipeline

import (
	"time"

	"optdbg/internal/observ"
)

// Stage is one step of an analysis run.
type Stage string

const (
	StageLoad     Stage = "load"     // read IR and remarks, disassemble bitcode
	StageOptimize Stage = "optimize" // run opt
	StageDiff     Stage = "diff"
	StageClassify Stage = "classify"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageLoad, StageOptimize, StageDiff, StageClassify}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Event reports progress of one stage.
type Event struct {
	Stage   Stage
	Status  Status
	Detail  string
	Err     error
	Elapsed time.Duration
}

type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum adds up the given stages, or every recorded stage when none are named.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if len(stages) == 0 {
		stages = Stages
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

// Report lists the recorded stages in execution order.
func (t Timings) Report() observ.Report {
	phases := make([]observ.Phase, 0, len(t.stages))
	for _, stage := range Stages {
		if t.Has(stage) {
			phases = append(phases, observ.Phase{Name: string(stage), Dur: t.Duration(stage)})
		}
	}
	return observ.NewReport(phases)
}
