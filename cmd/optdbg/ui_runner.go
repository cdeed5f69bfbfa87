package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"optdbg/internal/pipeline"
	"optdbg/internal/ui"
)

type analysisOutcome struct {
	result pipeline.Result
	err    error
}

// runAnalysisWithUI runs the pipeline in the background and draws its
// progress on out until the event channel closes.
func runAnalysisWithUI(ctx context.Context, out io.Writer, title string, req *pipeline.Request) (pipeline.Result, error) {
	if req == nil {
		return pipeline.Result{}, fmt.Errorf("missing analysis request")
	}
	events := make(chan pipeline.Event, 64)
	outcomeCh := make(chan analysisOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Run(ctx, &reqCopy)
		outcomeCh <- analysisOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// the pipeline still needs a reader until it finishes
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
