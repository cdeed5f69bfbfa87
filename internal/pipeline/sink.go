package pipeline

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (f FuncSink) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

func emit(sink ProgressSink, stage Stage, status Status, detail string, err error) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Detail: detail, Err: err})
}

func emitDone(sink ProgressSink, stage Stage, detail string, timings *Timings) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: StatusDone, Detail: detail, Elapsed: timings.Duration(stage)})
}
