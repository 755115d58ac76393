package driver

import "time"

// Stage is a phase of an extraction run.
type Stage string

const (
	StageParse   Stage = "parse"
	StageHarvest Stage = "harvest"
	StageEmit    Stage = "emit"
	StageWrite   Stage = "write"
)

// Stages lists the stages in run order.
var Stages = []Stage{StageParse, StageHarvest, StageEmit, StageWrite}

// Status is the state of a header, or of the whole run, within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusSkipped Status = "skipped" // dropped under --keep-going
	StatusError   Status = "error"
)

// Event reports progress for one header, or for the run when File is
// empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Parse events arrive from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

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

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func notify(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
