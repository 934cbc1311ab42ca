package driver

import "time"

// Status captures the state of one template in a run.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being transformed.
	StatusWorking Status = "working"
	// StatusWritten indicates the output file was (re)written.
	StatusWritten Status = "written"
	// StatusUnchanged indicates the cache proved the output up to date.
	StatusUnchanged Status = "unchanged"
	// StatusDryRun indicates the output was generated but not written.
	StatusDryRun Status = "dry-run"
	// StatusSkipped indicates the path does not carry the template suffix.
	StatusSkipped Status = "skipped"
	// StatusFailed indicates a per-file failure; see FileResult.Err.
	StatusFailed Status = "failed"
)

// Final reports whether s ends a file's lifecycle.
func (s Status) Final() bool {
	switch s {
	case StatusQueued, StatusWorking:
		return false
	}
	return true
}

// Event reports progress for a file.
type Event struct {
	File    string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Batch workers call OnEvent
// concurrently.
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

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
