// Package progress carries provisioning progress from the worker to a
// presentation layer. Delivery is one-way and never blocks the worker.
package progress

import (
	"sync"
	"sync/atomic"
)

// Status is a narrated provisioning step.
type Status int

const (
	DownloadJre Status = iota
	CheckJreArchive
	ExtractJre
	CheckJreFolder
	DownloadLauncher
	VerifyLauncher
	RunLauncher
	Failed
)

var statusInfo = map[Status]struct {
	name     string
	label    string
	fraction float64
}{
	DownloadJre:      {"DownloadJre", "Download JRE", 0.0},
	CheckJreArchive:  {"CheckJreArchive", "Verify JRE Archive", 0.15},
	ExtractJre:       {"ExtractJre", "Extract JRE Archive", 0.30},
	CheckJreFolder:   {"CheckJreFolder", "Verify JRE Folder", 0.45},
	DownloadLauncher: {"DownloadLauncher", "Download Launcher", 0.60},
	VerifyLauncher:   {"VerifyLauncher", "Verify Launcher", 0.75},
	RunLauncher:      {"RunLauncher", "Run Launcher", 1.0},
	Failed:           {"Failed", "Failed", 0},
}

func (s Status) String() string {
	if info, ok := statusInfo[s]; ok {
		return info.name
	}
	return "Unknown"
}

// Label is the human-readable step name.
func (s Status) Label() string {
	return statusInfo[s].label
}

// Fraction is the conceptual completion in [0,1] when the step starts.
func (s Status) Fraction() float64 {
	return statusInfo[s].fraction
}

// Event is one progress notification.
type Event struct {
	Status   Status
	Fraction float64
	Label    string
	Err      error // set for Failed
}

// NewEvent returns the event for a step.
func NewEvent(s Status) Event {
	return Event{Status: s, Fraction: s.Fraction(), Label: s.Label()}
}

// FailedEvent reports a fatal error. The fraction is the one reached so
// far.
func FailedEvent(reached float64, err error) Event {
	return Event{Status: Failed, Fraction: reached, Label: Failed.Label(), Err: err}
}

// Reporter receives progress events.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(ev Event) { f(ev) }

type nopReporter struct{}

func (nopReporter) Report(Event) {}

// Nop returns a Reporter that discards events.
func Nop() Reporter { return nopReporter{} }

// ChannelReporter delivers events over a buffered channel. Report never
// blocks: when the buffer is full the event is dropped and counted.
type ChannelReporter struct {
	ch      chan Event
	dropped atomic.Int64
	once    sync.Once
}

// NewChannelReporter creates a reporter with room for size pending events.
func NewChannelReporter(size int) *ChannelReporter {
	if size < 1 {
		size = 1
	}
	return &ChannelReporter{ch: make(chan Event, size)}
}

// Report implements Reporter.
func (c *ChannelReporter) Report(ev Event) {
	select {
	case c.ch <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Events is the receive side. It is closed by Close.
func (c *ChannelReporter) Events() <-chan Event {
	return c.ch
}

// Close closes the channel. No Report may follow.
func (c *ChannelReporter) Close() {
	c.once.Do(func() { close(c.ch) })
}

// Dropped returns how many events were discarded so far.
func (c *ChannelReporter) Dropped() int64 {
	return c.dropped.Load()
}

// Recorder keeps every reported event in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (r *Recorder) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Statuses returns the recorded statuses in order.
func (r *Recorder) Statuses() []Status {
	events := r.Events()
	out := make([]Status, len(events))
	for i, ev := range events {
		out[i] = ev.Status
	}
	return out
}

// Multi fans an event out to several reporters in order.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(ev Event) {
		for _, r := range reporters {
			r.Report(ev)
		}
	})
}
