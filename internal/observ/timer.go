// Package observ records phase timings for --timings.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer records named phases (expand, transform, report) in the order they
// start. A nil *Timer records nothing, so callers need no guards.
type Timer struct {
	mu     sync.Mutex
	clock  func() time.Time
	phases []phase
}

type phase struct {
	name string
	took time.Duration
	note string
	done bool
}

func NewTimer() *Timer { return &Timer{clock: time.Now} }

// Track opens a phase; calling the returned func closes it with an
// optional note. Only the first call counts.
func (t *Timer) Track(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name})
	started := t.clock()
	t.mu.Unlock()

	return func(note string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		p := &t.phases[idx]
		if p.done {
			return
		}
		p.took, p.note, p.done = t.clock().Sub(started), note, true
	}
}

// PhaseReport is one finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the JSON shape of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report lists finished phases. Phases still open are left out.
func (t *Timer) Report() Report {
	var r Report
	if t == nil {
		return r
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		ms := ToMillis(p.took)
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: ms, Note: p.note})
		r.TotalMS += ms
	}
	return r
}

// Summary renders Report as the text table printed by --timings.
func (t *Timer) Summary() string {
	r := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	row := func(name string, ms float64, note string) {
		fmt.Fprintf(&b, "  %-12s %8.2f ms", name, ms)
		if note != "" {
			fmt.Fprintf(&b, "  // %s", note)
		}
		b.WriteByte('\n')
	}
	for _, p := range r.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", r.TotalMS, "")
	return b.String()
}

func ToMillis(d time.Duration) float64 {
	return d.Seconds() * 1e3
}
