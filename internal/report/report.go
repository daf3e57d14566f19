// Package report collects the per-unit outcome of a pipeline run.
//
// Every unit of work (a photo, an itinerary, a travel, an upload) ends as a
// success, a skip with a reason, or a failure with an error. Stages return a
// Report instead of relying on log output as the only failure signal.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Status is the result class of one unit of work.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one unit.
type Outcome struct {
	Stage  string
	Unit   string
	Status Status
	Reason string
	Err    error
}

// Report is safe for concurrent use.
type Report struct {
	RunID uuid.UUID
	Stage string

	mu       sync.Mutex
	outcomes []Outcome
}

// New starts an empty report for stage.
func New(stage string) *Report {
	return &Report{RunID: uuid.New(), Stage: stage}
}

// Success records a completed unit.
func (r *Report) Success(unit string) {
	r.add(Outcome{Unit: unit, Status: StatusSuccess})
}

// Skip records a unit that was intentionally not processed.
func (r *Report) Skip(unit, reason string) {
	r.add(Outcome{Unit: unit, Status: StatusSkipped, Reason: reason})
}

// Fail records a unit that could not be processed.
func (r *Report) Fail(unit string, err error) {
	r.add(Outcome{Unit: unit, Status: StatusFailed, Err: err})
}

// Merge appends the outcomes of other, keeping their stage names.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	for _, o := range other.Outcomes() {
		r.add(o)
	}
}

func (r *Report) add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.Stage == "" {
		o.Stage = r.Stage
	}
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of the recorded outcomes in insertion order.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Counts returns the number of outcomes per status.
func (r *Report) Counts() (success, skipped, failed int) {
	for _, o := range r.Outcomes() {
		switch o.Status {
		case StatusSuccess:
			success++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return success, skipped, failed
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	detailStyle  = lipgloss.NewStyle().PaddingLeft(2)
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).PaddingTop(0)
)

// Render writes a summary followed by every skipped and failed unit.
func (r *Report) Render(w io.Writer) error {
	success, skipped, failed := r.Counts()

	if _, err := fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (run %s)", r.Stage, r.RunID))); err != nil {
		return err
	}
	for _, o := range r.Outcomes() {
		var line string
		switch o.Status {
		case StatusSkipped:
			line = skipStyle.Render("skip") + fmt.Sprintf(" [%s] %s: %s", o.Stage, o.Unit, o.Reason)
		case StatusFailed:
			line = failStyle.Render("fail") + fmt.Sprintf(" [%s] %s: %v", o.Stage, o.Unit, o.Err)
		default:
			continue
		}
		if _, err := fmt.Fprintln(w, detailStyle.Render(line)); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%s %d  %s %d  %s %d",
		okStyle.Render("ok"), success,
		skipStyle.Render("skipped"), skipped,
		failStyle.Render("failed"), failed)
	_, err := fmt.Fprintln(w, summaryStyle.Render(summary))
	return err
}
