package replicate

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

// Severity ranks a diagnostic.
type Severity int

const (
	// Info marks expected, benign skips.
	Info Severity = iota
	// Warning marks data problems the run routed around with a default.
	Warning
	// Error marks an item, or the whole run, that could not be processed.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ReportedError is a structured diagnostic produced during replication.
// It implements error so run-level failures can be inspected with errors.As.
type ReportedError struct {
	Title    string
	Message  string
	Severity Severity
	Item     pcb.Item // offending item, if any
	Sheet    string   // schematic sheet of the target instance
	SubPCB   string   // template the instance is replicated from
}

func (e ReportedError) Error() string {
	if e.Message == "" {
		return e.Title
	}
	return e.Title + ": " + e.Message
}

// String renders the diagnostic on several lines, one attribute per line.
func (e ReportedError) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ERR.%s\t%s", e.Severity, e.Title)
	if e.Message != "" {
		fmt.Fprintf(&sb, "\n Message: %s", e.Message)
	}
	if fp, ok := e.Item.(*pcb.Footprint); ok {
		fmt.Fprintf(&sb, "\n Footprint: %s", fp.Reference())
	} else if e.Item != nil {
		fmt.Fprintf(&sb, "\n Item: %s", pcb.Describe(e.Item))
	}
	if e.Sheet != "" {
		fmt.Fprintf(&sb, "\n Sheet: %s", e.Sheet)
	}
	if e.SubPCB != "" {
		fmt.Fprintf(&sb, "\n SubPCB: %s", e.SubPCB)
	}
	return sb.String()
}

// Sink receives diagnostics as they are produced.
type Sink interface {
	Report(ReportedError)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ReportedError)

func (f SinkFunc) Report(e ReportedError) { f(e) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(ReportedError) {})

// Collector keeps every diagnostic in the order it was reported.
type Collector struct {
	errs []ReportedError
}

func (c *Collector) Report(e ReportedError) {
	c.errs = append(c.errs, e)
}

// Errors returns the collected diagnostics.
func (c *Collector) Errors() []ReportedError {
	out := make([]ReportedError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Count returns how many diagnostics of severity s were collected.
func (c *Collector) Count(s Severity) int {
	n := 0
	for _, e := range c.errs {
		if e.Severity == s {
			n++
		}
	}
	return n
}

// Worst returns the highest severity collected and false if nothing was.
func (c *Collector) Worst() (Severity, bool) {
	if len(c.errs) == 0 {
		return Info, false
	}
	worst := Info
	for _, e := range c.errs {
		if e.Severity > worst {
			worst = e.Severity
		}
	}
	return worst, true
}

type multiSink []Sink

func (m multiSink) Report(e ReportedError) {
	for _, s := range m {
		s.Report(e)
	}
}

// MultiSink forwards every diagnostic to each non-nil sink in order.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
