package replicate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "INFO", Info.String())
	assert.Equal(t, "WARNING", Warning.String())
	assert.Equal(t, "ERROR", Error.String())
	assert.Equal(t, "Severity(7)", Severity(7).String())
}

func TestReportedErrorString(t *testing.T) {
	fp := footprintWithNets("R101", 1)
	tests := []struct {
		name string
		err  ReportedError
		want string
	}{
		{
			name: "title only",
			err:  ReportedError{Title: "No matching footprint", Severity: Info},
			want: "ERR.INFO\tNo matching footprint",
		},
		{
			name: "footprint",
			err: ReportedError{
				Title: "Pad count mismatch", Message: "3 vs 2", Severity: Warning,
				Item: fp, Sheet: "/ch1", SubPCB: "amp.kicad_pcb",
			},
			want: "ERR.WARNING\tPad count mismatch\n Message: 3 vs 2\n Footprint: R101\n Sheet: /ch1\n SubPCB: amp.kicad_pcb",
		},
		{
			name: "other item",
			err:  ReportedError{Title: "Could not copy zone", Severity: Error, Item: &pcb.Zone{Name: "GND"}},
			want: "ERR.ERROR\tCould not copy zone\n Item: zone GND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.String())
		})
	}
}

func TestReportedErrorIsError(t *testing.T) {
	var err error = fmt.Errorf("run: %w", ReportedError{Title: "Target anchor not found", Message: "R9", Severity: Error})

	var re ReportedError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, Error, re.Severity)
	assert.Equal(t, "run: Target anchor not found: R9", err.Error())
}

func TestCollector(t *testing.T) {
	var c Collector
	_, ok := c.Worst()
	assert.False(t, ok)

	c.Report(ReportedError{Title: "a", Severity: Info})
	c.Report(ReportedError{Title: "b", Severity: Warning})
	c.Report(ReportedError{Title: "c", Severity: Info})

	errs := c.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{errs[0].Title, errs[1].Title, errs[2].Title})
	assert.Equal(t, 2, c.Count(Info))

	worst, _ := c.Worst()
	assert.Equal(t, Warning, worst)

	errs[0].Title = "changed"
	assert.Equal(t, "a", c.Errors()[0].Title, "Errors returns a copy")
}

func TestMultiSink(t *testing.T) {
	var a, b Collector
	var calls int
	sink := MultiSink(&a, nil, &b, SinkFunc(func(ReportedError) { calls++ }))

	sink.Report(ReportedError{Title: "x"})
	Discard.Report(ReportedError{Title: "dropped"})

	assert.Len(t, a.Errors(), 1)
	assert.Len(t, b.Errors(), 1)
	assert.Equal(t, 1, calls)
}
