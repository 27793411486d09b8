package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
	"github.com/OpenTraceLab/hierpcb/pkg/replicate"
)

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, log.InfoLevel, Level(replicate.Info))
	assert.Equal(t, log.WarnLevel, Level(replicate.Warning))
	assert.Equal(t, log.ErrorLevel, Level(replicate.Error))
}

func TestSinkFor(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.SetFormatter(log.LogfmtFormatter)

	fp := &pcb.Footprint{Layer: "F.Cu"}
	fp.SetReference("R101")
	SinkFor(l).Report(replicate.ReportedError{
		Title:    "Pad count mismatch",
		Message:  "template R1 has 3 pads",
		Severity: replicate.Warning,
		Item:     fp,
		Sheet:    "/ch1",
	})

	out := buf.String()
	assert.Contains(t, out, "Pad count mismatch")
	assert.Contains(t, out, "footprint=R101")
	assert.Contains(t, out, "sheet=/ch1")
	assert.Contains(t, out, `detail="template R1 has 3 pads"`)
}

func TestSinkForItem(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.SetFormatter(log.LogfmtFormatter)

	SinkFor(l).Report(replicate.ReportedError{
		Title:    "Could not copy zone",
		Severity: replicate.Error,
		Item:     &pcb.Zone{Name: "GND"},
	})
	assert.Contains(t, buf.String(), `item="zone GND"`)
}

func TestContext(t *testing.T) {
	assert.Same(t, log.Default(), FromContext(context.Background()))

	l := New(&bytes.Buffer{}, false)
	assert.Same(t, l, FromContext(WithLogger(context.Background(), l)))
}

func TestLogFilePath(t *testing.T) {
	assert.Equal(t, "/tmp/main.hierpcb.log", LogFilePath("/tmp/main.kicad_pcb"))
	assert.Equal(t, "board.hierpcb.log", LogFilePath("board"))
}

func TestOpenFile(t *testing.T) {
	board := filepath.Join(t.TempDir(), "main.kicad_pcb")
	var console bytes.Buffer

	l, closer, err := OpenFile(&console, board, false)
	require.NoError(t, err)
	l.Info("replicated", "group", "ch1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(LogFilePath(board))
	require.NoError(t, err)
	assert.Contains(t, string(data), "group=ch1")
	assert.Equal(t, string(data), console.String())
}
