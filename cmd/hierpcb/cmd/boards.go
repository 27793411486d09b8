package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/hierpcb/internal/logging"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

// boardSet loads every board once and writes each touched board once, so
// that several instances on one board accumulate into a single file.
type boardSet struct {
	order   []string
	boards  map[string]*pcb.Board
	outputs map[string]string
	loggers map[string]*log.Logger
	closers []io.Closer
}

func newBoardSet() *boardSet {
	return &boardSet{
		boards:  make(map[string]*pcb.Board),
		outputs: make(map[string]string),
		loggers: make(map[string]*log.Logger),
	}
}

func boardKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (s *boardSet) load(path string) (*pcb.Board, error) {
	key := boardKey(path)
	if b, ok := s.boards[key]; ok {
		return b, nil
	}
	b, err := pcb.ParseFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing board %s", path)
	}
	s.boards[key] = b
	return b, nil
}

// touch marks the board at path for writing to output.
func (s *boardSet) touch(path, output string) {
	key := boardKey(path)
	if _, ok := s.outputs[key]; !ok {
		s.order = append(s.order, key)
	}
	s.outputs[key] = output
}

// logger returns the file logger of a board, opening it on first use.
func (s *boardSet) logger(path string, base *log.Logger, verbose bool) (*log.Logger, error) {
	key := boardKey(path)
	if l, ok := s.loggers[key]; ok {
		return l, nil
	}
	l, closer, err := logging.OpenFile(os.Stderr, path, verbose)
	if err != nil {
		return base, errors.Wrap(err, "opening board log")
	}
	s.loggers[key] = l
	s.closers = append(s.closers, closer)
	return l, nil
}

// writeAll writes every touched board in the order it was first touched.
func (s *boardSet) writeAll(beforeWrite func(path string)) []error {
	var errs []error
	for _, key := range s.order {
		out := s.outputs[key]
		if beforeWrite != nil {
			beforeWrite(out)
		}
		if err := s.boards[key].WriteFile(out); err != nil {
			errs = append(errs, errors.Wrapf(err, "writing board %s", out))
			continue
		}
		fmt.Printf("Wrote %s\n", out)
	}
	return errs
}

func (s *boardSet) close() {
	for _, c := range s.closers {
		c.Close()
	}
}
