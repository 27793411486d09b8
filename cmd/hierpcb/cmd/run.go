package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/hierpcb/internal/config"
	"github.com/OpenTraceLab/hierpcb/internal/logging"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
	"github.com/OpenTraceLab/hierpcb/pkg/replicate"
	"github.com/OpenTraceLab/hierpcb/pkg/replicate/pairing"
)

// runner executes the jobs of one configuration.
type runner struct {
	cfg    config.Config
	logger *log.Logger
	// beforeWrite is called with the output path before a board is written.
	beforeWrite func(path string)
}

// run replicates the template onto every target and writes the touched
// boards. Targets fail independently; their errors are joined.
func (r *runner) run() error {
	cfg := r.cfg
	p := logging.NewProgress(r.logger)

	boards := newBoardSet()
	defer boards.close()
	tpl, err := boards.load(cfg.Template)
	if err != nil {
		return err
	}

	fmt.Printf("Template: %s (anchor %s)\n", cfg.Template, cfg.Anchor)

	var errs []error
	for i, t := range cfg.Targets {
		b, err := boards.load(t.Board)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", t.Group, err)
			errs = append(errs, fmt.Errorf("target %d: %w", i, err))
			continue
		}

		l := r.logger
		if cfg.LogFile {
			if l, err = boards.logger(t.Board, r.logger, cfg.Verbose || verbose); err != nil {
				r.logger.Warn("Could not open log file", "board", t.Board, "err", err)
			}
		}

		res, diags, err := r.replicateTarget(tpl, b, t, l)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", t.Group, err)
			errs = append(errs, fmt.Errorf("target %d (group %q): %w", i, t.Group, err))
			continue
		}
		printResult(t, res, diags)
		boards.touch(t.Board, t.OutputPath())
	}

	if cfg.DryRun {
		fmt.Println("Dry run: no boards written")
	} else {
		errs = append(errs, boards.writeAll(r.beforeWrite)...)
	}

	p.Done("Replication finished", "targets", len(cfg.Targets), "failed", len(errs))
	return errors.Join(errs...)
}

func (r *runner) replicateTarget(tpl, b *pcb.Board, t config.TargetConfig, l *log.Logger) (*replicate.Result, []replicate.ReportedError, error) {
	pair, sheet, err := buildPairing(r.cfg, t, tpl, b)
	if err != nil {
		return nil, nil, err
	}
	l.Debug("Replicating", "group", t.Group, "board", t.Board, "pairing", t.PairingMode(), "sheet", sheet)

	return replicate.Run(tpl, b, replicate.Options{
		AnchorRef:       r.cfg.Anchor,
		TargetAnchorRef: t.Anchor,
		GroupName:       t.Group,
		Pairing:         pair,
		TemplateGroup:   r.cfg.TemplateGroup,
		Sheet:           sheet,
		SubPCB:          filepath.Base(r.cfg.Template),
		Sink:            logging.SinkFor(l),
	})
}

// buildPairing returns the pairing for a target and the sheet path of the
// instance, when it has one.
func buildPairing(cfg config.Config, t config.TargetConfig, tpl, b *pcb.Board) (replicate.Pairing, string, error) {
	switch t.PairingMode() {
	case config.PairByReference:
		var renames []pairing.Rename
		if t.ReferenceOffset != 0 {
			renames = append(renames, pairing.Offset(t.ReferenceOffset))
		}
		if t.ReferencePrefix != "" || t.ReferenceSuffix != "" {
			renames = append(renames, pairing.Affix(t.ReferencePrefix, t.ReferenceSuffix))
		}
		return pairing.ByReference(b, pairing.Chain(renames...)), t.Sheet, nil

	case config.PairExplicit:
		return pairing.Explicit(b, t.References), t.Sheet, nil

	case config.PairBySheet:
		sheet := t.Sheet
		if sheet == "" {
			tplAnchor, ok := tpl.FootprintByReference(cfg.Anchor)
			if !ok {
				return nil, "", fmt.Errorf("%w: %q in template", replicate.ErrAnchorNotFound, cfg.Anchor)
			}
			tgtAnchor, ok := b.FootprintByReference(t.Anchor)
			if !ok {
				return nil, "", fmt.Errorf("%w: %q in target", replicate.ErrAnchorNotFound, t.Anchor)
			}
			var err error
			if sheet, err = pairing.SheetPrefix(tplAnchor, tgtAnchor); err != nil {
				return nil, "", fmt.Errorf("deriving sheet path: %w", err)
			}
		}
		return pairing.BySheetSuffix(b, sheet), sheet, nil

	default:
		return nil, "", fmt.Errorf("invalid pairing %q", t.Pairing)
	}
}

func printResult(t config.TargetConfig, res *replicate.Result, diags []replicate.ReportedError) {
	var copied []string
	for _, k := range pcb.Kinds {
		if k.Volatile() {
			copied = append(copied, plural(res.Copied[k], k.String()))
		}
	}
	fmt.Printf("✓ %s → %s: %s, %s, %d purged\n",
		t.Group, filepath.Base(t.OutputPath()),
		plural(res.Footprints, "footprint"), strings.Join(copied, ", "), res.Purged)

	if len(diags) > 0 {
		var c replicate.Collector
		for _, d := range diags {
			c.Report(d)
		}
		fmt.Printf("  %s, %s, %s\n",
			plural(c.Count(replicate.Info), "info"),
			plural(c.Count(replicate.Warning), "warning"),
			plural(c.Count(replicate.Error), "error"))
	}
}

func plural(n int, noun string) string {
	if n == 1 || noun == "info" {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
