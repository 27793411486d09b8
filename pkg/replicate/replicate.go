// Package replicate propagates the layout of a template sub-PCB onto one or
// more target instances: footprints are moved into place, and tracks, vias,
// zones and drawings are regenerated in the target frame with their nets
// remapped through the pads of paired footprints.
package replicate

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

// Options configures one replication run.
type Options struct {
	// AnchorRef names the template anchor footprint.
	AnchorRef string
	// TargetAnchorRef names the target anchor. Defaults to AnchorRef.
	TargetAnchorRef string
	// GroupName is the group every replicated item ends up in.
	GroupName string
	// Pairing resolves target footprints.
	Pairing Pairing
	// TemplateGroup, when set, restricts copying to template items in the
	// group of that name. Required when template and target share a board.
	TemplateGroup string

	Sheet  string
	SubPCB string
	Sink   Sink
}

// Replicate copies the template instance onto target and returns every
// diagnostic produced, in order. A non-nil error means the run was aborted
// before the target was modified.
func Replicate(template, target *pcb.Board, opts Options) ([]ReportedError, error) {
	_, diags, err := run(template, target, opts)
	return diags, err
}

// Run is Replicate returning the run summary as well.
func Run(template, target *pcb.Board, opts Options) (*Result, []ReportedError, error) {
	return run(template, target, opts)
}

func run(template, target *pcb.Board, opts Options) (*Result, []ReportedError, error) {
	var diags Collector
	sink := MultiSink(&diags, opts.Sink)

	if opts.Pairing == nil {
		sink.Report(ReportedError{Title: "No pairing", Message: ErrNoPairing.Error(), Severity: Error})
		return nil, diags.Errors(), ErrNoPairing
	}
	if template == target && opts.TemplateGroup == "" {
		sink.Report(ReportedError{
			Title:    "Template scope missing",
			Message:  ErrNoTemplateScope.Error(),
			Severity: Error,
		})
		return nil, diags.Errors(), ErrNoTemplateScope
	}
	targetAnchor := opts.TargetAnchorRef
	if targetAnchor == "" {
		targetAnchor = opts.AnchorRef
	}

	ctx, err := NewContext(template, target, opts.AnchorRef, targetAnchor, opts.GroupName, sink)
	if err != nil {
		return nil, diags.Errors(), err
	}
	ctx.Sheet = opts.Sheet
	ctx.SubPCB = opts.SubPCB
	if opts.TemplateGroup != "" {
		ctx.Scope = InGroup(opts.TemplateGroup)
	}

	res, err := NewEngine(opts.Pairing).Run(ctx)
	if err != nil {
		return nil, diags.Errors(), err
	}
	return res, diags.Errors(), nil
}

// Job is one target instance of a template.
type Job struct {
	Target  *pcb.Board
	Options Options
}

// ReplicateAll runs the jobs one after another, each with its own context.
// A failing job does not stop the others; their errors are joined.
func ReplicateAll(template *pcb.Board, jobs []Job) ([]ReportedError, error) {
	var (
		all  []ReportedError
		errs []error
	)
	for i, job := range jobs {
		diags, err := Replicate(template, job.Target, job.Options)
		all = append(all, diags...)
		if err != nil {
			errs = append(errs, fmt.Errorf("job %d (group %q): %w", i, job.Options.GroupName, err))
		}
	}
	return all, errors.Join(errs...)
}
