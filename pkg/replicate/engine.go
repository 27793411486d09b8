package replicate

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

// ErrNoPairing is returned when a run is started without a pairing function.
var ErrNoPairing = errors.New("footprint pairing is required")

// Result summarises one run.
type Result struct {
	Purged     int              // volatile items removed from the target group
	Footprints int              // target footprints synchronised
	Copied     map[pcb.Kind]int // volatile items created, per kind
	Nets       NetMapping
}

// Engine copies a template instance onto a target instance.
type Engine struct {
	Pairing Pairing
}

// NewEngine returns an engine resolving target footprints with pair.
func NewEngine(pair Pairing) *Engine {
	return &Engine{Pairing: pair}
}

// Run purges stale volatile items from the target group, synchronises the
// paired footprints and then regenerates drawings, tracks and zones, in that
// order. Failures on single items are reported to the context sink and do
// not stop the run.
func (e *Engine) Run(ctx *Context) (*Result, error) {
	if e.Pairing == nil {
		return nil, ErrNoPairing
	}
	res := &Result{Copied: make(map[pcb.Kind]int)}

	res.Purged = e.Purge(ctx)
	res.Nets, res.Footprints = e.EnforceFootprints(ctx)

	tpl := ctx.Template
	e.copyAll(ctx, drawingItems(tpl.Drawings), res)
	e.copyAll(ctx, trackItems(tpl.Tracks), res)
	e.copyAll(ctx, zoneItems(tpl.Zones), res)
	return res, nil
}

// Purge removes every volatile member of the target group from the target
// board and returns how many were removed.
func (e *Engine) Purge(ctx *Context) int {
	n := 0
	for _, it := range ctx.Members.Group().Items() {
		if it.Kind().Volatile() {
			ctx.Target.Remove(it)
			n++
		}
	}
	return n
}

// EnforceFootprints moves every paired target footprint into place, copies
// the template's local overrides and fields onto it and claims it into the
// group. It returns the net mapping collected from the pads and the number of
// footprints synchronised.
func (e *Engine) EnforceFootprints(ctx *Context) (NetMapping, int) {
	nets := NewNetCorrespondence(ctx.labelled())
	synced := 0

	for _, tpl := range append([]*pcb.Footprint(nil), ctx.Template.Footprints...) {
		if !ctx.InScope(tpl) {
			continue
		}
		tgt, ok := e.Pairing(tpl)
		if !ok || tgt == nil {
			ctx.report(ReportedError{
				Title:    "No matching footprint",
				Message:  fmt.Sprintf("%s has no counterpart in the target, skipped", tpl.Reference()),
				Severity: Info,
				Item:     tpl,
			})
			continue
		}
		if tgt == tpl {
			ctx.report(ReportedError{
				Title:    "Footprint paired with itself",
				Message:  "pairing returned the template footprint, skipped",
				Severity: Warning,
				Item:     tpl,
			})
			continue
		}

		syncFootprint(ctx.Transform, tpl, tgt)
		nets.Record(tpl, tgt)
		ctx.Members.Claim(tgt)
		synced++
	}
	return nets.Mapping(), synced
}

// syncFootprint makes tgt a rigid copy of tpl while keeping its identity:
// UUID, pads, nets, path and reference designator survive.
func syncFootprint(t Transformer, tpl, tgt *pcb.Footprint) {
	tgt.LocalClearance = copyFloat(tpl.LocalClearance)
	tgt.SolderMaskMargin = copyFloat(tpl.SolderMaskMargin)
	tgt.SolderPasteMargin = copyFloat(tpl.SolderPasteMargin)
	tgt.SolderPasteRatio = copyFloat(tpl.SolderPasteRatio)
	tgt.ZoneConnect = nil
	if tpl.ZoneConnect != nil {
		v := *tpl.ZoneConnect
		tgt.ZoneConnect = &v
	}

	if tpl.Flipped() != tgt.Flipped() {
		tgt.Flip()
	}

	// Fields are rebuilt relative to the footprint pair itself.
	local := NewRigidTransform(tpl, tgt)
	ref := tgt.Reference()
	tgt.ClearFields()
	for _, f := range tpl.Fields {
		nf := f.Clone()
		nf.SetPosition(local.Translate(f.Position()))
		nf.Rotate(nf.Position(), local.Orient(0))
		tgt.AddField(nf)
	}
	tgt.SetReference(ref)

	tgt.SetPosition(t.Translate(tpl.Position()))
	tgt.SetOrientation(t.Orient(tpl.Orientation()))
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// copyFunc duplicates one template item into the target frame.
type copyFunc func(ctx *Context, item pcb.Item, nets NetMapping) (pcb.Item, error)

// strategy selects the copy strategy for a volatile kind.
func strategy(k pcb.Kind) copyFunc {
	switch k {
	case pcb.KindDrawing:
		return copyDrawing
	case pcb.KindTrack, pcb.KindVia:
		return copyTrack
	case pcb.KindZone:
		return copyZone
	case pcb.KindFootprint:
		return nil
	}
	return nil
}

func (e *Engine) copyAll(ctx *Context, items []pcb.Item, res *Result) {
	for _, it := range items {
		if !ctx.InScope(it) {
			continue
		}
		copyItem := strategy(it.Kind())
		if copyItem == nil {
			ctx.report(ReportedError{
				Title:    "Unsupported item",
				Message:  fmt.Sprintf("no copy strategy for %s", it.Kind()),
				Severity: Error,
				Item:     it,
			})
			continue
		}

		dup, err := copyItem(ctx, it, res.Nets)
		if err != nil {
			ctx.report(ReportedError{
				Title:    fmt.Sprintf("Could not copy %s", it.Kind()),
				Message:  err.Error(),
				Severity: Error,
				Item:     it,
			})
			continue
		}
		ctx.Target.Add(dup)
		ctx.Members.Claim(dup)
		res.Copied[dup.Kind()]++
	}
}

func copyDrawing(ctx *Context, item pcb.Item, _ NetMapping) (pcb.Item, error) {
	d := item.(*pcb.Drawing)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	dup := d.Duplicate()
	if err := ctx.Transform.Place(d.Position(), dup.Position()).Apply(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func copyTrack(ctx *Context, item pcb.Item, nets NetMapping) (pcb.Item, error) {
	tpl := item.(pcb.TrackItem)
	dup := pcb.Duplicate(tpl).(pcb.TrackItem)

	dup.SetNet(ctx.Target.FindNet(nets.Lookup(tpl.NetCode())))
	start, end := tpl.Endpoints()
	dup.SetEndpoints(ctx.Transform.Translate(start), ctx.Transform.Translate(end))

	switch t := dup.(type) {
	case *pcb.Track:
		if t.Mid != nil {
			t.SetMid(ctx.Transform.Translate(*t.Mid))
		}
	case *pcb.Via:
		t.Free = false
	}
	return dup, nil
}

func copyZone(ctx *Context, item pcb.Item, nets NetMapping) (pcb.Item, error) {
	z := item.(*pcb.Zone)
	dup := z.Duplicate()
	dup.Net = ctx.Target.FindNet(nets.Lookup(z.NetCode()))
	if err := ctx.Transform.Place(z.Position(), dup.Position()).Apply(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func drawingItems(ds []*pcb.Drawing) []pcb.Item {
	out := make([]pcb.Item, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

func trackItems(ts []pcb.TrackItem) []pcb.Item {
	out := make([]pcb.Item, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

func zoneItems(zs []*pcb.Zone) []pcb.Item {
	out := make([]pcb.Item, len(zs))
	for i, z := range zs {
		out[i] = z
	}
	return out
}
