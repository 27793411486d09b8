package pcb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// uuidVersion is the first format version (KiCad 8) that writes quoted
// (uuid ..) identifiers and (flag yes) booleans everywhere.
const uuidVersion = 20231007

// WriteFile writes the board to filename, replacing it atomically.
func (b *Board) WriteFile(filename string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := b.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// Write serializes the board in KiCad's S-expression format.
func (b *Board) Write(w io.Writer) error {
	if err := kicadsexp.Format(w, b.Sexp()); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	return nil
}

// Sexp builds the (kicad_pcb ...) tree for the board.
func (b *Board) Sexp() *kicadsexp.List {
	version := b.Version
	if version == 0 {
		version = DefaultVersion
	}
	wr := writer{version: version}

	root := kicadsexp.Node("kicad_pcb",
		kicadsexp.Node("version", kicadsexp.Int(version)),
		kicadsexp.Node("generator", wr.text(b.Generator)),
	)
	for _, n := range b.extra {
		root.Append(n)
	}
	for _, n := range b.Nets {
		root.Append(kicadsexp.Node("net", kicadsexp.Int(n.Code), kicadsexp.Quoted(n.Name)))
	}
	for _, fp := range b.Footprints {
		root.Append(wr.footprint(fp))
	}
	for _, d := range b.Drawings {
		root.Append(wr.drawing(d))
	}
	for _, t := range b.Tracks {
		switch it := t.(type) {
		case *Track:
			root.Append(wr.track(it))
		case *Via:
			root.Append(wr.via(it))
		}
	}
	for _, z := range b.Zones {
		root.Append(wr.zone(z))
	}
	for _, g := range b.Groups {
		root.Append(wr.group(g))
	}
	return root
}

type writer struct {
	version int
}

func (wr writer) modern() bool { return wr.version >= uuidVersion }

// text renders a free-form token: bare before KiCad 8, quoted after.
func (wr writer) text(s string) kicadsexp.Sexp {
	if wr.modern() {
		return kicadsexp.Quoted(s)
	}
	return kicadsexp.Symbol(s)
}

func (wr writer) id(id UUID) *kicadsexp.List {
	if wr.modern() {
		return kicadsexp.Node("uuid", kicadsexp.Quoted(id))
	}
	return kicadsexp.Node("tstamp", kicadsexp.Symbol(id))
}

// flag appends a boolean attribute: (name yes) on KiCad 8, a bare symbol before.
func (wr writer) flag(n *kicadsexp.List, name string) {
	if wr.modern() {
		n.Append(kicadsexp.Node(name, kicadsexp.Symbol("yes")))
		return
	}
	n.Append(kicadsexp.Symbol(name))
}

func layerNode(key string, layers []string) *kicadsexp.List {
	n := kicadsexp.Node(key)
	for _, l := range layers {
		n.Append(kicadsexp.Quoted(l))
	}
	return n
}

func netNode(n *Net) *kicadsexp.List {
	if n == nil {
		return kicadsexp.Node("net", kicadsexp.Int(Unconnected))
	}
	return kicadsexp.Node("net", kicadsexp.Int(n.Code))
}

func ptsNode(points []Position) *kicadsexp.List {
	pts := kicadsexp.Node("pts")
	for _, p := range points {
		pts.Append(sexp.XY("xy", p))
	}
	return pts
}

// appendLeaves and appendLists split unmodelled children: bare atoms belong
// right after the node's leading tokens, lists go at the end.
func appendLeaves(n *kicadsexp.List, extra []kicadsexp.Sexp) {
	for _, e := range extra {
		if e.IsLeaf() {
			n.Append(e)
		}
	}
}

func appendLists(n *kicadsexp.List, extra []kicadsexp.Sexp) {
	for _, e := range extra {
		if !e.IsLeaf() {
			n.Append(e)
		}
	}
}

func floatNode(key string, v *float64) *kicadsexp.List {
	return kicadsexp.Node(key, kicadsexp.Float(*v))
}

func (wr writer) footprint(fp *Footprint) *kicadsexp.List {
	n := kicadsexp.Node("footprint", kicadsexp.Quoted(fp.LibID))
	if fp.Locked && !wr.modern() {
		n.Append(kicadsexp.Symbol("locked"))
	}
	appendLeaves(n, fp.Extra)
	n.Append(kicadsexp.Node("layer", kicadsexp.Quoted(fp.Layer)))
	if fp.Locked && wr.modern() {
		wr.flag(n, "locked")
	}
	n.Append(wr.id(fp.UUID))
	n.Append(sexp.At(fp.At))
	if fp.Path != "" {
		n.Append(kicadsexp.Node("path", kicadsexp.Quoted(fp.Path)))
	}
	if fp.LocalClearance != nil {
		n.Append(floatNode("clearance", fp.LocalClearance))
	}
	if fp.SolderMaskMargin != nil {
		n.Append(floatNode("solder_mask_margin", fp.SolderMaskMargin))
	}
	if fp.SolderPasteMargin != nil {
		n.Append(floatNode("solder_paste_margin", fp.SolderPasteMargin))
	}
	if fp.SolderPasteRatio != nil {
		n.Append(floatNode("solder_paste_ratio", fp.SolderPasteRatio))
	}
	if fp.ZoneConnect != nil {
		n.Append(kicadsexp.Node("zone_connect", kicadsexp.Int(*fp.ZoneConnect)))
	}
	for _, f := range fp.Fields {
		n.Append(wr.field(f, fp.At))
	}
	appendLists(n, fp.Extra)
	for _, p := range fp.Pads {
		n.Append(wr.pad(p))
	}
	return n
}

// field converts the absolute field position back to footprint-relative
// coordinates.
func (wr writer) field(f *Field, parent PositionAngle) *kicadsexp.List {
	var n *kicadsexp.List
	if f.Legacy {
		kind := "user"
		switch f.Name {
		case FieldReference:
			kind = "reference"
		case FieldValue:
			kind = "value"
		}
		n = kicadsexp.Node("fp_text", kicadsexp.Symbol(kind), kicadsexp.Quoted(f.Text))
	} else {
		n = kicadsexp.Node("property", kicadsexp.Quoted(f.Name), kicadsexp.Quoted(f.Text))
	}

	local := sexp.RotatePoint(f.At.Position.Sub(parent.Position), Position{}, -parent.Angle)
	n.Append(sexp.At(PositionAngle{Position: local, Angle: f.At.Angle}))
	n.Append(kicadsexp.Node("layer", kicadsexp.Quoted(f.Layer)))
	if f.Hidden {
		if f.hideNode {
			n.Append(kicadsexp.Node("hide", kicadsexp.Symbol("yes")))
		} else {
			n.Append(kicadsexp.Symbol("hide"))
		}
	}
	appendLeaves(n, f.Extra)
	n.Append(wr.id(f.UUID))
	appendLists(n, f.Extra)
	return n
}

func (wr writer) pad(p *Pad) *kicadsexp.List {
	n := kicadsexp.Node("pad", kicadsexp.Quoted(p.Number), kicadsexp.Symbol(p.Type), kicadsexp.Symbol(p.Shape))
	appendLeaves(n, p.Extra)
	n.Append(sexp.At(p.At))
	n.Append(kicadsexp.Node("size", kicadsexp.Float(p.Size.Width), kicadsexp.Float(p.Size.Height)))
	n.Append(layerNode("layers", p.Layers))
	appendLists(n, p.Extra)
	if p.NetCode() != Unconnected {
		n.Append(kicadsexp.Node("net", kicadsexp.Int(p.Net.Code), kicadsexp.Quoted(p.Net.Name)))
	}
	n.Append(wr.id(p.UUID))
	return n
}

func (wr writer) track(t *Track) *kicadsexp.List {
	key := "segment"
	if t.IsArc() {
		key = "arc"
	}
	n := kicadsexp.Node(key)
	if t.Locked && !wr.modern() {
		n.Append(kicadsexp.Symbol("locked"))
	}
	appendLeaves(n, t.Extra)
	n.Append(sexp.XY("start", t.Start))
	if t.Mid != nil {
		n.Append(sexp.XY("mid", *t.Mid))
	}
	n.Append(sexp.XY("end", t.End))
	n.Append(kicadsexp.Node("width", kicadsexp.Float(t.Width)))
	n.Append(kicadsexp.Node("layer", kicadsexp.Quoted(t.Layer)))
	if t.Locked && wr.modern() {
		wr.flag(n, "locked")
	}
	appendLists(n, t.Extra)
	n.Append(netNode(t.Net))
	n.Append(wr.id(t.UUID))
	return n
}

func (wr writer) via(v *Via) *kicadsexp.List {
	n := kicadsexp.Node("via")
	appendLeaves(n, v.Extra)
	if v.Locked && !wr.modern() {
		n.Append(kicadsexp.Symbol("locked"))
	}
	n.Append(sexp.XY("at", v.At))
	n.Append(kicadsexp.Node("size", kicadsexp.Float(v.Size)))
	n.Append(kicadsexp.Node("drill", kicadsexp.Float(v.Drill)))
	n.Append(layerNode("layers", v.Layers))
	if v.Locked && wr.modern() {
		wr.flag(n, "locked")
	}
	if v.Free {
		wr.flag(n, "free")
	}
	appendLists(n, v.Extra)
	n.Append(netNode(v.Net))
	n.Append(wr.id(v.UUID))
	return n
}

func (wr writer) zone(z *Zone) *kicadsexp.List {
	n := kicadsexp.Node("zone", netNode(z.Net))
	name := ""
	if z.Net != nil {
		name = z.Net.Name
	}
	n.Append(kicadsexp.Node("net_name", kicadsexp.Quoted(name)))
	if len(z.Layers) == 1 {
		n.Append(layerNode("layer", z.Layers))
	} else {
		n.Append(layerNode("layers", z.Layers))
	}
	n.Append(wr.id(z.UUID))
	if z.Name != "" {
		n.Append(kicadsexp.Node("name", kicadsexp.Quoted(z.Name)))
	}
	appendLeaves(n, z.Extra)
	appendLists(n, z.Extra)
	n.Append(kicadsexp.Node("polygon", ptsNode(z.Outline)))
	for _, f := range z.Fills {
		n.Append(kicadsexp.Node("filled_polygon",
			kicadsexp.Node("layer", kicadsexp.Quoted(f.Layer)),
			ptsNode(f.Points)))
	}
	return n
}

func (wr writer) drawing(d *Drawing) *kicadsexp.List {
	n := kicadsexp.Node(d.Shape.String())
	if d.Shape == ShapeText {
		n.Append(kicadsexp.Quoted(d.Text))
	}
	if d.Locked && !wr.modern() {
		n.Append(kicadsexp.Symbol("locked"))
	}
	appendLeaves(n, d.Extra)

	switch d.Shape {
	case ShapeCircle:
		n.Append(sexp.XY("center", d.Start), sexp.XY("end", d.End))
	case ShapeArc:
		n.Append(sexp.XY("start", d.Start), sexp.XY("mid", d.Mid), sexp.XY("end", d.End))
	case ShapePoly:
		n.Append(ptsNode(d.Points))
	case ShapeText:
		n.Append(sexp.At(PositionAngle{Position: d.Start, Angle: d.Angle}))
	default:
		n.Append(sexp.XY("start", d.Start), sexp.XY("end", d.End))
	}

	n.Append(kicadsexp.Node("layer", kicadsexp.Quoted(d.Layer)))
	if d.Locked && wr.modern() {
		wr.flag(n, "locked")
	}
	n.Append(wr.id(d.UUID))
	appendLists(n, d.Extra)
	return n
}

func (wr writer) group(g *Group) *kicadsexp.List {
	n := kicadsexp.Node("group", kicadsexp.Quoted(g.Name))
	if g.Locked {
		wr.flag(n, "locked")
	}
	if wr.modern() {
		n.Append(kicadsexp.Node("uuid", kicadsexp.Quoted(g.UUID)))
	} else {
		n.Append(kicadsexp.Node("id", kicadsexp.Symbol(g.UUID)))
	}
	members := kicadsexp.Node("members")
	for _, id := range g.memberIDs() {
		members.Append(wr.text(string(id)))
	}
	n.Append(members)
	return n
}
