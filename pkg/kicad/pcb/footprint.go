package pcb

import (
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// Footprint represents a placed component.
//
// Pad positions are relative to the footprint origin, as stored in the file.
// Field positions are absolute board coordinates so that moving a footprint
// and moving its reference text behave the same way they do in pcbnew.
type Footprint struct {
	UUID   UUID
	LibID  string        // Library identifier, e.g. "Resistor_SMD:R_0603"
	Layer  string        // F.Cu or B.Cu
	At     PositionAngle // Position and orientation
	Path   string        // Hierarchical sheet path of the schematic symbol
	Locked bool

	Pads   []*Pad
	Fields []*Field

	// Local overrides. nil means "inherit from the board".
	LocalClearance    *float64
	SolderMaskMargin  *float64
	SolderPasteMargin *float64
	SolderPasteRatio  *float64
	ZoneConnect       *int

	// Extra holds unmodelled children (attr, fp_line, model, ...) in
	// footprint-local coordinates.
	Extra []kicadsexp.Sexp

	group *Group
}

// Pad represents a footprint pad
type Pad struct {
	UUID   UUID
	Number string        // Pad number/name
	Type   string        // Pad type (thru_hole, smd, etc.)
	Shape  string        // Pad shape (circle, rect, oval, etc.)
	At     PositionAngle // Footprint-relative position, absolute orientation
	Size   Size          // Pad size
	Layers []string      // Layers the pad appears on
	Net    *Net          // Connected net (if any)
	Extra  []kicadsexp.Sexp
}

// NetCode returns the pad's net code, 0 when unconnected.
func (p *Pad) NetCode() int { return netCode(p.Net) }

func (p *Pad) clone() *Pad {
	c := *p
	c.Layers = append([]string(nil), p.Layers...)
	c.Extra = cloneNodes(p.Extra)
	return &c
}

// Field is a footprint text: reference, value or a user property.
type Field struct {
	UUID   UUID
	Name   string        // "Reference", "Value", "Footprint" or a user property name
	Text   string        // Displayed text
	At     PositionAngle // Absolute board position and angle
	Layer  string
	Hidden bool
	// Legacy fields are written as fp_text instead of property.
	Legacy bool
	Extra  []kicadsexp.Sexp

	hideNode bool // written as (hide yes) rather than a bare symbol
}

// Position returns the field's absolute position.
func (f *Field) Position() Position { return f.At.Position }

// SetPosition moves the field to p.
func (f *Field) SetPosition(p Position) { f.At.Position = p }

// Rotate turns the field about center by a.
func (f *Field) Rotate(center Position, a Angle) {
	f.At.Position = sexp.RotatePoint(f.At.Position, center, a)
	f.At.Angle = (f.At.Angle + a).Normalize()
}

// Clone returns a deep copy of the field with a fresh UUID.
func (f *Field) Clone() *Field {
	c := *f
	c.UUID = NewUUID()
	c.Extra = cloneNodes(f.Extra)
	return &c
}

// Standard field names.
const (
	FieldReference = "Reference"
	FieldValue     = "Value"
)

func (fp *Footprint) Kind() Kind { return KindFootprint }
func (fp *Footprint) ID() UUID { return fp.UUID }
func (fp *Footprint) ParentGroup() *Group { return fp.group }
func (fp *Footprint) setParentGroup(g *Group) { fp.group = g }

// Position returns the footprint origin.
func (fp *Footprint) Position() Position { return fp.At.Position }

// Orientation returns the footprint rotation.
func (fp *Footprint) Orientation() Angle { return fp.At.Angle }

// Flipped reports whether the footprint sits on the back side.
func (fp *Footprint) Flipped() bool { return fp.Layer == "B.Cu" }

// SetPosition moves the footprint and its fields to p.
func (fp *Footprint) SetPosition(p Position) {
	delta := p.Sub(fp.At.Position)
	for _, f := range fp.Fields {
		f.SetPosition(f.Position().Add(delta))
	}
	fp.At.Position = p
}

// Move translates the footprint by delta.
func (fp *Footprint) Move(delta Position) {
	fp.SetPosition(fp.At.Position.Add(delta))
}

// SetOrientation rotates the footprint in place to a. Fields turn about the
// footprint origin and pad orientations follow.
func (fp *Footprint) SetOrientation(a Angle) {
	delta := (a - fp.At.Angle).Normalize()
	if delta != 0 {
		for _, f := range fp.Fields {
			f.Rotate(fp.At.Position, delta)
		}
		for _, p := range fp.Pads {
			p.At.Angle = (p.At.Angle + delta).Normalize()
		}
	}
	fp.At.Angle = a.Normalize()
}

// Rotate turns the footprint about center by a.
func (fp *Footprint) Rotate(center Position, a Angle) {
	fp.SetPosition(sexp.RotatePoint(fp.At.Position, center, a))
	fp.SetOrientation(fp.At.Angle + a)
}

// Flip moves the footprint to the other side of the board, mirroring about
// its own origin so the position is unchanged.
func (fp *Footprint) Flip() {
	origin := fp.At.Position
	fp.Layer = FlipLayer(fp.Layer)
	fp.At.Angle = (-fp.At.Angle).Normalize()

	for _, p := range fp.Pads {
		p.At.Y = -p.At.Y
		p.At.Angle = (-p.At.Angle).Normalize()
		p.Layers = flipLayers(p.Layers)
		for _, n := range p.Extra {
			mirrorNode(n)
		}
	}
	for _, f := range fp.Fields {
		f.At.Y = 2*origin.Y - f.At.Y
		f.At.Angle = (-f.At.Angle).Normalize()
		f.Layer = FlipLayer(f.Layer)
		for _, n := range f.Extra {
			toggleMirror(n)
		}
	}
	for _, n := range fp.Extra {
		mirrorNode(n)
	}
}

// Field returns the field called name.
func (fp *Footprint) Field(name string) (*Field, bool) {
	for _, f := range fp.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Reference returns the reference designator, e.g. "R1".
func (fp *Footprint) Reference() string {
	if f, ok := fp.Field(FieldReference); ok {
		return f.Text
	}
	return ""
}

// SetReference changes the reference designator, adding the field if needed.
func (fp *Footprint) SetReference(ref string) {
	if f, ok := fp.Field(FieldReference); ok {
		f.Text = ref
		return
	}
	layer := "F.SilkS"
	if fp.Flipped() {
		layer = "B.SilkS"
	}
	fp.Fields = append(fp.Fields, &Field{
		UUID:  NewUUID(),
		Name:  FieldReference,
		Text:  ref,
		At:    fp.At,
		Layer: layer,
	})
}

// Value returns the value field text.
func (fp *Footprint) Value() string {
	if f, ok := fp.Field(FieldValue); ok {
		return f.Text
	}
	return ""
}

// ClearFields removes every field.
func (fp *Footprint) ClearFields() {
	fp.Fields = nil
}

// AddField appends f to the footprint.
func (fp *Footprint) AddField(f *Field) {
	fp.Fields = append(fp.Fields, f)
}

// Duplicate returns a deep copy with a fresh UUID and no group.
func (fp *Footprint) Duplicate() *Footprint {
	c := *fp
	c.UUID = NewUUID()
	c.group = nil
	c.Pads = make([]*Pad, len(fp.Pads))
	for i, p := range fp.Pads {
		c.Pads[i] = p.clone()
		c.Pads[i].UUID = NewUUID()
	}
	c.Fields = make([]*Field, len(fp.Fields))
	for i, f := range fp.Fields {
		c.Fields[i] = f.Clone()
	}
	c.LocalClearance = cloneFloat(fp.LocalClearance)
	c.SolderMaskMargin = cloneFloat(fp.SolderMaskMargin)
	c.SolderPasteMargin = cloneFloat(fp.SolderPasteMargin)
	c.SolderPasteRatio = cloneFloat(fp.SolderPasteRatio)
	if fp.ZoneConnect != nil {
		v := *fp.ZoneConnect
		c.ZoneConnect = &v
	}
	c.Extra = cloneNodes(fp.Extra)
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneNodes(nodes []kicadsexp.Sexp) []kicadsexp.Sexp {
	if nodes == nil {
		return nil
	}
	out := make([]kicadsexp.Sexp, len(nodes))
	for i, n := range nodes {
		out[i] = kicadsexp.Clone(n)
	}
	return out
}
