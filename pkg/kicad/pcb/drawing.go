package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// Shape identifies the geometry of a board drawing.
type Shape int

const (
	ShapeLine Shape = iota
	ShapeRect
	ShapeCircle
	ShapeArc
	ShapePoly
	ShapeText
)

var shapeKeys = map[Shape]string{
	ShapeLine:   "gr_line",
	ShapeRect:   "gr_rect",
	ShapeCircle: "gr_circle",
	ShapeArc:    "gr_arc",
	ShapePoly:   "gr_poly",
	ShapeText:   "gr_text",
}

func (s Shape) String() string {
	if k, ok := shapeKeys[s]; ok {
		return k
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

func shapeFromKey(key string) (Shape, bool) {
	for s, k := range shapeKeys {
		if k == key {
			return s, true
		}
	}
	return 0, false
}

// Drawing is a board-level graphic: line, rectangle, circle, arc, polygon or text.
//
// Geometry by shape:
//   - line, rect: Start and End
//   - circle: Start is the centre, End a point on the circumference
//   - arc: Start, Mid and End
//   - poly: Points
//   - text: Start is the anchor, Angle the text rotation
type Drawing struct {
	UUID   UUID
	Shape  Shape
	Layer  string
	Start  Position
	End    Position
	Mid    Position
	Points []Position
	Text   string
	Angle  Angle
	Locked bool
	Extra  []kicadsexp.Sexp

	group *Group
}

func (d *Drawing) Kind() Kind { return KindDrawing }
func (d *Drawing) ID() UUID { return d.UUID }
func (d *Drawing) ParentGroup() *Group { return d.group }
func (d *Drawing) setParentGroup(g *Group) { d.group = g }

// Position returns the drawing's reference point.
func (d *Drawing) Position() Position {
	if d.Shape == ShapePoly {
		if len(d.Points) == 0 {
			return Position{}
		}
		return d.Points[0]
	}
	return d.Start
}

// Validate reports drawings that cannot be placed.
func (d *Drawing) Validate() error {
	if d.Shape == ShapePoly && len(d.Points) == 0 {
		return fmt.Errorf("%s: %w", d.Shape, ErrNoGeometry)
	}
	return nil
}

// SetPosition moves the drawing so its reference point lands on p.
func (d *Drawing) SetPosition(p Position) {
	d.Move(p.Sub(d.Position()))
}

// Move translates the drawing by delta.
func (d *Drawing) Move(delta Position) {
	d.transform(func(p Position) Position { return p.Add(delta) })
}

// Rotate turns the drawing about center by a. A rectangle that does not
// stay axis aligned becomes a polygon.
func (d *Drawing) Rotate(center Position, a Angle) {
	if d.Shape == ShapeRect && !a.RightAngle() {
		d.Points = []Position{
			d.Start,
			{X: d.End.X, Y: d.Start.Y},
			d.End,
			{X: d.Start.X, Y: d.End.Y},
		}
		d.Shape = ShapePoly
	}
	d.transform(func(p Position) Position { return sexp.RotatePoint(p, center, a) })
	if d.Shape == ShapeText {
		d.Angle = (d.Angle + a).Normalize()
	}
}

func (d *Drawing) transform(fn func(Position) Position) {
	switch d.Shape {
	case ShapePoly:
		for i, p := range d.Points {
			d.Points[i] = fn(p)
		}
	case ShapeArc:
		d.Start, d.Mid, d.End = fn(d.Start), fn(d.Mid), fn(d.End)
	case ShapeText:
		d.Start = fn(d.Start)
	default:
		d.Start, d.End = fn(d.Start), fn(d.End)
	}
}

// Duplicate returns a deep copy with a fresh UUID and no group.
func (d *Drawing) Duplicate() *Drawing {
	c := *d
	c.UUID = NewUUID()
	c.group = nil
	c.Points = append([]Position(nil), d.Points...)
	c.Extra = cloneNodes(d.Extra)
	return &c
}
