package pcb

import (
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// Zone represents a copper pour or keepout area.
//
// KiCad exposes no absolute setter for a zone: it can only be moved by a
// delta or rotated about a point. Its reference position is the first
// outline vertex.
type Zone struct {
	UUID    UUID
	Name    string
	Net     *Net
	Layers  []string
	Outline []Position // Zone outline polygon
	Fills   []ZoneFill // Filled polygons from the last refill
	Extra   []kicadsexp.Sexp

	group *Group
}

// ZoneFill is one filled polygon on one layer.
type ZoneFill struct {
	Layer  string
	Points []Position
}

func (z *Zone) Kind() Kind { return KindZone }
func (z *Zone) ID() UUID { return z.UUID }
func (z *Zone) ParentGroup() *Group { return z.group }
func (z *Zone) setParentGroup(g *Group) { z.group = g }

// Position returns the first outline vertex, or the origin for an empty outline.
func (z *Zone) Position() Position {
	if len(z.Outline) == 0 {
		return Position{}
	}
	return z.Outline[0]
}

// NetCode returns the zone's net code, 0 when unconnected.
func (z *Zone) NetCode() int { return netCode(z.Net) }

// Move translates the outline and fills by delta.
func (z *Zone) Move(delta Position) error {
	if len(z.Outline) == 0 {
		return ErrNoGeometry
	}
	z.transform(func(p Position) Position { return p.Add(delta) })
	return nil
}

// Rotate turns the outline and fills about center by a.
func (z *Zone) Rotate(center Position, a Angle) error {
	if len(z.Outline) == 0 {
		return ErrNoGeometry
	}
	z.transform(func(p Position) Position { return sexp.RotatePoint(p, center, a) })
	return nil
}

func (z *Zone) transform(fn func(Position) Position) {
	for i, p := range z.Outline {
		z.Outline[i] = fn(p)
	}
	for _, f := range z.Fills {
		for i, p := range f.Points {
			f.Points[i] = fn(p)
		}
	}
}

// Duplicate returns a deep copy with a fresh UUID and no group.
func (z *Zone) Duplicate() *Zone {
	c := *z
	c.UUID = NewUUID()
	c.group = nil
	c.Layers = append([]string(nil), z.Layers...)
	c.Outline = append([]Position(nil), z.Outline...)
	c.Fills = make([]ZoneFill, len(z.Fills))
	for i, f := range z.Fills {
		c.Fills[i] = ZoneFill{Layer: f.Layer, Points: append([]Position(nil), f.Points...)}
	}
	c.Extra = cloneNodes(z.Extra)
	return &c
}
