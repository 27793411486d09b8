package pcb

import (
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// TrackItem is a routed copper item: a segment, an arc or a via.
type TrackItem interface {
	Item
	Endpoints() (start, end Position)
	SetEndpoints(start, end Position)
	NetCode() int
	SetNet(n *Net)
}

// Track represents a copper track segment, or an arc when Mid is set.
type Track struct {
	UUID   UUID
	Start  Position  // Start point
	End    Position  // End point
	Mid    *Position // Arc midpoint; nil for straight segments
	Width  float64   // Track width in mm
	Layer  string    // Layer name
	Net    *Net      // Connected net
	Locked bool      // Whether track is locked
	Extra  []kicadsexp.Sexp

	group *Group
}

func (t *Track) Kind() Kind { return KindTrack }
func (t *Track) ID() UUID { return t.UUID }
func (t *Track) ParentGroup() *Group { return t.group }
func (t *Track) setParentGroup(g *Group) { t.group = g }

// Position returns the start point.
func (t *Track) Position() Position { return t.Start }

// IsArc reports whether the track is an arc.
func (t *Track) IsArc() bool { return t.Mid != nil }

func (t *Track) Endpoints() (Position, Position) { return t.Start, t.End }

func (t *Track) SetEndpoints(start, end Position) {
	t.Start, t.End = start, end
}

// SetMid moves the arc midpoint. It is a no-op for straight segments.
func (t *Track) SetMid(p Position) {
	if t.Mid != nil {
		t.Mid = &p
	}
}

func (t *Track) NetCode() int { return netCode(t.Net) }
func (t *Track) SetNet(n *Net) { t.Net = n }

// Rotate turns the track about center by a.
func (t *Track) Rotate(center Position, a Angle) {
	t.Start = sexp.RotatePoint(t.Start, center, a)
	t.End = sexp.RotatePoint(t.End, center, a)
	if t.Mid != nil {
		m := sexp.RotatePoint(*t.Mid, center, a)
		t.Mid = &m
	}
}

// Duplicate returns a copy with a fresh UUID and no group.
func (t *Track) Duplicate() *Track {
	c := *t
	c.UUID = NewUUID()
	c.group = nil
	if t.Mid != nil {
		m := *t.Mid
		c.Mid = &m
	}
	c.Extra = cloneNodes(t.Extra)
	return &c
}

// Via represents a via
type Via struct {
	UUID   UUID
	At     Position // Via position
	Size   float64  // Via diameter
	Drill  float64  // Drill diameter
	Layers []string // Layer pair
	Net    *Net     // Connected net
	Locked bool     // Whether via is locked
	// Free vias keep their net even when no track reaches them.
	Free  bool
	Extra []kicadsexp.Sexp

	// end mirrors KiCad's track-shaped via: a second endpoint that always
	// equals At once written.
	end   Position
	group *Group
}

func (v *Via) Kind() Kind { return KindVia }
func (v *Via) ID() UUID { return v.UUID }
func (v *Via) ParentGroup() *Group { return v.group }
func (v *Via) setParentGroup(g *Group) { v.group = g }

// Position returns the via centre.
func (v *Via) Position() Position { return v.At }

// Endpoints returns the via centre and its stored end point.
func (v *Via) Endpoints() (Position, Position) { return v.At, v.end }

// SetEndpoints places the via at start. The end point is stored but has no
// geometric meaning for a via.
func (v *Via) SetEndpoints(start, end Position) {
	v.At, v.end = start, end
}

func (v *Via) NetCode() int { return netCode(v.Net) }
func (v *Via) SetNet(n *Net) { v.Net = n }

// Duplicate returns a copy with a fresh UUID and no group.
func (v *Via) Duplicate() *Via {
	c := *v
	c.UUID = NewUUID()
	c.group = nil
	c.Layers = append([]string(nil), v.Layers...)
	c.Extra = cloneNodes(v.Extra)
	return &c
}
