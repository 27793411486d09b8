package replicate

import (
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
)

// Anchor is anything with a pose on the board, normally a footprint.
type Anchor interface {
	Position() pcb.Position
	Orientation() pcb.Angle
}

// Pose is a fixed Anchor.
type Pose struct {
	At    pcb.Position
	Angle pcb.Angle
}

func (p Pose) Position() pcb.Position { return p.At }
func (p Pose) Orientation() pcb.Angle { return p.Angle }

// RigidTransform maps positions and angles from the frame of one anchor to
// the frame of another. The anchors' poses are captured at construction, so
// moving the anchors afterwards does not change the transform.
type RigidTransform struct {
	from pcb.PositionAngle
	to   pcb.PositionAngle
}

// NewRigidTransform builds the transform taking template onto target.
func NewRigidTransform(template, target Anchor) RigidTransform {
	return RigidTransform{
		from: pcb.PositionAngle{Position: template.Position(), Angle: template.Orientation()},
		to:   pcb.PositionAngle{Position: target.Position(), Angle: target.Orientation()},
	}
}

// Rotation is the angle added to every orientation.
func (t RigidTransform) Rotation() pcb.Angle {
	return t.to.Angle - t.from.Angle
}

// Translate maps p: the offset from the template anchor is rotated by the
// anchor orientation delta and re-based at the target anchor.
func (t RigidTransform) Translate(p pcb.Position) pcb.Position {
	delta := p.Sub(t.from.Position)
	return sexp.RotatePoint(delta, pcb.Position{}, t.Rotation()).Add(t.to.Position)
}

// Orient maps an orientation.
func (t RigidTransform) Orient(a pcb.Angle) pcb.Angle {
	return a - t.from.Angle + t.to.Angle
}

// Inverse returns the transform with template and target swapped.
func (t RigidTransform) Inverse() RigidTransform {
	return RigidTransform{from: t.to, to: t.from}
}

// Place computes where an item whose reference point p lies in the template
// frame must go. current is the item's present reference point, which for a
// freshly duplicated item equals p.
func (t RigidTransform) Place(p, current pcb.Position) Placement {
	target := t.Translate(p)
	return Placement{
		Position: target,
		Offset:   target.Sub(current),
		Rotation: t.Orient(0),
	}
}

func (t RigidTransform) String() string {
	return fmt.Sprintf("(%g, %g, %g°) -> (%g, %g, %g°)",
		t.from.X, t.from.Y, float64(t.from.Angle), t.to.X, t.to.Y, float64(t.to.Angle))
}

// Placement carries both the absolute destination of an item and the
// equivalent relative move, so each item category can use the positioning
// primitive it has.
type Placement struct {
	Position pcb.Position // absolute destination of the reference point
	Offset   pcb.Position // destination minus current reference point
	Rotation pcb.Angle    // orientation delta, applied about Position
}

type (
	absolutePositioner interface{ SetPosition(pcb.Position) }
	relativeMover      interface{ Move(pcb.Position) }
	checkedMover       interface{ Move(pcb.Position) error }
	rotator            interface{ Rotate(pcb.Position, pcb.Angle) }
	checkedRotator     interface{ Rotate(pcb.Position, pcb.Angle) error }
)

// Apply moves item to the placement, preferring an absolute setter and
// falling back to a relative move, then rotates it about its new position.
func (pl Placement) Apply(item any) error {
	switch it := item.(type) {
	case absolutePositioner:
		it.SetPosition(pl.Position)
	case checkedMover:
		if err := it.Move(pl.Offset); err != nil {
			return err
		}
	case relativeMover:
		it.Move(pl.Offset)
	default:
		return fmt.Errorf("%T cannot be positioned", item)
	}

	if pl.Rotation.Normalize() == 0 {
		return nil
	}
	switch it := item.(type) {
	case rotator:
		it.Rotate(pl.Position, pl.Rotation)
	case checkedRotator:
		return it.Rotate(pl.Position, pl.Rotation)
	default:
		return fmt.Errorf("%T cannot be rotated", item)
	}
	return nil
}
