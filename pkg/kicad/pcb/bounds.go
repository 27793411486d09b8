package pcb

import (
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
)

// GetBoundingBox calculates the bounding box of the entire board
func (b *Board) GetBoundingBox() BoundingBox {
	return ItemsBoundingBox(b.Items())
}

// GetBoundingBox calculates the bounding box of a group's members
func (g *Group) GetBoundingBox() BoundingBox {
	return ItemsBoundingBox(g.members)
}

// ItemsBoundingBox returns the box enclosing every item's geometry.
func ItemsBoundingBox(items []Item) BoundingBox {
	bbox := sexp.NewBoundingBox()
	for _, it := range items {
		expandItem(&bbox, it)
	}
	return bbox
}

func expandItem(bbox *BoundingBox, item Item) {
	switch it := item.(type) {
	case *Footprint:
		fb := it.GetBoundingBox()
		if !fb.IsEmpty() {
			bbox.Expand(fb.Min)
			bbox.Expand(fb.Max)
		}
	case *Track:
		bbox.Expand(it.Start)
		bbox.Expand(it.End)
		if it.Mid != nil {
			bbox.Expand(*it.Mid)
		}
	case *Via:
		// Vias have a size, so expand by radius
		radius := it.Size / 2.0
		bbox.Expand(Position{X: it.At.X - radius, Y: it.At.Y - radius})
		bbox.Expand(Position{X: it.At.X + radius, Y: it.At.Y + radius})
	case *Zone:
		for _, p := range it.Outline {
			bbox.Expand(p)
		}
	case *Drawing:
		switch it.Shape {
		case ShapeCircle:
			radius := it.Start.Distance(it.End)
			bbox.Expand(Position{X: it.Start.X - radius, Y: it.Start.Y - radius})
			bbox.Expand(Position{X: it.Start.X + radius, Y: it.Start.Y + radius})
		case ShapePoly:
			for _, p := range it.Points {
				bbox.Expand(p)
			}
		case ShapeArc:
			// Approximate: start, mid and end points
			bbox.Expand(it.Start)
			bbox.Expand(it.Mid)
			bbox.Expand(it.End)
		case ShapeText:
			bbox.Expand(it.Start)
		default:
			bbox.Expand(it.Start)
			bbox.Expand(it.End)
		}
	}
}

// GetBoundingBox calculates the bounding box of a footprint
// Includes all pads with their positions relative to footprint position
func (fp *Footprint) GetBoundingBox() BoundingBox {
	bbox := sexp.NewBoundingBox()

	for _, pad := range fp.Pads {
		absPos := fp.TransformPosition(pad.At.Position)

		// Expand by pad size (approximate as rectangle)
		halfWidth := pad.Size.Width / 2.0
		halfHeight := pad.Size.Height / 2.0

		bbox.Expand(Position{X: absPos.X - halfWidth, Y: absPos.Y - halfHeight})
		bbox.Expand(Position{X: absPos.X + halfWidth, Y: absPos.Y + halfHeight})
	}

	// If no pads, at least include footprint position
	if len(fp.Pads) == 0 {
		bbox.Expand(fp.At.Position)
	}

	return bbox
}

// TransformPosition maps a footprint-relative position to board coordinates.
func (fp *Footprint) TransformPosition(rel Position) Position {
	return fp.At.Position.Add(sexp.RotatePoint(rel, Position{}, fp.At.Angle))
}
