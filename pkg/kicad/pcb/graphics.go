package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// parseDrawing extracts a board-level graphic.
// Supported nodes: gr_line, gr_rect, gr_circle, gr_arc, gr_poly, gr_text.
func parseDrawing(node kicadsexp.Sexp, key string) (*Drawing, error) {
	shape, ok := shapeFromKey(key)
	if !ok {
		return nil, fmt.Errorf("unsupported graphic %q", key)
	}
	d := &Drawing{Shape: shape}

	items := sexp.GetListItems(node)
	if shape == ShapeText {
		text, err := sexp.GetString(node, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse text content: %w", err)
		}
		d.Text = text
		items = items[1:]
	}

	seen := map[string]bool{}
	for _, child := range items {
		if child.IsLeaf() {
			if sym, ok := child.(kicadsexp.Symbol); ok && sym == "locked" {
				d.Locked = true
				continue
			}
			d.Extra = append(d.Extra, child)
			continue
		}
		name, _ := sexp.GetNodeName(child)
		var err error
		switch name {
		case "start":
			d.Start, err = sexp.GetPositionXY(child)
		case "center":
			// Circles are stored as centre + circumference point.
			d.Start, err = sexp.GetPositionXY(child)
		case "end":
			d.End, err = sexp.GetPositionXY(child)
		case "mid":
			d.Mid, err = sexp.GetPositionXY(child)
		case "pts":
			d.Points, err = sexp.GetPoints(child)
		case "at":
			var pa PositionAngle
			if pa, err = sexp.GetPosition(child); err == nil {
				d.Start, d.Angle = pa.Position, pa.Angle
			}
		case "layer":
			d.Layer, err = sexp.GetString(child, 1)
		case "uuid", "tstamp":
			d.UUID, _ = sexp.GetUUID(node)
		case "locked":
			d.Locked = sexp.GetFlag(node, "locked")
		default:
			d.Extra = append(d.Extra, child)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		seen[name] = true
	}

	for _, req := range requiredGeometry(shape) {
		if !seen[req] {
			return nil, fmt.Errorf("missing required '%s'", req)
		}
	}

	if d.UUID == "" {
		d.UUID = NewUUID()
	}
	return d, nil
}

func requiredGeometry(shape Shape) []string {
	switch shape {
	case ShapeLine, ShapeRect:
		return []string{"start", "end"}
	case ShapeCircle:
		return []string{"center", "end"}
	case ShapeArc:
		return []string{"start", "mid", "end"}
	case ShapeText:
		return []string{"at"}
	}
	// Polygons may be empty; placement reports them instead.
	return nil
}
