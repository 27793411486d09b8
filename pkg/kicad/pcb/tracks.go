package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// parseTrack extracts a track segment or arc
// Expected format: (segment (start x y) (end x y) (width w) (layer "F.Cu") (net n) (uuid ..))
// Arcs add (mid x y).
func parseTrack(node kicadsexp.Sexp, board *Board) (*Track, error) {
	t := &Track{}
	var haveStart, haveEnd bool

	for _, child := range sexp.GetListItems(node) {
		if child.IsLeaf() {
			if sym, ok := child.(kicadsexp.Symbol); ok && sym == "locked" {
				t.Locked = true
				continue
			}
			t.Extra = append(t.Extra, child)
			continue
		}
		key, _ := sexp.GetNodeName(child)
		var err error
		switch key {
		case "start":
			t.Start, err = sexp.GetPositionXY(child)
			haveStart = true
		case "end":
			t.End, err = sexp.GetPositionXY(child)
			haveEnd = true
		case "mid":
			var mid Position
			if mid, err = sexp.GetPositionXY(child); err == nil {
				t.Mid = &mid
			}
		case "width":
			t.Width, err = sexp.GetFloat(child, 1)
		case "layer":
			t.Layer, err = sexp.GetString(child, 1)
		case "net":
			t.Net = parseNetRef(node, board)
		case "uuid", "tstamp":
			t.UUID, _ = sexp.GetUUID(node)
		case "locked":
			t.Locked = sexp.GetFlag(node, "locked")
		default:
			t.Extra = append(t.Extra, child)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", key, err)
		}
	}

	if !haveStart || !haveEnd {
		return nil, fmt.Errorf("missing required 'start' or 'end'")
	}
	if t.Net == nil {
		t.Net = board.FindNet(Unconnected)
	}
	if t.UUID == "" {
		t.UUID = NewUUID()
	}
	return t, nil
}

// parseVia extracts a via
// Expected format: (via [blind|micro] (at x y) (size s) (drill d) (layers "F.Cu" "B.Cu") [(free yes)] (net n) (uuid ..))
func parseVia(node kicadsexp.Sexp, board *Board) (*Via, error) {
	v := &Via{}
	var haveAt bool

	for _, child := range sexp.GetListItems(node) {
		if child.IsLeaf() {
			switch sym, _ := child.(kicadsexp.Symbol); sym {
			case "locked":
				v.Locked = true
			case "free":
				v.Free = true
			default:
				v.Extra = append(v.Extra, child)
			}
			continue
		}
		key, _ := sexp.GetNodeName(child)
		var err error
		switch key {
		case "at":
			v.At, err = sexp.GetPositionXY(child)
			v.end = v.At
			haveAt = true
		case "size":
			v.Size, err = sexp.GetFloat(child, 1)
		case "drill":
			v.Drill, err = sexp.GetFloat(child, 1)
		case "layers":
			v.Layers = sexp.GetLayers(child)
		case "net":
			v.Net = parseNetRef(node, board)
		case "uuid", "tstamp":
			v.UUID, _ = sexp.GetUUID(node)
		case "locked":
			v.Locked = sexp.GetFlag(node, "locked")
		case "free":
			v.Free = sexp.GetFlag(node, "free")
		default:
			v.Extra = append(v.Extra, child)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse via %s: %w", key, err)
		}
	}

	if !haveAt {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if v.Net == nil {
		v.Net = board.FindNet(Unconnected)
	}
	if v.UUID == "" {
		v.UUID = NewUUID()
	}
	return v, nil
}

// parseZone extracts a zone with its outline and fills.
// Expected format: (zone (net n) (net_name "x") (layer "F.Cu") (uuid ..) (polygon (pts ...)) (filled_polygon (layer "F.Cu") (pts ...)))
func parseZone(node kicadsexp.Sexp, board *Board) (*Zone, error) {
	z := &Zone{}

	for _, child := range sexp.GetListItems(node) {
		if child.IsLeaf() {
			z.Extra = append(z.Extra, child)
			continue
		}
		key, _ := sexp.GetNodeName(child)
		var err error
		switch key {
		case "net":
			z.Net = parseNetRef(node, board)
		case "net_name":
			// Derived from the net on write.
		case "layer", "layers":
			z.Layers = sexp.GetLayers(child)
		case "uuid", "tstamp":
			z.UUID, _ = sexp.GetUUID(node)
		case "name":
			z.Name, err = sexp.GetString(child, 1)
		case "polygon":
			if ptsNode, found := sexp.FindNode(child, "pts"); found {
				z.Outline, err = sexp.GetPoints(ptsNode)
			}
		case "filled_polygon":
			var fill ZoneFill
			if layerNode, found := sexp.FindNode(child, "layer"); found {
				fill.Layer, _ = sexp.GetString(layerNode, 1)
			}
			if ptsNode, found := sexp.FindNode(child, "pts"); found {
				fill.Points, err = sexp.GetPoints(ptsNode)
			}
			z.Fills = append(z.Fills, fill)
		default:
			z.Extra = append(z.Extra, child)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse zone %s: %w", key, err)
		}
	}

	if z.Net == nil {
		z.Net = board.FindNet(Unconnected)
	}
	if z.UUID == "" {
		z.UUID = NewUUID()
	}
	return z, nil
}
