package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// parseFootprint extracts a footprint and everything it owns.
// Expected format: (footprint "lib:name" [locked] (layer "F.Cu") (uuid ..) (at x y [angle]) (property ...) (pad ...) ...)
func parseFootprint(node kicadsexp.Sexp, board *Board) (*Footprint, error) {
	if node.IsLeaf() {
		return nil, fmt.Errorf("expected footprint list, got leaf")
	}

	libID, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint library id: %w", err)
	}
	fp := &Footprint{LibID: libID, Layer: "F.Cu"}

	// Position first: field coordinates are stored relative to it.
	atNode, found := sexp.FindNode(node, "at")
	if !found || atNode.IsLeaf() {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if fp.At, err = sexp.GetPosition(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse footprint position: %w", err)
	}

	for _, child := range sexp.Items(node)[2:] {
		if child.IsLeaf() {
			if sym, ok := child.(kicadsexp.Symbol); ok && sym == "locked" {
				fp.Locked = true
				continue
			}
			fp.Extra = append(fp.Extra, child)
			continue
		}

		name, _ := sexp.GetNodeName(child)
		switch name {
		case "at":
		case "layer":
			if fp.Layer, err = sexp.GetString(child, 1); err != nil {
				return nil, fmt.Errorf("failed to parse footprint layer: %w", err)
			}
		case "uuid", "tstamp":
			fp.UUID, _ = sexp.GetUUID(node)
		case "path":
			fp.Path, _ = sexp.GetString(child, 1)
		case "locked":
			fp.Locked = sexp.GetFlag(node, "locked")
		case "clearance":
			fp.LocalClearance, err = floatRef(child)
		case "solder_mask_margin":
			fp.SolderMaskMargin, err = floatRef(child)
		case "solder_paste_margin":
			fp.SolderPasteMargin, err = floatRef(child)
		case "solder_paste_ratio", "solder_paste_margin_ratio":
			fp.SolderPasteRatio, err = floatRef(child)
		case "zone_connect":
			var v int
			if v, err = sexp.GetInt(child, 1); err == nil {
				fp.ZoneConnect = &v
			}
		case "property":
			if _, placed := sexp.FindNode(child, "at"); !placed {
				// Non-graphical properties (Sheetfile, ki_description...) stay raw.
				fp.Extra = append(fp.Extra, child)
				continue
			}
			f, perr := parseField(child, fp.At, false)
			if perr != nil {
				return nil, fmt.Errorf("failed to parse property: %w", perr)
			}
			fp.Fields = append(fp.Fields, f)
		case "fp_text":
			kind, _ := sexp.GetString(child, 1)
			if kind != "reference" && kind != "value" {
				fp.Extra = append(fp.Extra, child)
				continue
			}
			f, perr := parseField(child, fp.At, true)
			if perr != nil {
				return nil, fmt.Errorf("failed to parse fp_text: %w", perr)
			}
			fp.Fields = append(fp.Fields, f)
		case "pad":
			pad, perr := parsePad(child, board)
			if perr != nil {
				return nil, fmt.Errorf("failed to parse pad: %w", perr)
			}
			fp.Pads = append(fp.Pads, pad)
		default:
			fp.Extra = append(fp.Extra, child)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}

	if fp.UUID == "" {
		fp.UUID = NewUUID()
	}
	return fp, nil
}

func floatRef(node kicadsexp.Sexp) (*float64, error) {
	v, err := sexp.GetFloat(node, 1)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseField reads a (property "Name" "text" ...) or legacy
// (fp_text reference "text" ...) node. The footprint-relative position is
// converted to board coordinates.
func parseField(node kicadsexp.Sexp, parent PositionAngle, legacy bool) (*Field, error) {
	name, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse field name: %w", err)
	}
	text, err := sexp.GetString(node, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse field text: %w", err)
	}
	if legacy {
		switch name {
		case "reference":
			name = FieldReference
		case "value":
			name = FieldValue
		}
	}

	f := &Field{Name: name, Text: text, Legacy: legacy}
	for _, child := range sexp.Items(node)[3:] {
		if child.IsLeaf() {
			if sym, ok := child.(kicadsexp.Symbol); ok && sym == "hide" {
				f.Hidden = true
				continue
			}
			f.Extra = append(f.Extra, child)
			continue
		}
		key, _ := sexp.GetNodeName(child)
		switch key {
		case "at":
			local, err := sexp.GetPosition(child)
			if err != nil {
				return nil, fmt.Errorf("failed to parse field position: %w", err)
			}
			f.At = PositionAngle{
				Position: parent.Position.Add(sexp.RotatePoint(local.Position, Position{}, parent.Angle)),
				Angle:    local.Angle,
			}
		case "layer":
			f.Layer, _ = sexp.GetString(child, 1)
		case "uuid", "tstamp":
			f.UUID, _ = sexp.GetUUID(node)
		case "hide":
			f.Hidden = sexp.GetFlag(node, "hide")
			f.hideNode = true
		default:
			f.Extra = append(f.Extra, child)
		}
	}
	if f.UUID == "" {
		f.UUID = NewUUID()
	}
	return f, nil
}

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (layers ...) (net n "name") ...)
func parsePad(node kicadsexp.Sexp, board *Board) (*Pad, error) {
	if node.IsLeaf() {
		return nil, fmt.Errorf("expected pad list, got leaf")
	}

	number, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad number: %w", err)
	}
	padType, err := sexp.GetString(node, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad type: %w", err)
	}
	shape, err := sexp.GetString(node, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad shape: %w", err)
	}

	pad := &Pad{Number: number, Type: padType, Shape: shape}

	atNode, found := sexp.FindNode(node, "at")
	if !found || atNode.IsLeaf() {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if pad.At, err = sexp.GetPosition(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse pad position: %w", err)
	}

	for _, child := range sexp.Items(node)[4:] {
		if child.IsLeaf() {
			pad.Extra = append(pad.Extra, child)
			continue
		}
		key, _ := sexp.GetNodeName(child)
		switch key {
		case "at":
		case "size":
			w, err := sexp.GetFloat(child, 1)
			if err != nil {
				return nil, fmt.Errorf("failed to parse pad width: %w", err)
			}
			h, err := sexp.GetFloat(child, 2)
			if err != nil {
				return nil, fmt.Errorf("failed to parse pad height: %w", err)
			}
			pad.Size = Size{Width: w, Height: h}
		case "layers":
			pad.Layers = sexp.GetLayers(child)
		case "net":
			pad.Net = parseNetRef(node, board)
		case "uuid", "tstamp":
			pad.UUID, _ = sexp.GetUUID(node)
		default:
			pad.Extra = append(pad.Extra, child)
		}
	}

	if pad.Net == nil {
		pad.Net = board.FindNet(Unconnected)
	}
	if pad.UUID == "" {
		pad.UUID = NewUUID()
	}
	return pad, nil
}
