package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// S-expression navigation helpers

// Atom returns the text of a leaf, quoted or not.
func Atom(s kicadsexp.Sexp) (string, bool) {
	switch v := s.(type) {
	case kicadsexp.Symbol:
		return string(v), true
	case kicadsexp.Quoted:
		return string(v), true
	}
	return "", false
}

// Items returns the elements of a list, or nil for a leaf.
func Items(s kicadsexp.Sexp) []kicadsexp.Sexp {
	if l, ok := s.(*kicadsexp.List); ok {
		return l.Elements()
	}
	return nil
}

// GetNodeName returns the first symbol of a list (the node type/name)
func GetNodeName(s kicadsexp.Sexp) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil node")
	}
	if s.IsLeaf() {
		if name, ok := Atom(s); ok {
			return name, nil
		}
		return "", fmt.Errorf("expected symbol leaf")
	}

	if sym, ok := s.Head().(kicadsexp.Symbol); ok {
		return string(sym), nil
	}
	return "", fmt.Errorf("expected symbol at head of list")
}

// FindNode searches for a child list with the given key (first symbol), or a
// bare flag symbol with that name.
// Example: FindNode(sexp, "at") finds (at 100 50) in a list
func FindNode(s kicadsexp.Sexp, key string) (kicadsexp.Sexp, bool) {
	for _, item := range Items(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok {
			if string(sym) == key {
				return item, true
			}
			continue
		}
		if name, err := GetNodeName(item); err == nil && !item.IsLeaf() && name == key {
			return item, true
		}
	}
	return nil, false
}

// FindAllNodes finds all child lists with the given key
func FindAllNodes(s kicadsexp.Sexp, key string) []kicadsexp.Sexp {
	var results []kicadsexp.Sexp
	for _, item := range Items(s) {
		if item.IsLeaf() {
			continue
		}
		if name, err := GetNodeName(item); err == nil && name == key {
			results = append(results, item)
		}
	}
	return results
}

// GetListItems returns all items in a list (excluding the first symbol/key)
// Example: GetListItems((layers "F.Cu" "B.Cu")) returns ["F.Cu", "B.Cu"]
func GetListItems(s kicadsexp.Sexp) []kicadsexp.Sexp {
	items := Items(s)
	if len(items) <= 1 {
		return nil
	}
	return items[1:]
}

// Typed value extraction helpers

// GetString extracts an atom at the given index in a list.
// Index 0 is the key, 1 is first value, etc.
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	if s == nil || s.IsLeaf() {
		return "", fmt.Errorf("expected list, got leaf")
	}

	items := Items(s)
	if index < 0 || index >= len(items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(items))
	}

	if v, ok := Atom(items[index]); ok {
		return v, nil
	}
	return "", fmt.Errorf("expected atom at index %d, got %T", index, items[index])
}

// GetFloat extracts a float64 value at the given index
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}
	return val, nil
}

// GetInt extracts an int value at the given index
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", str, err)
	}
	return val, nil
}

// Domain-specific extraction helpers

// GetPosition extracts a PositionAngle from an (at X Y [angle]) node.
// KiCad 6+ writes millimetres and degrees, so no unit conversion happens.
func GetPosition(s kicadsexp.Sexp) (PositionAngle, error) {
	if s == nil || s.IsLeaf() {
		return PositionAngle{}, fmt.Errorf("expected (at X Y [angle]) list")
	}

	pos, err := GetPositionXY(s)
	if err != nil {
		return PositionAngle{}, err
	}

	result := PositionAngle{Position: pos}
	if angle, err := GetFloat(s, 3); err == nil {
		result.Angle = Angle(angle)
	}
	return result, nil
}

// GetPositionXY extracts just X,Y coordinates (no angle)
// Used for (start X Y), (end X Y), (center X Y), (xy X Y), etc.
func GetPositionXY(s kicadsexp.Sexp) (Position, error) {
	if s == nil || s.IsLeaf() {
		return Position{}, fmt.Errorf("expected position list")
	}

	x, err := GetFloat(s, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X: %w", err)
	}
	y, err := GetFloat(s, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y: %w", err)
	}
	return Position{X: x, Y: y}, nil
}

// GetPoints extracts the (xy X Y) vertices of a (pts ...) node.
func GetPoints(s kicadsexp.Sexp) ([]Position, error) {
	var points []Position
	for _, xy := range FindAllNodes(s, "xy") {
		p, err := GetPositionXY(xy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse vertex: %w", err)
		}
		points = append(points, p)
	}
	return points, nil
}

// GetUUID extracts a UUID from a node's (uuid "...") or legacy (tstamp ...) child.
func GetUUID(s kicadsexp.Sexp) (UUID, bool) {
	for _, key := range []string{"uuid", "tstamp"} {
		if node, ok := FindNode(s, key); ok && !node.IsLeaf() {
			if v, err := GetString(node, 1); err == nil {
				return UUID(v), true
			}
		}
	}
	return "", false
}

// GetLayers extracts layer names from (layer "F.Cu") or (layers "F.Cu" "B.Cu").
func GetLayers(s kicadsexp.Sexp) []string {
	var layers []string
	for _, item := range GetListItems(s) {
		if name, ok := Atom(item); ok {
			layers = append(layers, name)
		}
	}
	return layers
}

// HasSymbol checks if a list contains a specific bare symbol
func HasSymbol(s kicadsexp.Sexp, symbol string) bool {
	for _, item := range Items(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == symbol {
			return true
		}
	}
	return false
}

// GetFlag reads KiCad's two boolean spellings: a bare "locked" symbol or a
// (locked yes|no) node.
func GetFlag(s kicadsexp.Sexp, name string) bool {
	node, ok := FindNode(s, name)
	if !ok {
		return false
	}
	if node.IsLeaf() {
		return true
	}
	v, err := GetString(node, 1)
	return err != nil || v == "yes"
}

// XY builds a (key X Y) node.
func XY(key string, p Position) *kicadsexp.List {
	return kicadsexp.Node(key, kicadsexp.Float(p.X), kicadsexp.Float(p.Y))
}

// At builds an (at X Y [angle]) node, omitting a zero angle.
func At(pa PositionAngle) *kicadsexp.List {
	n := XY("at", pa.Position)
	if pa.Angle != 0 {
		n.Append(kicadsexp.Float(float64(pa.Angle)))
	}
	return n
}
