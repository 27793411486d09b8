package pcb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
)

// Shared types (aliases to sexp package)
type Position = sexp.Position
type Angle = sexp.Angle
type PositionAngle = sexp.PositionAngle
type Size = sexp.Size
type BoundingBox = sexp.BoundingBox
type UUID = sexp.UUID

// Unconnected is the net code KiCad reserves for "no net".
const Unconnected = 0

// ErrNoGeometry is returned for items that carry no coordinates to place.
var ErrNoGeometry = errors.New("item has no geometry")

// Layer represents a PCB layer
type Layer struct {
	Number int    // Layer number (ordinal)
	Name   string // Layer name (e.g., "F.Cu", "B.Cu", "F.SilkS")
	Type   string // Layer type (e.g., "signal", "user")
}

// IsCopper reports whether the layer carries copper.
func (l Layer) IsCopper() bool {
	return l.Type == "signal" || l.Type == "power" || l.Type == "mixed" || l.Type == "jumper"
}

// Net represents an electrical net. Codes are only meaningful within the
// board that declares them.
type Net struct {
	Code int
	Name string
}

// netCode returns the code of n, treating nil as unconnected.
func netCode(n *Net) int {
	if n == nil {
		return Unconnected
	}
	return n.Code
}

// Kind tags the closed set of board item categories.
type Kind int

const (
	KindFootprint Kind = iota
	KindTrack
	KindVia
	KindZone
	KindDrawing
)

// Kinds lists every item category.
var Kinds = []Kind{KindFootprint, KindTrack, KindVia, KindZone, KindDrawing}

func (k Kind) String() string {
	switch k {
	case KindFootprint:
		return "footprint"
	case KindTrack:
		return "track"
	case KindVia:
		return "via"
	case KindZone:
		return "zone"
	case KindDrawing:
		return "drawing"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Volatile reports whether items of this kind are regenerated on every
// replication run. Footprints are the only load-bearing kind.
func (k Kind) Volatile() bool {
	return k != KindFootprint
}

// Item is a board element. The set of implementations is closed: only the
// types in this package satisfy it.
type Item interface {
	Kind() Kind
	ID() UUID
	Position() Position
	ParentGroup() *Group

	setParentGroup(g *Group)
}

// Duplicate returns an independent copy of item with a fresh UUID and no
// group, ready to be added to any board.
func Duplicate(item Item) Item {
	switch it := item.(type) {
	case *Footprint:
		return it.Duplicate()
	case *Track:
		return it.Duplicate()
	case *Via:
		return it.Duplicate()
	case *Zone:
		return it.Duplicate()
	case *Drawing:
		return it.Duplicate()
	default:
		panic(fmt.Sprintf("pcb: unknown item type %T", item))
	}
}

// Describe returns a short human label for an item, used in diagnostics.
func Describe(item Item) string {
	switch it := item.(type) {
	case *Footprint:
		return fmt.Sprintf("footprint %s", it.Reference())
	case *Track:
		return fmt.Sprintf("track on %s at (%.3f, %.3f)", it.Layer, it.Start.X, it.Start.Y)
	case *Via:
		return fmt.Sprintf("via at (%.3f, %.3f)", it.At.X, it.At.Y)
	case *Zone:
		name := it.Name
		if name == "" {
			name = strings.Join(it.Layers, ",")
		}
		return fmt.Sprintf("zone %s", name)
	case *Drawing:
		return fmt.Sprintf("%s on %s", it.Shape, it.Layer)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", item)
	}
}

// NewUUID returns a fresh KiCad item identifier.
func NewUUID() UUID {
	return UUID(uuid.NewString())
}

// FlipLayer maps a front-side layer name to its back-side twin and vice versa.
// Inner, wildcard and non-sided layers are returned unchanged.
func FlipLayer(name string) string {
	switch {
	case strings.HasPrefix(name, "F."):
		return "B." + name[2:]
	case strings.HasPrefix(name, "B."):
		return "F." + name[2:]
	default:
		return name
	}
}

func flipLayers(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = FlipLayer(n)
	}
	return out
}
