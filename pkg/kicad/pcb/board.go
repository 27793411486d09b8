package pcb

import (
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// DefaultVersion is the file format version written for boards created in memory.
const DefaultVersion = 20221018

// Board represents a complete KiCad PCB
type Board struct {
	Version   int     // File format version
	Generator string  // Generator info (e.g., "pcbnew")
	General   General // General board properties
	Layers    []Layer // Layer definitions

	Nets       []*Net       // Electrical nets, net 0 first
	Footprints []*Footprint // Component footprints
	Tracks     []TrackItem  // Track segments, arcs and vias in file order
	Zones      []*Zone      // Copper and keepout zones
	Drawings   []*Drawing   // Board-level graphics
	Groups     []*Group     // Named groups

	// extra holds top-level nodes that are not modelled (setup, layers,
	// title_block, dimensions...). They are written back verbatim.
	extra []kicadsexp.Sexp
}

// General contains general board properties
type General struct {
	Thickness float64 // Board thickness in mm
	Title     string  // Board title
	Date      string  // Design date
	Revision  string  // Board revision
	Company   string  // Company name
}

// NewBoard returns an empty board holding only the unconnected net.
func NewBoard() *Board {
	return &Board{
		Version:   DefaultVersion,
		Generator: "pcbnew",
		Nets:      []*Net{{Code: Unconnected}},
	}
}

// NetByCode returns the net declared with code.
func (b *Board) NetByCode(code int) (*Net, bool) {
	for _, n := range b.Nets {
		if n.Code == code {
			return n, true
		}
	}
	return nil, false
}

// FindNet returns the net with the given code, falling back to the
// unconnected net when the code is not declared on this board.
func (b *Board) FindNet(code int) *Net {
	if n, ok := b.NetByCode(code); ok {
		return n
	}
	return b.unconnected()
}

func (b *Board) unconnected() *Net {
	if n, ok := b.NetByCode(Unconnected); ok {
		return n
	}
	n := &Net{Code: Unconnected}
	b.Nets = append([]*Net{n}, b.Nets...)
	return n
}

// GetNet returns a net by name, or nil if not found
func (b *Board) GetNet(name string) *Net {
	for _, n := range b.Nets {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// AddNet returns the net called name, declaring it with the next free code
// when it does not exist yet.
func (b *Board) AddNet(name string) *Net {
	if n := b.GetNet(name); n != nil {
		return n
	}
	next := Unconnected
	for _, n := range b.Nets {
		if n.Code > next {
			next = n.Code
		}
	}
	n := &Net{Code: next + 1, Name: name}
	b.Nets = append(b.Nets, n)
	return n
}

// Add places item on the board. Items already on the board are not added twice.
func (b *Board) Add(item Item) {
	if b.Contains(item) {
		return
	}
	switch it := item.(type) {
	case *Footprint:
		b.Footprints = append(b.Footprints, it)
	case *Track:
		b.Tracks = append(b.Tracks, it)
	case *Via:
		b.Tracks = append(b.Tracks, it)
	case *Zone:
		b.Zones = append(b.Zones, it)
	case *Drawing:
		b.Drawings = append(b.Drawings, it)
	}
}

// Remove deletes item from the board and from its group. It reports whether
// the item was present.
func (b *Board) Remove(item Item) bool {
	var found bool
	switch it := item.(type) {
	case *Footprint:
		b.Footprints, found = removeItem(b.Footprints, it)
	case *Track, *Via:
		b.Tracks, found = removeItem(b.Tracks, it.(TrackItem))
	case *Zone:
		b.Zones, found = removeItem(b.Zones, it)
	case *Drawing:
		b.Drawings, found = removeItem(b.Drawings, it)
	}
	if g := item.ParentGroup(); g != nil {
		g.Remove(item)
	}
	return found
}

func removeItem[T comparable](items []T, item T) ([]T, bool) {
	for i, it := range items {
		if it == item {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

// Contains reports whether item is on the board.
func (b *Board) Contains(item Item) bool {
	for _, it := range b.Items() {
		if it == item {
			return true
		}
	}
	return false
}

// Items returns every modelled item on the board.
func (b *Board) Items() []Item {
	items := make([]Item, 0, len(b.Footprints)+len(b.Tracks)+len(b.Zones)+len(b.Drawings))
	for _, fp := range b.Footprints {
		items = append(items, fp)
	}
	for _, d := range b.Drawings {
		items = append(items, d)
	}
	for _, t := range b.Tracks {
		items = append(items, t)
	}
	for _, z := range b.Zones {
		items = append(items, z)
	}
	return items
}

// ItemByID looks up a modelled item by UUID.
func (b *Board) ItemByID(id UUID) (Item, bool) {
	for _, it := range b.Items() {
		if it.ID() == id {
			return it, true
		}
	}
	return nil, false
}

// FootprintByReference returns the first footprint with the given reference designator.
func (b *Board) FootprintByReference(ref string) (*Footprint, bool) {
	for _, fp := range b.Footprints {
		if fp.Reference() == ref {
			return fp, true
		}
	}
	return nil, false
}

// AddGroup registers g on the board.
func (b *Board) AddGroup(g *Group) {
	for _, existing := range b.Groups {
		if existing == g {
			return
		}
	}
	b.Groups = append(b.Groups, g)
}

// GroupsNamed returns every group called name, in file order.
func (b *Board) GroupsNamed(name string) []*Group {
	var out []*Group
	for _, g := range b.Groups {
		if g.Name == name {
			out = append(out, g)
		}
	}
	return out
}

// NetInfo contains information about a net and its connections
type NetInfo struct {
	Net    *Net
	Pads   []*Pad
	Tracks []TrackItem
	Zones  []*Zone
}

// GetNetInfo returns complete information about a net
func (b *Board) GetNetInfo(netName string) *NetInfo {
	net := b.GetNet(netName)
	if net == nil {
		return nil
	}

	info := &NetInfo{Net: net}
	for _, fp := range b.Footprints {
		for _, pad := range fp.Pads {
			if pad.Net == net {
				info.Pads = append(info.Pads, pad)
			}
		}
	}
	for _, t := range b.Tracks {
		if t.NetCode() == net.Code {
			info.Tracks = append(info.Tracks, t)
		}
	}
	for _, z := range b.Zones {
		if netCode(z.Net) == net.Code {
			info.Zones = append(info.Zones, z)
		}
	}
	return info
}
