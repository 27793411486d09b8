package pcb

// Group is a named set of board items. An item belongs to at most one group;
// adding it to a group removes it from the previous one.
type Group struct {
	UUID   UUID
	Name   string
	Locked bool

	members []Item
	// foreign holds member UUIDs of board objects this package does not model
	// (dimensions, targets, ...). They are written back untouched.
	foreign []UUID
}

// NewGroup creates an empty group with a fresh UUID.
func NewGroup(name string) *Group {
	return &Group{UUID: NewUUID(), Name: name}
}

// Items returns a snapshot of the group's members.
func (g *Group) Items() []Item {
	out := make([]Item, len(g.members))
	copy(out, g.members)
	return out
}

// Len returns the number of modelled members.
func (g *Group) Len() int {
	return len(g.members)
}

// Has reports whether item is a member of g.
func (g *Group) Has(item Item) bool {
	return item.ParentGroup() == g
}

// Add puts item into g, first removing it from any other group. It reports
// whether the membership changed.
func (g *Group) Add(item Item) bool {
	prev := item.ParentGroup()
	if prev == g {
		return false
	}
	if prev != nil {
		prev.Remove(item)
	}
	g.members = append(g.members, item)
	item.setParentGroup(g)
	return true
}

// Remove takes item out of g. It reports whether item was a member.
func (g *Group) Remove(item Item) bool {
	for i, m := range g.members {
		if m == item {
			g.members = append(g.members[:i], g.members[i+1:]...)
			item.setParentGroup(nil)
			return true
		}
	}
	return false
}

// memberIDs lists every member UUID in a stable order, modelled items first.
func (g *Group) memberIDs() []UUID {
	ids := make([]UUID, 0, len(g.members)+len(g.foreign))
	for _, m := range g.members {
		ids = append(ids, m.ID())
	}
	return append(ids, g.foreign...)
}
