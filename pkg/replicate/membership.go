package replicate

import (
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

// GroupEnforcer keeps items in one named group on a board.
type GroupEnforcer struct {
	board *pcb.Board
	group *pcb.Group
}

// NewGroupEnforcer finds the group called name on board, creating and
// registering it when absent. When several groups share the name the first
// one is used and a warning is reported.
func NewGroupEnforcer(board *pcb.Board, name string, sink Sink) *GroupEnforcer {
	if sink == nil {
		sink = Discard
	}
	var group *pcb.Group
	switch groups := board.GroupsNamed(name); len(groups) {
	case 0:
		group = pcb.NewGroup(name)
		board.AddGroup(group)
	case 1:
		group = groups[0]
	default:
		group = groups[0]
		sink.Report(ReportedError{
			Title:    "Duplicate group name",
			Message:  fmt.Sprintf("%d groups are named %q, using the first", len(groups), name),
			Severity: Warning,
		})
	}
	return &GroupEnforcer{board: board, group: group}
}

// Group returns the enforced group.
func (m *GroupEnforcer) Group() *pcb.Group {
	return m.group
}

// Claim puts item into the group. It reports whether the item had to be
// taken out of a differently named group first.
func (m *GroupEnforcer) Claim(item pcb.Item) (moved bool) {
	prev := item.ParentGroup()
	if prev == m.group {
		return false
	}
	moved = prev != nil && prev.Name != m.group.Name
	m.group.Add(item)
	return moved
}
