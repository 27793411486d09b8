package replicate

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

var (
	// ErrAnchorNotFound is returned when an anchor footprint is missing.
	ErrAnchorNotFound = errors.New("anchor footprint not found")
	// ErrNoGroupName is returned when no target group name is given.
	ErrNoGroupName = errors.New("group name is required")
	// ErrSameInstance is returned when the target group already holds the
	// template anchor, so replicating would overwrite the template itself.
	ErrSameInstance = errors.New("target is the template instance")
	// ErrNoTemplateScope is returned when template and target share a board
	// but no template group limits what is copied.
	ErrNoTemplateScope = errors.New("template group is required when template and target share a board")
)

// Transformer maps template coordinates into the target frame.
type Transformer interface {
	Translate(p pcb.Position) pcb.Position
	Orient(a pcb.Angle) pcb.Angle
	Place(p, current pcb.Position) Placement
}

// Membership corrals items into the target group.
type Membership interface {
	Claim(item pcb.Item) (moved bool)
	Group() *pcb.Group
}

// Context is the unit of work for replicating one template instance onto
// one target instance.
type Context struct {
	Template  *pcb.Board
	Target    *pcb.Board
	Transform Transformer
	Members   Membership
	Sink      Sink

	// Scope limits which template items are copied. Nil copies everything.
	Scope func(pcb.Item) bool
	// Sheet and SubPCB label diagnostics.
	Sheet  string
	SubPCB string
}

// NewContext resolves the anchor pair and the target group. Nothing on the
// target board is touched unless both anchors resolve.
func NewContext(template, target *pcb.Board, anchorRef, targetAnchorRef, groupName string, sink Sink) (*Context, error) {
	if sink == nil {
		sink = Discard
	}
	if groupName == "" {
		sink.Report(ReportedError{Title: "No group name", Message: ErrNoGroupName.Error(), Severity: Error})
		return nil, ErrNoGroupName
	}

	tplAnchor, ok := template.FootprintByReference(anchorRef)
	if !ok {
		err := fmt.Errorf("%w: %q in template", ErrAnchorNotFound, anchorRef)
		sink.Report(ReportedError{Title: "Template anchor not found", Message: err.Error(), Severity: Error})
		return nil, err
	}
	tgtAnchor, ok := target.FootprintByReference(targetAnchorRef)
	if !ok {
		err := fmt.Errorf("%w: %q in target", ErrAnchorNotFound, targetAnchorRef)
		sink.Report(ReportedError{Title: "Target anchor not found", Message: err.Error(), Severity: Error})
		return nil, err
	}
	if tplAnchor == tgtAnchor {
		err := fmt.Errorf("%w: anchor %s is shared", ErrSameInstance, anchorRef)
		sink.Report(ReportedError{Title: "Target is the template instance", Message: err.Error(), Severity: Error, Item: tgtAnchor})
		return nil, err
	}
	if g := tplAnchor.ParentGroup(); template == target && g != nil && g.Name == groupName {
		err := fmt.Errorf("%w: group %q holds %s", ErrSameInstance, groupName, anchorRef)
		sink.Report(ReportedError{Title: "Target is the template instance", Message: err.Error(), Severity: Error, Item: tplAnchor})
		return nil, err
	}

	return &Context{
		Template:  template,
		Target:    target,
		Transform: NewRigidTransform(tplAnchor, tgtAnchor),
		Members:   NewGroupEnforcer(target, groupName, sink),
		Sink:      sink,
	}, nil
}

// InScope reports whether a template item takes part in the run.
func (c *Context) InScope(item pcb.Item) bool {
	return c.Scope == nil || c.Scope(item)
}

// report labels e with the context and forwards it to the sink.
func (c *Context) report(e ReportedError) {
	if e.Sheet == "" {
		e.Sheet = c.Sheet
	}
	if e.SubPCB == "" {
		e.SubPCB = c.SubPCB
	}
	c.Sink.Report(e)
}

// labelled wraps the context sink so diagnostics from helpers carry the
// sheet and sub-PCB labels too.
func (c *Context) labelled() Sink {
	return SinkFunc(c.report)
}

// InGroup returns a Scope that keeps items belonging to a group called name.
func InGroup(name string) func(pcb.Item) bool {
	return func(it pcb.Item) bool {
		g := it.ParentGroup()
		return g != nil && g.Name == name
	}
}
