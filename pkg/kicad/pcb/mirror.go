package pcb

import (
	"strconv"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp"
	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

// mirrorNode mirrors unmodelled footprint-local geometry about the X axis,
// the raw-node counterpart of Footprint.Flip.
func mirrorNode(s kicadsexp.Sexp) {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return
	}
	name, _ := sexp.GetNodeName(l)
	switch name {
	case "model":
		return
	case "effects":
		toggleMirror(l)
		return
	case "start", "end", "center", "mid", "xy":
		negateAt(l, 2)
		return
	case "at":
		negateAt(l, 2)
		negateAt(l, 3)
		return
	case "layer", "layers":
		for i := 1; i < l.Len(); i++ {
			switch v := l.Get(i).(type) {
			case kicadsexp.Quoted:
				l.Set(i, kicadsexp.Quoted(FlipLayer(string(v))))
			case kicadsexp.Symbol:
				l.Set(i, kicadsexp.Symbol(FlipLayer(string(v))))
			}
		}
		return
	}
	for _, child := range l.Elements() {
		mirrorNode(child)
	}
}

func negateAt(l *kicadsexp.List, i int) {
	sym, ok := l.Get(i).(kicadsexp.Symbol)
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(string(sym), 64)
	if err != nil {
		return
	}
	l.Set(i, kicadsexp.Float(-v))
}

// toggleMirror flips the "mirror" justification of an (effects ...) node.
func toggleMirror(s kicadsexp.Sexp) {
	l, ok := s.(*kicadsexp.List)
	if !ok {
		return
	}
	if name, _ := sexp.GetNodeName(l); name != "effects" {
		return
	}
	for i, child := range l.Elements() {
		if name, _ := sexp.GetNodeName(child); name != "justify" || child.IsLeaf() {
			continue
		}
		justify := kicadsexp.NewList()
		mirrored := false
		for _, e := range sexp.Items(child) {
			if sym, ok := e.(kicadsexp.Symbol); ok && sym == "mirror" {
				mirrored = true
				continue
			}
			justify.Append(e)
		}
		if !mirrored {
			justify.Append(kicadsexp.Symbol("mirror"))
		}
		if justify.Len() == 1 {
			// (justify) with nothing left: drop the node entirely.
			rest := append([]kicadsexp.Sexp(nil), l.Elements()[:i]...)
			rest = append(rest, l.Elements()[i+1:]...)
			*l = *kicadsexp.NewList(rest...)
			return
		}
		l.Set(i, justify)
		return
	}
	l.Append(kicadsexp.Node("justify", kicadsexp.Symbol("mirror")))
}
