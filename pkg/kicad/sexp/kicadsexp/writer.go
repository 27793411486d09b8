package kicadsexp

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// inlineWidth is the longest list printed on a single line.
const inlineWidth = 100

// Format writes s to w using the KiCad layout: short lists stay on one
// line, lists containing nested structure put each child on its own
// tab-indented line.
func Format(w io.Writer, s Sexp) error {
	bw := bufio.NewWriter(w)
	writeNode(bw, s, 0)
	bw.WriteByte('\n')
	return bw.Flush()
}

// FormatString is Format into a string.
func FormatString(s Sexp) string {
	var b strings.Builder
	_ = Format(&b, s)
	return b.String()
}

func writeNode(w *bufio.Writer, s Sexp, depth int) {
	l, ok := s.(*List)
	if !ok || inline(l) {
		w.WriteString(s.String())
		return
	}

	w.WriteByte('(')
	for i, e := range l.elements {
		// Leading atoms stay on the opening line: (footprint "R_0603" ...
		if _, isList := e.(*List); !isList && leadingAtoms(l, i) {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(e.String())
			continue
		}
		w.WriteByte('\n')
		w.WriteString(strings.Repeat("\t", depth+1))
		writeNode(w, e, depth+1)
	}
	w.WriteByte('\n')
	w.WriteString(strings.Repeat("\t", depth))
	w.WriteByte(')')
}

// inline reports whether l fits on one line: no grandchildren lists and a
// short rendering.
func inline(l *List) bool {
	for _, e := range l.elements {
		child, ok := e.(*List)
		if !ok {
			continue
		}
		for _, g := range child.elements {
			if _, nested := g.(*List); nested {
				return false
			}
		}
	}
	return len(l.String()) <= inlineWidth
}

func leadingAtoms(l *List, upto int) bool {
	for i := 0; i <= upto; i++ {
		if _, isList := l.elements[i].(*List); isList {
			return false
		}
	}
	return true
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Float renders a millimetre or degree value the way KiCad does: no
// exponent, no trailing zeros.
func Float(v float64) Symbol {
	if v == 0 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return Symbol(s)
}

// Int renders an integer atom.
func Int(v int) Symbol {
	return Symbol(strconv.Itoa(v))
}
