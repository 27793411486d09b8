// Package pairing provides the footprint pairing functions used to match
// template footprints with their counterparts in a target instance.
package pairing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
	"github.com/OpenTraceLab/hierpcb/pkg/replicate"
)

// Rename maps a template reference designator to a target one.
type Rename func(ref string) string

// Identity keeps the reference unchanged.
func Identity(ref string) string { return ref }

var refPattern = regexp.MustCompile(`^([^0-9]*)([0-9]+)(.*)$`)

// Offset adds n to the number of a reference: Offset(100) maps R1 to R101.
// References without a number are returned unchanged.
func Offset(n int) Rename {
	return func(ref string) string {
		m := refPattern.FindStringSubmatch(ref)
		if m == nil {
			return ref
		}
		num, err := strconv.Atoi(m[2])
		if err != nil {
			return ref
		}
		return m[1] + strconv.Itoa(num+n) + m[3]
	}
}

// Affix wraps a reference with a prefix and a suffix.
func Affix(prefix, suffix string) Rename {
	return func(ref string) string {
		return prefix + ref + suffix
	}
}

// Chain applies renames from left to right.
func Chain(renames ...Rename) Rename {
	return func(ref string) string {
		for _, r := range renames {
			ref = r(ref)
		}
		return ref
	}
}

// ByReference pairs footprints whose renamed template reference equals the
// target reference. A nil rename keeps references unchanged.
func ByReference(target *pcb.Board, rename Rename) replicate.Pairing {
	if rename == nil {
		rename = Identity
	}
	index := referenceIndex(target)
	return func(tpl *pcb.Footprint) (*pcb.Footprint, bool) {
		fp, ok := index[rename(tpl.Reference())]
		return fp, ok
	}
}

// Explicit pairs footprints through a template-to-target reference map.
// Template references missing from refs are left unpaired.
func Explicit(target *pcb.Board, refs map[string]string) replicate.Pairing {
	index := referenceIndex(target)
	return func(tpl *pcb.Footprint) (*pcb.Footprint, bool) {
		ref, ok := refs[tpl.Reference()]
		if !ok {
			return nil, false
		}
		fp, ok := index[ref]
		return fp, ok
	}
}

// BySheetSuffix pairs a template footprint with the target footprint whose
// schematic path is sheet followed by the template path. This is how KiCad
// lays out hierarchical sheets: each instance of a sheet prefixes the paths
// of its symbols with its own sheet UUID.
func BySheetSuffix(target *pcb.Board, sheet string) replicate.Pairing {
	sheet = strings.TrimSuffix(sheet, "/")
	index := make(map[string]*pcb.Footprint, len(target.Footprints))
	for _, fp := range target.Footprints {
		if fp.Path != "" && strings.HasPrefix(fp.Path, sheet+"/") {
			index[fp.Path] = fp
		}
	}
	return func(tpl *pcb.Footprint) (*pcb.Footprint, bool) {
		if tpl.Path == "" {
			return nil, false
		}
		fp, ok := index[sheet+tpl.Path]
		return fp, ok
	}
}

// SheetPrefix returns the sheet path under which tgt instantiates tpl, so
// that BySheetSuffix can be derived from an anchor pair.
func SheetPrefix(tpl, tgt *pcb.Footprint) (string, error) {
	if tpl.Path == "" || tgt.Path == "" {
		return "", fmt.Errorf("%s or %s has no schematic path", tpl.Reference(), tgt.Reference())
	}
	if !strings.HasSuffix(tgt.Path, tpl.Path) || len(tgt.Path) == len(tpl.Path) {
		return "", fmt.Errorf("path %s of %s is not an instance of %s", tgt.Path, tgt.Reference(), tpl.Path)
	}
	return strings.TrimSuffix(tgt.Path, tpl.Path), nil
}

func referenceIndex(b *pcb.Board) map[string]*pcb.Footprint {
	index := make(map[string]*pcb.Footprint, len(b.Footprints))
	for _, fp := range b.Footprints {
		if ref := fp.Reference(); ref != "" {
			if _, dup := index[ref]; !dup {
				index[ref] = fp
			}
		}
	}
	return index
}
