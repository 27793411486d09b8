package replicate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

// Pairing resolves the target footprint matching a template footprint.
// It must be stable for the duration of a run.
type Pairing func(template *pcb.Footprint) (*pcb.Footprint, bool)

// NetMapping maps template net codes to target net codes.
type NetMapping map[int]int

// Lookup returns the target code for a template net, or pcb.Unconnected.
func (m NetMapping) Lookup(code int) int {
	if tgt, ok := m[code]; ok {
		return tgt
	}
	return pcb.Unconnected
}

// Codes returns the mapped template codes in ascending order.
func (m NetMapping) Codes() []int {
	return slices.Sorted(maps.Keys(m))
}

// NetCorrespondence builds a NetMapping from pairs of footprints. Pads are
// matched by their index in each footprint's pad list.
type NetCorrespondence struct {
	mapping NetMapping
	sink    Sink
}

// NewNetCorrespondence returns an empty builder reporting to sink.
func NewNetCorrespondence(sink Sink) *NetCorrespondence {
	if sink == nil {
		sink = Discard
	}
	return &NetCorrespondence{mapping: NetMapping{}, sink: sink}
}

// Record adds the pad correspondence of one footprint pair. Unconnected
// template pads are not recorded. Pad lists of different length are
// matched up to the shorter one and reported as a warning.
func (nc *NetCorrespondence) Record(tpl, tgt *pcb.Footprint) {
	n := min(len(tpl.Pads), len(tgt.Pads))
	if len(tpl.Pads) != len(tgt.Pads) {
		nc.sink.Report(ReportedError{
			Title: "Pad count mismatch",
			Message: fmt.Sprintf("template %s has %d pads, target has %d; mapping the first %d",
				tpl.Reference(), len(tpl.Pads), len(tgt.Pads), n),
			Severity: Warning,
			Item:     tgt,
		})
	}

	for i := 0; i < n; i++ {
		from, to := tpl.Pads[i].NetCode(), tgt.Pads[i].NetCode()
		if from == pcb.Unconnected {
			continue
		}
		if prev, ok := nc.mapping[from]; ok && prev != to {
			nc.sink.Report(ReportedError{
				Title: "Conflicting net mapping",
				Message: fmt.Sprintf("template net %d maps to both %d and %d (pad %s)",
					from, prev, to, tgt.Pads[i].Number),
				Severity: Warning,
				Item:     tgt,
			})
		}
		nc.mapping[from] = to
	}
}

// Build records every template footprint that pair resolves to a non-nil
// target.
func (nc *NetCorrespondence) Build(templates []*pcb.Footprint, pair Pairing) NetMapping {
	for _, tpl := range templates {
		if tgt, ok := pair(tpl); ok && tgt != nil {
			nc.Record(tpl, tgt)
		}
	}
	return nc.Mapping()
}

// Mapping returns a copy of the mapping built so far.
func (nc *NetCorrespondence) Mapping() NetMapping {
	return maps.Clone(nc.mapping)
}
