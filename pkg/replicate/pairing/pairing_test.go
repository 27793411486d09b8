package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

func loadBoards(t *testing.T) (tpl, tgt *pcb.Board) {
	t.Helper()
	tpl, err := pcb.ParseFile("../../../testdata/boards/amp.kicad_pcb")
	require.NoError(t, err)
	tgt, err = pcb.ParseFile("../../../testdata/boards/main.kicad_pcb")
	require.NoError(t, err)
	return tpl, tgt
}

func footprint(t *testing.T, b *pcb.Board, ref string) *pcb.Footprint {
	t.Helper()
	fp, ok := b.FootprintByReference(ref)
	require.True(t, ok, "footprint %s", ref)
	return fp
}

func TestRenames(t *testing.T) {
	tests := []struct {
		name   string
		rename Rename
		in     string
		want   string
	}{
		{"identity", Identity, "R1", "R1"},
		{"offset", Offset(100), "R1", "R101"},
		{"offset keeps suffix", Offset(10), "U3A", "U13A"},
		{"offset without number", Offset(100), "LOGO", "LOGO"},
		{"affix", Affix("CH1_", "_A"), "R1", "CH1_R1_A"},
		{"chain", Chain(Offset(200), Affix("", "B")), "C1", "C201B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rename(tt.in))
		})
	}
}

func TestByReference(t *testing.T) {
	tpl, tgt := loadBoards(t)
	r1, c1 := footprint(t, tpl, "R1"), footprint(t, tpl, "C1")

	pair := ByReference(tgt, Offset(100))
	got, ok := pair(r1)
	require.True(t, ok)
	assert.Equal(t, "R101", got.Reference())

	pair = ByReference(tgt, Offset(200))
	got, ok = pair(c1)
	require.True(t, ok)
	assert.Equal(t, "C201", got.Reference())

	_, ok = ByReference(tgt, nil)(r1)
	assert.False(t, ok, "main board has no R1")
}

func TestExplicit(t *testing.T) {
	tpl, tgt := loadBoards(t)
	pair := Explicit(tgt, map[string]string{"R1": "R201", "C1": "C999"})

	got, ok := pair(footprint(t, tpl, "R1"))
	require.True(t, ok)
	assert.Equal(t, "R201", got.Reference())

	_, ok = pair(footprint(t, tpl, "C1"))
	assert.False(t, ok, "mapped reference missing from the target")

	_, ok = Explicit(tgt, nil)(footprint(t, tpl, "R1"))
	assert.False(t, ok)
}

func TestBySheetSuffix(t *testing.T) {
	tpl, tgt := loadBoards(t)
	tests := []struct {
		sheet string
		refs  map[string]string
	}{
		{"/5e110000-0000-0000-0000-000000000001", map[string]string{"R1": "R101", "C1": "C101"}},
		{"/5e110000-0000-0000-0000-000000000002/", map[string]string{"R1": "R201", "C1": "C201"}},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			pair := BySheetSuffix(tgt, tt.sheet)
			for from, want := range tt.refs {
				got, ok := pair(footprint(t, tpl, from))
				require.True(t, ok, from)
				assert.Equal(t, want, got.Reference())
			}
		})
	}

	_, ok := BySheetSuffix(tgt, "/unknown")(footprint(t, tpl, "R1"))
	assert.False(t, ok)

	noPath := &pcb.Footprint{Layer: "F.Cu"}
	_, ok = BySheetSuffix(tgt, "/5e110000-0000-0000-0000-000000000001")(noPath)
	assert.False(t, ok)
}

func TestSheetPrefix(t *testing.T) {
	tpl, tgt := loadBoards(t)

	sheet, err := SheetPrefix(footprint(t, tpl, "R1"), footprint(t, tgt, "R201"))
	require.NoError(t, err)
	assert.Equal(t, "/5e110000-0000-0000-0000-000000000002", sheet)

	_, err = SheetPrefix(footprint(t, tpl, "R1"), footprint(t, tgt, "C101"))
	assert.Error(t, err)

	_, err = SheetPrefix(footprint(t, tpl, "R1"), footprint(t, tpl, "R1"))
	assert.Error(t, err, "a footprint is not an instance of itself")
}
