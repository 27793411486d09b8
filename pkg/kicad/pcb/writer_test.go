package pcb

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func reparse(t *testing.T, b *Board) (*Board, string) {
	t.Helper()
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	again, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse of written board failed: %v\n%s", err, out)
	}
	return again, out
}

func TestWriteRoundTrip(t *testing.T) {
	for _, path := range []string{ampBoard, mainBoard} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			orig, err := ParseFile(path)
			if err != nil {
				t.Fatalf("ParseFile failed: %v", err)
			}
			got, out := reparse(t, orig)

			if len(got.Nets) != len(orig.Nets) || len(got.Footprints) != len(orig.Footprints) ||
				len(got.Tracks) != len(orig.Tracks) || len(got.Zones) != len(orig.Zones) ||
				len(got.Drawings) != len(orig.Drawings) || len(got.Groups) != len(orig.Groups) {
				t.Fatalf("item counts changed after round trip:\n%s", out)
			}

			for i, fp := range orig.Footprints {
				g := got.Footprints[i]
				if g.UUID != fp.UUID || g.Reference() != fp.Reference() || g.Path != fp.Path {
					t.Errorf("footprint %d identity changed: %s/%s", i, g.UUID, g.Reference())
				}
				if !g.At.Position.ApproxEqual(fp.At.Position, 1e-6) || !g.At.Angle.ApproxEqual(fp.At.Angle, 1e-6) {
					t.Errorf("footprint %s moved: %+v -> %+v", fp.Reference(), fp.At, g.At)
				}
				for j, f := range fp.Fields {
					if !g.Fields[j].At.Position.ApproxEqual(f.At.Position, 1e-6) {
						t.Errorf("%s field %s moved: %+v -> %+v", fp.Reference(), f.Name, f.At, g.Fields[j].At)
					}
				}
				for j, p := range fp.Pads {
					if g.Pads[j].NetCode() != p.NetCode() {
						t.Errorf("%s pad %s net %d -> %d", fp.Reference(), p.Number, p.NetCode(), g.Pads[j].NetCode())
					}
				}
				if len(g.Extra) != len(fp.Extra) {
					t.Errorf("%s extra nodes %d -> %d", fp.Reference(), len(fp.Extra), len(g.Extra))
				}
			}

			for i, grp := range orig.Groups {
				if got.Groups[i].Len() != grp.Len() || got.Groups[i].UUID != grp.UUID {
					t.Errorf("group %q changed after round trip", grp.Name)
				}
			}

			for _, want := range []string{"(setup", "(paper \"A4\")", "(title_block", "(roundrect_rratio 0.25)"} {
				if strings.Contains(orig.Sexp().String(), want) && !strings.Contains(out, want) {
					t.Errorf("output lost %s", want)
				}
			}
		})
	}
}

func TestWriteKeepsUnmodelledNodes(t *testing.T) {
	board, err := ParseFile(ampBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	_, out := reparse(t, board)

	for _, want := range []string{
		"(setup",
		"(title_block",
		"(hatch edge 0.508)",
		"(start -0.8 -0.4)",
		"(roundrect_rratio 0.25)",
		"(tstamp 11111111-0000-0000-0000-000000000001)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWriteModernFormat(t *testing.T) {
	b := NewBoard()
	b.Version = 20240108
	gnd := b.AddNet("GND")
	track := &Track{UUID: "t-1", Start: Position{X: 0, Y: 0}, End: Position{X: 1.5, Y: 0}, Width: 0.2, Layer: "F.Cu", Net: gnd, Locked: true}
	b.Add(track)
	g := NewGroup("ch1")
	g.UUID = "g-1"
	g.Add(track)
	b.AddGroup(g)

	got, out := reparse(t, b)

	for _, want := range []string{
		`(generator "pcbnew")`,
		`(uuid "t-1")`,
		`(locked yes)`,
		`(group "ch1"`,
		`(members "t-1")`,
		`(end 1.5 0)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	tr := got.Tracks[0].(*Track)
	if !tr.Locked || tr.Net.Name != "GND" {
		t.Errorf("track after round trip: locked=%v net=%+v", tr.Locked, tr.Net)
	}
	if tr.ParentGroup() == nil || tr.ParentGroup().Name != "ch1" {
		t.Error("track lost its group")
	}
}

func TestWriteFile(t *testing.T) {
	board, err := ParseFile(ampBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.kicad_pcb")
	if err := board.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := ParseFile(path); err != nil {
		t.Fatalf("ParseFile of written file failed: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("WriteFile left %d files behind, want 1", len(entries))
	}
}
