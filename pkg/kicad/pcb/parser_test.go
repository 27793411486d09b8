package pcb

import (
	"strings"
	"testing"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/sexp/kicadsexp"
)

const (
	ampBoard  = "../../../testdata/boards/amp.kicad_pcb"
	mainBoard = "../../../testdata/boards/main.kicad_pcb"
)

func parseNode(t *testing.T, input string) kicadsexp.Sexp {
	t.Helper()
	sexps, err := kicadsexp.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse s-expression: %v", err)
	}
	if len(sexps) == 0 {
		t.Fatal("ParseString returned empty")
	}
	return sexps[0]
}

// Test parseHeader function
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantGen     string
		wantErr     bool
	}{
		{
			name:        "valid KiCad 6.0 with generator",
			input:       "(kicad_pcb (version 20211014) (generator pcbnew))",
			wantVersion: 20211014,
			wantGen:     "pcbnew",
		},
		{
			name:        "valid KiCad 6.0 with host",
			input:       "(kicad_pcb (version 20221018) (host pcbnew \"(6.0.10)\"))",
			wantVersion: 20221018,
			wantGen:     "pcbnew",
		},
		{
			name:        "valid KiCad 8.0 quoted generator",
			input:       "(kicad_pcb (version 20240108) (generator \"pcbnew\"))",
			wantVersion: 20240108,
			wantGen:     "pcbnew",
		},
		{
			name:    "missing version",
			input:   "(kicad_pcb (generator pcbnew))",
			wantErr: true,
		},
		{
			name:    "old version (KiCad 5)",
			input:   "(kicad_pcb (version 20171130))",
			wantErr: true,
		},
		{
			name:        "no generator (should default to unknown)",
			input:       "(kicad_pcb (version 20211014))",
			wantVersion: 20211014,
			wantGen:     "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, gen, err := parseHeader(parseNode(t, tt.input))

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseHeader() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("parseHeader() unexpected error: %v", err)
				return
			}
			if version != tt.wantVersion {
				t.Errorf("parseHeader() version = %d, want %d", version, tt.wantVersion)
			}
			if gen != tt.wantGen {
				t.Errorf("parseHeader() generator = %q, want %q", gen, tt.wantGen)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a board", "(kicad_sch (version 20230121))"},
		{"unbalanced", "(kicad_pcb (version 20221018)"},
		{"footprint without position", `(kicad_pcb (version 20221018) (footprint "R" (layer "F.Cu")))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Parse() expected error, got nil")
			}
		})
	}
}

func TestParseLayers(t *testing.T) {
	layers, err := parseLayers(parseNode(t, `(layers
		(0 "F.Cu" signal)
		(31 "B.Cu" signal)
		(37 "F.SilkS" user "F.Silkscreen")
		(44 "Edge.Cuts"))`))
	if err != nil {
		t.Fatalf("parseLayers() unexpected error: %v", err)
	}
	if len(layers) != 4 {
		t.Fatalf("parseLayers() count = %d, want 4", len(layers))
	}
	if layers[1].Number != 31 || layers[1].Name != "B.Cu" || !layers[1].IsCopper() {
		t.Errorf("layers[1] = %+v, want copper B.Cu #31", layers[1])
	}
	if layers[3].Type != "user" || layers[3].IsCopper() {
		t.Errorf("layers[3] = %+v, want non-copper user layer", layers[3])
	}
}

func TestParseNets(t *testing.T) {
	nets, err := parseNets(parseNode(t, `(kicad_pcb (net 0 "") (net 1 "GND") (net 2 "/ch1/VIN"))`))
	if err != nil {
		t.Fatalf("parseNets() unexpected error: %v", err)
	}
	if len(nets) != 3 {
		t.Fatalf("parseNets() count = %d, want 3", len(nets))
	}
	if nets[2].Code != 2 || nets[2].Name != "/ch1/VIN" {
		t.Errorf("nets[2] = %+v", nets[2])
	}
}

func TestParseBoardFile(t *testing.T) {
	board, err := ParseFile(ampBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if board.Version != 20221018 {
		t.Errorf("Version = %d, want 20221018", board.Version)
	}
	if board.General.Thickness != 1.6 {
		t.Errorf("Thickness = %v, want 1.6", board.General.Thickness)
	}
	if board.General.Title != "Amplifier channel" {
		t.Errorf("Title = %q, want \"Amplifier channel\"", board.General.Title)
	}
	if len(board.Layers) != 5 {
		t.Errorf("Layers count = %d, want 5", len(board.Layers))
	}
	if len(board.Nets) != 4 {
		t.Errorf("Nets count = %d, want 4", len(board.Nets))
	}
	if len(board.Footprints) != 2 {
		t.Errorf("Footprints count = %d, want 2", len(board.Footprints))
	}
	if len(board.Tracks) != 2 {
		t.Errorf("Tracks count = %d, want 2", len(board.Tracks))
	}
	if len(board.Zones) != 1 {
		t.Errorf("Zones count = %d, want 1", len(board.Zones))
	}
	if len(board.Drawings) != 2 {
		t.Errorf("Drawings count = %d, want 2", len(board.Drawings))
	}
}

func TestParseFootprint(t *testing.T) {
	board, err := ParseFile(ampBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	r1, ok := board.FootprintByReference("R1")
	if !ok {
		t.Fatal("footprint R1 not found")
	}
	if r1.LibID != "Resistor_SMD:R_0603_1608Metric" {
		t.Errorf("R1 LibID = %q", r1.LibID)
	}
	if r1.UUID != "11111111-0000-0000-0000-000000000001" {
		t.Errorf("R1 UUID = %q", r1.UUID)
	}
	if r1.Path != "/3f1c0000-0000-0000-0000-0000000000a1" {
		t.Errorf("R1 Path = %q", r1.Path)
	}
	if r1.Value() != "10k" {
		t.Errorf("R1 Value = %q, want \"10k\"", r1.Value())
	}
	if r1.SolderMaskMargin == nil || *r1.SolderMaskMargin != 0.05 {
		t.Errorf("R1 SolderMaskMargin = %v, want 0.05", r1.SolderMaskMargin)
	}
	if r1.LocalClearance != nil {
		t.Errorf("R1 LocalClearance = %v, want nil", *r1.LocalClearance)
	}
	if len(r1.Extra) != 1 {
		t.Errorf("R1 Extra count = %d, want 1 (fp_line)", len(r1.Extra))
	}

	// Fields are stored in board coordinates.
	ref, _ := r1.Field(FieldReference)
	if !ref.At.Position.ApproxEqual(Position{X: 100, Y: 98.57}, 1e-9) {
		t.Errorf("R1 reference position = %+v, want (100, 98.57)", ref.At.Position)
	}

	c1, ok := board.FootprintByReference("C1")
	if !ok {
		t.Fatal("footprint C1 not found")
	}
	if c1.Orientation() != 90 {
		t.Errorf("C1 angle = %v, want 90", c1.Orientation())
	}
	ref, _ = c1.Field(FieldReference)
	if !ref.At.Position.ApproxEqual(Position{X: 103.57, Y: 100}, 1e-9) {
		t.Errorf("C1 reference position = %+v, want (103.57, 100)", ref.At.Position)
	}
	if !ref.Legacy {
		t.Error("C1 reference should be a legacy fp_text field")
	}
}

func TestParsePads(t *testing.T) {
	board, err := ParseFile(ampBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	c1, _ := board.FootprintByReference("C1")
	tests := []struct {
		idx      int
		number   string
		netCode  int
		netName  string
		x, angle float64
	}{
		{0, "1", 3, "VOUT", -0.8, 90},
		{1, "2", 2, "GND", 0.8, 90},
	}
	if len(c1.Pads) != len(tests) {
		t.Fatalf("C1 pads = %d, want %d", len(c1.Pads), len(tests))
	}
	for _, tt := range tests {
		pad := c1.Pads[tt.idx]
		if pad.Number != tt.number {
			t.Errorf("pad %d number = %q, want %q", tt.idx, pad.Number, tt.number)
		}
		if pad.NetCode() != tt.netCode || pad.Net.Name != tt.netName {
			t.Errorf("pad %d net = %d %q, want %d %q", tt.idx, pad.NetCode(), pad.Net.Name, tt.netCode, tt.netName)
		}
		if pad.At.X != tt.x || float64(pad.At.Angle) != tt.angle {
			t.Errorf("pad %d at = %+v", tt.idx, pad.At)
		}
		if pad.Type != "smd" || pad.Shape != "roundrect" {
			t.Errorf("pad %d type/shape = %s/%s", tt.idx, pad.Type, pad.Shape)
		}
		if len(pad.Layers) != 3 || pad.Layers[0] != "F.Cu" {
			t.Errorf("pad %d layers = %v", tt.idx, pad.Layers)
		}
	}
}

func TestParseTrack(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(*testing.T, *Track)
	}{
		{
			name: "basic segment",
			input: `(segment
				(start 10 20)
				(end 30 40)
				(width 0.25)
				(layer "F.Cu")
				(net 1)
				(tstamp 0a)
			)`,
			check: func(t *testing.T, track *Track) {
				if track.Start != (Position{X: 10, Y: 20}) {
					t.Errorf("Start = %+v, want (10, 20)", track.Start)
				}
				if track.End != (Position{X: 30, Y: 40}) {
					t.Errorf("End = %+v, want (30, 40)", track.End)
				}
				if track.Width != 0.25 {
					t.Errorf("Width = %v, want 0.25", track.Width)
				}
				if track.Layer != "F.Cu" {
					t.Errorf("Layer = %q, want \"F.Cu\"", track.Layer)
				}
				if track.NetCode() != 1 {
					t.Errorf("NetCode = %d, want 1", track.NetCode())
				}
				if track.UUID != "0a" {
					t.Errorf("UUID = %q, want \"0a\"", track.UUID)
				}
				if track.IsArc() {
					t.Error("segment parsed as arc")
				}
			},
		},
		{
			name:  "arc",
			input: `(arc (start 0 0) (mid 1 1) (end 2 0) (width 0.2) (layer "B.Cu") (net 0))`,
			check: func(t *testing.T, track *Track) {
				if !track.IsArc() || *track.Mid != (Position{X: 1, Y: 1}) {
					t.Errorf("Mid = %v, want (1, 1)", track.Mid)
				}
			},
		},
		{
			name:  "locked flag",
			input: `(segment locked (start 0 0) (end 1 0) (width 0.2) (layer "F.Cu") (net 0))`,
			check: func(t *testing.T, track *Track) {
				if !track.Locked {
					t.Error("segment should be locked")
				}
			},
		},
		{
			name:    "missing start",
			input:   `(segment (end 30 40) (width 0.25) (layer "F.Cu"))`,
			wantErr: true,
		},
		{
			name:    "missing end",
			input:   `(segment (start 10 20) (width 0.25) (layer "F.Cu"))`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard()
			board.AddNet("GND")

			track, err := parseTrack(parseNode(t, tt.input), board)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseTrack() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if tt.check != nil {
				tt.check(t, track)
			}
		})
	}
}

func TestParseVia(t *testing.T) {
	board := NewBoard()
	gnd := board.AddNet("GND")

	via, err := parseVia(parseNode(t, `(via blind locked (at 100 200) (size 0.8) (drill 0.4) (layers "F.Cu" "In1.Cu") (free) (net 1))`), board)
	if err != nil {
		t.Fatalf("parseVia() unexpected error: %v", err)
	}
	if via.At != (Position{X: 100, Y: 200}) {
		t.Errorf("At = %+v", via.At)
	}
	if via.Size != 0.8 || via.Drill != 0.4 {
		t.Errorf("Size/Drill = %v/%v, want 0.8/0.4", via.Size, via.Drill)
	}
	if via.Net != gnd {
		t.Errorf("Net = %+v, want GND", via.Net)
	}
	if !via.Locked {
		t.Error("via should be locked")
	}
	if !via.Free {
		t.Error("via should be free")
	}
	if len(via.Extra) != 1 || via.Extra[0].String() != "blind" {
		t.Errorf("Extra = %v, want [blind]", via.Extra)
	}

	if _, err := parseVia(parseNode(t, `(via (size 0.8))`), board); err == nil {
		t.Error("parseVia() without position expected error")
	}
}

func TestParseZone(t *testing.T) {
	board, err := ParseFile(ampBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	z := board.Zones[0]
	if z.Net == nil || z.Net.Name != "GND" {
		t.Errorf("zone net = %+v, want GND", z.Net)
	}
	if len(z.Layers) != 1 || z.Layers[0] != "F.Cu" {
		t.Errorf("zone layers = %v", z.Layers)
	}
	if len(z.Outline) != 4 {
		t.Fatalf("zone outline = %d points, want 4", len(z.Outline))
	}
	if z.Position() != (Position{X: 98, Y: 98}) {
		t.Errorf("zone position = %+v, want first vertex (98, 98)", z.Position())
	}
}

func TestParseDrawings(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		key     string
		wantErr bool
		want    Position
	}{
		{"line", `(gr_line (start 1 2) (end 3 4) (layer "F.SilkS") (width 0.1))`, "gr_line", false, Position{X: 1, Y: 2}},
		{"circle", `(gr_circle (center 5 5) (end 6 5) (layer "F.SilkS"))`, "gr_circle", false, Position{X: 5, Y: 5}},
		{"arc", `(gr_arc (start 0 0) (mid 1 1) (end 2 0) (layer "F.SilkS"))`, "gr_arc", false, Position{}},
		{"poly", `(gr_poly (pts (xy 7 8) (xy 9 8) (xy 9 9)) (layer "F.Cu"))`, "gr_poly", false, Position{X: 7, Y: 8}},
		{"text", `(gr_text "REV A" (at 10 20 45) (layer "F.SilkS"))`, "gr_text", false, Position{X: 10, Y: 20}},
		{"line without end", `(gr_line (start 1 2) (layer "F.SilkS"))`, "gr_line", true, Position{}},
		{"arc without mid", `(gr_arc (start 0 0) (end 2 0) (layer "F.SilkS"))`, "gr_arc", true, Position{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDrawing(parseNode(t, tt.input), tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDrawing() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if d.Position() != tt.want {
				t.Errorf("Position() = %+v, want %+v", d.Position(), tt.want)
			}
			if d.Shape.String() != tt.key {
				t.Errorf("Shape = %s, want %s", d.Shape, tt.key)
			}
		})
	}
}

func TestParseGroups(t *testing.T) {
	board, err := ParseFile(mainBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	groups := board.GroupsNamed("ch1")
	if len(groups) != 1 {
		t.Fatalf("GroupsNamed(ch1) = %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.UUID != "cccccccc-0000-0000-0000-000000000001" {
		t.Errorf("group UUID = %q", g.UUID)
	}
	if g.Len() != 2 {
		t.Errorf("group members = %d, want 2", g.Len())
	}
	r101, _ := board.FootprintByReference("R101")
	if r101.ParentGroup() != g {
		t.Error("R101 should belong to group ch1")
	}
	r201, _ := board.FootprintByReference("R201")
	if r201.ParentGroup() != nil {
		t.Error("R201 should not belong to any group")
	}
}

func TestParseForeignGroupMembers(t *testing.T) {
	board, err := Parse(strings.NewReader(`(kicad_pcb (version 20240108) (generator "pcbnew")
		(net 0 "")
		(gr_line (start 0 0) (end 1 0) (layer "F.SilkS") (uuid "d1"))
		(group "g" (uuid "g1") (members "d1" "dim-1")))`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	g := board.Groups[0]
	if g.Len() != 1 {
		t.Errorf("modelled members = %d, want 1", g.Len())
	}
	ids := g.memberIDs()
	if len(ids) != 2 || ids[1] != "dim-1" {
		t.Errorf("memberIDs() = %v, want [d1 dim-1]", ids)
	}
}
