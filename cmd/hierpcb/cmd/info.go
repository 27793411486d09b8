package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

var showNets bool

var infoCmd = &cobra.Command{
	Use:   "info <board_file>",
	Short: "Show board contents",
	Long: `Display a summary of a KiCad board: item counts, size and groups.

With --nets, also lists every net with its pad, track and zone counts.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&showNets, "nets", false, "list nets")
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	board, err := pcb.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	vias := 0
	for _, t := range board.Tracks {
		if t.Kind() == pcb.KindVia {
			vias++
		}
	}

	fmt.Printf("Board: %s\n", filename)
	fmt.Printf("  Version: %d\n", board.Version)
	fmt.Printf("  Generator: %s\n", board.Generator)
	fmt.Printf("  Layers: %d\n", len(board.Layers))
	fmt.Printf("  Nets: %d\n", len(board.Nets))
	fmt.Printf("  Footprints: %d\n", len(board.Footprints))
	fmt.Printf("  Tracks: %d\n", len(board.Tracks)-vias)
	fmt.Printf("  Vias: %d\n", vias)
	fmt.Printf("  Zones: %d\n", len(board.Zones))
	fmt.Printf("  Drawings: %d\n", len(board.Drawings))
	fmt.Printf("  Groups: %d\n", len(board.Groups))

	bbox := board.GetBoundingBox()
	if !bbox.IsEmpty() {
		fmt.Printf("  Board size: %.2f x %.2f mm\n", bbox.Width(), bbox.Height())
		fmt.Printf("  Board center: (%.2f, %.2f) mm\n", bbox.Center().X, bbox.Center().Y)
	}

	if showNets {
		fmt.Println()
		listNets(board)
	}
	return nil
}

func listNets(board *pcb.Board) {
	fmt.Printf("%-30s %6s %6s %6s\n", "Net Name", "Pads", "Tracks", "Zones")
	fmt.Println("─────────────────────────────────────────────────────────")

	var names []string
	for _, n := range board.Nets {
		if n.Code != pcb.Unconnected {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if info := board.GetNetInfo(name); info != nil {
			fmt.Printf("%-30s %6d %6d %6d\n", name, len(info.Pads), len(info.Tracks), len(info.Zones))
		}
	}
}
