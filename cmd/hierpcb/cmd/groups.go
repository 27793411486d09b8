package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
)

var groupsCmd = &cobra.Command{
	Use:   "groups <board_file> [group_name]",
	Short: "List groups and their members",
	Long: `Display the groups of a KiCad board.

Without group_name: Lists all groups with member counts per kind
With group_name: Lists every member of the groups with that name`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	board, err := pcb.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	if len(args) >= 2 {
		return showGroup(board, args[1])
	}

	fmt.Printf("Board: %d groups\n\n", len(board.Groups))
	for _, g := range board.Groups {
		fmt.Printf("%-20s %s\n", displayName(g), memberCounts(g))
	}
	return nil
}

func showGroup(board *pcb.Board, name string) error {
	groups := board.GroupsNamed(name)
	if len(groups) == 0 {
		return fmt.Errorf("group '%s' not found", name)
	}

	for _, g := range groups {
		fmt.Printf("Group: %s (%s)\n", displayName(g), g.UUID)
		fmt.Printf("Members (%d):\n", g.Len())
		for _, it := range g.Items() {
			fmt.Printf("  %s\n", pcb.Describe(it))
		}
	}
	return nil
}

func displayName(g *pcb.Group) string {
	if g.Name == "" {
		return "<unnamed>"
	}
	return g.Name
}

func memberCounts(g *pcb.Group) string {
	counts := make(map[pcb.Kind]int)
	for _, it := range g.Items() {
		counts[it.Kind()]++
	}
	var parts []string
	for _, k := range pcb.Kinds {
		if counts[k] > 0 {
			parts = append(parts, plural(counts[k], k.String()))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}
