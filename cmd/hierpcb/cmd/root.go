package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/hierpcb/internal/logging"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hierpcb",
	Short: "Hierarchical PCB layout replication for KiCad",
	Long: `Replicates the layout of a template sub-board onto every instance of it
on a KiCad board: footprints are moved into place, and tracks, vias, zones
and drawings are regenerated with their nets remapped.

Examples:
  hierpcb replicate --config hierpcb.yaml                  # Run the jobs in a config file
  hierpcb replicate -t amp.kicad_pcb -a R1 \
      --target main.kicad_pcb --target-anchor R101 -g ch1  # Replicate one instance
  hierpcb info main.kicad_pcb                              # Show board contents
  hierpcb groups main.kicad_pcb                            # List groups and their members`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(os.Stderr, verbose)))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
