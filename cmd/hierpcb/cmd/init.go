package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/hierpcb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [config_file]",
	Short: "Write an example job config",
	Long: `Write a commented example job config to config_file (default: hierpcb.yaml).
An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "hierpcb.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
