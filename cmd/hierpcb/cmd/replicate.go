package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/hierpcb/internal/config"
	"github.com/OpenTraceLab/hierpcb/internal/logging"
)

var (
	configFile    string
	templateFile  string
	anchorRef     string
	templateGroup string

	targetFile      string
	targetAnchorRef string
	groupName       string
	pairingMode     string
	sheetPath       string
	refOffset       int
	refPrefix       string
	refSuffix       string
	refMap          map[string]string
	outputFile      string

	watchMode  bool
	debounce   time.Duration
	dryRun     bool
	logFile    bool
	dumpConfig bool
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Replicate a template layout onto its target instances",
	Long: `Replicate the layout of a template board onto one or more target instances.

Jobs come from a YAML config file (--config) or from flags describing a single
target. Flags override the values read from the config file.

Pairing modes:
  sheet      Pair footprints through their hierarchical sheet path (default)
  reference  Pair through renamed references (--offset, --prefix, --suffix)
  explicit   Pair through an explicit map (--map R1=R101,C1=C101)

Examples:
  hierpcb replicate -c hierpcb.yaml
  hierpcb replicate -c hierpcb.yaml --watch
  hierpcb replicate -t amp.kicad_pcb -a R1 --target main.kicad_pcb \
      --target-anchor R201 -g ch2 --pairing reference --offset 200
  hierpcb replicate -c hierpcb.yaml --dump-config`,
	Args: cobra.NoArgs,
	RunE: runReplicate,
}

func init() {
	rootCmd.AddCommand(replicateCmd)

	f := replicateCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "job config file (YAML)")
	f.StringVarP(&templateFile, "template", "t", "", "template board")
	f.StringVarP(&anchorRef, "anchor", "a", "", "template anchor footprint reference")
	f.StringVar(&templateGroup, "template-group", "", "restrict the template to the items of this group")

	f.StringVar(&targetFile, "target", "", "target board (replaces the config targets)")
	f.StringVar(&targetAnchorRef, "target-anchor", "", "target anchor footprint reference (default: --anchor)")
	f.StringVarP(&groupName, "group", "g", "", "group collecting the replicated items")
	f.StringVar(&pairingMode, "pairing", config.PairBySheet, "pairing mode: sheet, reference or explicit")
	f.StringVar(&sheetPath, "sheet", "", "sheet path of the target instance (default: derived from the anchors)")
	f.IntVar(&refOffset, "offset", 0, "reference number offset for reference pairing")
	f.StringVar(&refPrefix, "prefix", "", "reference prefix for reference pairing")
	f.StringVar(&refSuffix, "suffix", "", "reference suffix for reference pairing")
	f.StringToStringVar(&refMap, "map", nil, "template to target references for explicit pairing")
	f.StringVarP(&outputFile, "output", "o", "", "write the target board here instead of in place")

	f.BoolVarP(&watchMode, "watch", "w", false, "re-run whenever the template board is saved")
	f.DurationVar(&debounce, "debounce", config.Defaults().Debounce, "quiet period before a watched change is handled")
	f.BoolVarP(&dryRun, "dry-run", "n", false, "replicate without writing any board")
	f.BoolVar(&logFile, "log-file", false, "write <board>.hierpcb.log next to each target")
	f.BoolVar(&dumpConfig, "dump-config", false, "print the effective configuration and exit")
}

// targetFlags only make sense together with --target.
var targetFlags = []string{"target-anchor", "group", "pairing", "sheet", "offset", "prefix", "suffix", "map", "output"}

func runReplicate(cmd *cobra.Command, args []string) error {
	cfg, err := loadJobConfig(cmd)
	if err != nil {
		return err
	}

	if dumpConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.FromContext(cmd.Context())
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	r := &runner{cfg: cfg, logger: logger}
	if cfg.Watch {
		return r.watch(cmd.Context())
	}
	return r.run()
}

// loadJobConfig reads the config file, if any, and applies the flags on top.
func loadJobConfig(cmd *cobra.Command) (config.Config, error) {
	v := config.NewViper()
	bindings := map[string]string{
		"template_group": "template-group",
		"watch":          "watch",
		"debounce":       "debounce",
		"dry_run":        "dry-run",
		"log_file":       "log-file",
		"verbose":        "verbose",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flag(name)); err != nil {
			return config.Config{}, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	cfg, err := config.Read(v, configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("template") {
		cfg.Template = templateFile
	}
	if flags.Changed("anchor") {
		cfg.Anchor = anchorRef
	}

	if !flags.Changed("target") {
		for _, name := range targetFlags {
			if flags.Changed(name) {
				return config.Config{}, fmt.Errorf("--%s requires --target", name)
			}
		}
		return cfg, nil
	}

	target := config.TargetConfig{
		Board:           targetFile,
		Anchor:          targetAnchorRef,
		Group:           groupName,
		Output:          outputFile,
		Pairing:         pairingMode,
		Sheet:           sheetPath,
		ReferenceOffset: refOffset,
		ReferencePrefix: refPrefix,
		ReferenceSuffix: refSuffix,
		References:      refMap,
	}
	if target.Anchor == "" {
		target.Anchor = cfg.Anchor
	}
	cfg.Targets = []config.TargetConfig{target}
	return cfg, nil
}
