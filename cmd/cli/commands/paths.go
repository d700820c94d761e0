package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/conformalab/samplequal/cmd/cli/config"
	"github.com/conformalab/samplequal/internal/trajectory"
	"github.com/conformalab/samplequal/pkg/constants"
)

type PathsOptions struct {
	Root           string
	Mode           string
	Replicates     int
	TrajectoryName string
	TopologyName   string
	OutputFormat   string
}

func NewPathsCmd() *cobra.Command {
	opts := &PathsOptions{}

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List the trajectory paths a comparison would consume",
		Long: `Discover replicate trajectory files under a simulation output tree
without loading them, in the same naturally sorted order the compare
command pairs them in.`,
		Example: `  # Walk a directory tree recursively
  samplequal paths --root runs/quench

  # Mega layout with 50 replicates per start group
  samplequal paths --root runs/mega --mode mega --reps 50

  # Machine-readable output
  samplequal paths --root runs/quench --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyPathsDefaults(cmd, opts)
			return runPaths(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&opts.Root, "root", "", "Root directory to search (required)")
	cmd.Flags().StringVar(&opts.Mode, "mode", constants.LayoutModeWalk, "Directory layout mode (mega, walk)")
	cmd.Flags().IntVar(&opts.Replicates, "reps", 0, "Replicates per start group (mega mode)")
	cmd.Flags().StringVar(&opts.TrajectoryName, "trajectory-name", constants.DefaultTrajectoryName, "Per-replicate trajectory filename")
	cmd.Flags().StringVar(&opts.TopologyName, "topology-name", constants.DefaultTopologyName, "Per-replicate topology filename")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "text", "Output format (text, json)")

	cmd.MarkFlagRequired("root")

	return cmd
}

func runPaths(opts *PathsOptions) error {
	logger := logrus.StandardLogger()

	config := &trajectory.DiscoveryConfig{
		Root:           opts.Root,
		Mode:           opts.Mode,
		Replicates:     opts.Replicates,
		TrajectoryName: opts.TrajectoryName,
		TopologyName:   opts.TopologyName,
	}

	pairs, err := trajectory.DiscoverPaths(config, logger)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if strings.EqualFold(opts.OutputFormat, "json") {
		data, err := json.MarshalIndent(pairs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Discovered %d trajectory pairs under %s (%s layout):\n\n", len(pairs), opts.Root, opts.Mode)
	for i, p := range pairs {
		fmt.Printf("%3d  %s\n", i+1, p.Trajectory)
		if p.Topology != "" {
			fmt.Printf("     topology: %s\n", p.Topology)
		}
	}

	return nil
}

// Helper functions

func applyPathsDefaults(cmd *cobra.Command, opts *PathsOptions) {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Warn("Ignoring invalid CLI config")
		return
	}

	flags := cmd.Flags()
	if !flags.Changed("mode") {
		opts.Mode = cfg.Layout.Mode
	}
	if !flags.Changed("reps") && cfg.Layout.Replicates > 0 {
		opts.Replicates = cfg.Layout.Replicates
	}
	if !flags.Changed("trajectory-name") {
		opts.TrajectoryName = cfg.Layout.TrajectoryName
	}
	if !flags.Changed("topology-name") {
		opts.TopologyName = cfg.Layout.TopologyName
	}
}
