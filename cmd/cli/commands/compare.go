package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/conformalab/samplequal/cmd/cli/config"
	"github.com/conformalab/samplequal/internal/sampling"
	"github.com/conformalab/samplequal/internal/trajectory"
	"github.com/conformalab/samplequal/internal/visualization"
	"github.com/conformalab/samplequal/pkg/constants"
	"github.com/conformalab/samplequal/pkg/interfaces"
	"github.com/conformalab/samplequal/pkg/models"
)

type CompareOptions struct {
	SimulatedRoot string
	ReferenceRoot string
	Mode          string
	Replicates    int
	BinWidthDeg   float64
	ChainIndex    int
	Truncate      bool
	Workers       int
	Metric        string
	OutputFile    string
	HeatmapDir    string
	Annotate      bool
}

func NewCompareCmd() *cobra.Command {
	opts := &CompareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare sampling quality against a reference ensemble",
		Long: `Compare per-residue backbone dihedral distributions of simulated
trajectories against a limiting polymer model reference, reporting
Hellinger distance and relative entropy per trajectory and residue.`,
		Example: `  # Compare two recursively walked directory trees
  samplequal compare --simulated runs/quench --reference runs/lpm

  # Mega layout with 50 replicates per start group, truncated to a common length
  samplequal compare -s runs/mega -r runs/lpm --mode mega --reps 50 --truncate

  # Write a JSON report and annotated heatmaps
  samplequal compare -s runs/quench -r runs/lpm --output report.json --heatmap-dir plots`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyCompareDefaults(cmd, opts)
			return runCompare(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&opts.SimulatedRoot, "simulated", "s", "", "Root directory of simulated trajectories (required)")
	cmd.Flags().StringVarP(&opts.ReferenceRoot, "reference", "r", "", "Root directory of reference trajectories (required)")
	cmd.Flags().StringVar(&opts.Mode, "mode", constants.LayoutModeWalk, "Directory layout mode (mega, walk)")
	cmd.Flags().IntVar(&opts.Replicates, "reps", 0, "Replicates per start group (mega mode)")
	cmd.Flags().Float64Var(&opts.BinWidthDeg, "bwidth-deg", constants.DefaultBinWidthDegrees, "Histogram bin width in degrees")
	cmd.Flags().IntVar(&opts.ChainIndex, "chain", constants.DefaultChainIndex, "Protein chain index to compare")
	cmd.Flags().BoolVar(&opts.Truncate, "truncate", constants.DefaultTruncate, "Truncate all trajectories to the shortest length minus one frame")
	cmd.Flags().IntVar(&opts.Workers, "workers", constants.DefaultLoadWorkers, "Parallel load workers (0 = number of CPUs)")
	cmd.Flags().StringVarP(&opts.Metric, "metric", "m", "all", "Metric to summarize and plot (hellinger, relative_entropy, all)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Write the JSON report to this file (- for stdout)")
	cmd.Flags().StringVar(&opts.HeatmapDir, "heatmap-dir", "", "Write per-metric heatmap PNGs into this directory")
	cmd.Flags().BoolVar(&opts.Annotate, "annotate", constants.DefaultHeatmapAnnotate, "Annotate heatmap cells with metric values")

	cmd.MarkFlagRequired("simulated")
	cmd.MarkFlagRequired("reference")

	return cmd
}

func runCompare(opts *CompareOptions) error {
	logger := logrus.StandardLogger()

	fmt.Printf("Comparing sampling quality...\n")
	fmt.Printf("Simulated Root: %s\n", opts.SimulatedRoot)
	fmt.Printf("Reference Root: %s\n", opts.ReferenceRoot)
	fmt.Printf("Layout Mode: %s\n", opts.Mode)
	fmt.Printf("Bin Width: %.1f degrees\n", opts.BinWidthDeg)

	metrics, err := resolveMetrics(opts.Metric)
	if err != nil {
		return err
	}

	// Discover both populations with the same layout settings
	simPairs, err := discoverPairs(opts.SimulatedRoot, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to discover simulated trajectories: %w", err)
	}
	refPairs, err := discoverPairs(opts.ReferenceRoot, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to discover reference trajectories: %w", err)
	}

	config := &sampling.Config{
		Method:     sampling.MethodDihedral,
		BinWidth:   opts.BinWidthDeg * math.Pi / 180.0,
		ChainIndex: opts.ChainIndex,
		Truncate:   opts.Truncate,
		Workers:    opts.Workers,
		Simulated:  simPairs,
		Reference:  refPairs,
	}

	loader := trajectory.NewAngleFileLoader(nil, logger)

	ctx := context.Background()
	engine, err := sampling.NewEngine(ctx, config, loader, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize comparison: %w", err)
	}

	report, err := engine.Report()
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	printCompareSummary(report, metrics)

	if opts.OutputFile != "" {
		if err := writeReport(report, opts.OutputFile); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if opts.OutputFile != "-" {
			fmt.Printf("\nReport written to %s\n", opts.OutputFile)
		}
	}

	if opts.HeatmapDir != "" {
		engine.SetRenderer(visualization.NewHeatmapRenderer(nil, logger))
		for _, metric := range metrics {
			renderOpts := interfaces.HeatmapOptions{
				OutputDir: opts.HeatmapDir,
				Filename:  heatmapFilename(metric),
				Annotate:  opts.Annotate,
			}
			renderOpts.VMin, renderOpts.VMax = metricBounds(metric, report)
			if err := engine.RenderMetricHeatmap(metric, renderOpts); err != nil {
				return fmt.Errorf("failed to render %s heatmap: %w", metric, err)
			}
			fmt.Printf("Heatmap written to %s\n", filepath.Join(opts.HeatmapDir, heatmapFilename(metric)))
		}
	}

	return nil
}

func printCompareSummary(report *models.SamplingReport, metrics []sampling.Metric) {
	output := "\nSampling Quality Results:\n"
	output += "=========================\n\n"

	output += fmt.Sprintf("Method: %s\n", report.Method)
	output += fmt.Sprintf("Bin Width: %.0f degrees (%.4f rad)\n", report.BinWidthDegrees, report.BinWidthRadians)
	output += fmt.Sprintf("Chain Index: %d\n", report.ChainIndex)
	output += fmt.Sprintf("Trajectory Pairs: %d\n", report.NTrajectories)
	output += fmt.Sprintf("Residues: %d\n", len(report.ResidueIDs))
	if report.Truncated {
		output += fmt.Sprintf("Frames Compared: %d (truncated to common length)\n", report.FrameCount)
	} else {
		output += fmt.Sprintf("Frames Compared: %d\n", report.FrameCount)
	}

	for _, metric := range metrics {
		switch metric {
		case sampling.MetricHellinger:
			output += "\nHellinger Distance (phi / psi):\n"
			for i, s := range report.Summaries {
				output += fmt.Sprintf("- %s: mean %.3f / %.3f, max %.3f / %.3f\n",
					summaryName(i, s.Trajectory),
					s.MeanHellingerPhi, s.MeanHellingerPsi,
					s.MaxHellingerPhi, s.MaxHellingerPsi)
			}
		case sampling.MetricRelativeEntropy:
			output += "\nRelative Entropy (phi / psi):\n"
			for i, s := range report.Summaries {
				line := fmt.Sprintf("- %s: mean %.3f / %.3f",
					summaryName(i, s.Trajectory),
					s.MeanRelEntropyPhi, s.MeanRelEntropyPsi)
				if s.DegenerateBins > 0 {
					line += fmt.Sprintf(" (%d diverged)", s.DegenerateBins)
				}
				output += line + "\n"
			}
		}
	}

	if n := totalDegenerateBins(report); n > 0 {
		output += fmt.Sprintf("\nNote: %d relative entropy entries diverged where the reference\n", n)
		output += "density is zero; they are serialized as clamped maxima in JSON output.\n"
	}

	fmt.Print(output)
}

func writeReport(report *models.SamplingReport, outputFile string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if outputFile == "-" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(outputFile, data, 0644)
}

// Helper functions

// applyCompareDefaults overlays config-file values onto flags the user
// left untouched, so explicit flags always win.
func applyCompareDefaults(cmd *cobra.Command, opts *CompareOptions) {
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
	if !flags.Changed("bwidth-deg") {
		opts.BinWidthDeg = cfg.Compare.BinWidthDegrees
	}
	if !flags.Changed("chain") {
		opts.ChainIndex = cfg.Compare.ChainIndex
	}
	if !flags.Changed("truncate") {
		opts.Truncate = cfg.Compare.Truncate
	}
	if !flags.Changed("workers") {
		opts.Workers = cfg.Compare.Workers
	}
	if !flags.Changed("metric") {
		opts.Metric = cfg.Compare.Metric
	}
	if !flags.Changed("heatmap-dir") && cfg.Heatmap.Dir != "" {
		opts.HeatmapDir = cfg.Heatmap.Dir
	}
	if !flags.Changed("annotate") {
		opts.Annotate = cfg.Heatmap.Annotate
	}
}

func discoverPairs(root string, opts *CompareOptions, logger *logrus.Logger) ([]interfaces.PathPair, error) {
	config := &trajectory.DiscoveryConfig{
		Root:       root,
		Mode:       opts.Mode,
		Replicates: opts.Replicates,
	}
	return trajectory.DiscoverPaths(config, logger)
}

func resolveMetrics(name string) ([]sampling.Metric, error) {
	if strings.EqualFold(strings.TrimSpace(name), "all") {
		return []sampling.Metric{sampling.MetricHellinger, sampling.MetricRelativeEntropy}, nil
	}
	metric, err := sampling.ParseMetric(name)
	if err != nil {
		return nil, err
	}
	return []sampling.Metric{metric}, nil
}

func heatmapFilename(metric sampling.Metric) string {
	return strings.ReplaceAll(metric.Label(), " ", "_") + ".png"
}

// metricBounds picks the color scale for a metric. Hellinger is bounded
// [0, 1]; relative entropy scales to the largest finite value observed.
func metricBounds(metric sampling.Metric, report *models.SamplingReport) (vmin, vmax float64) {
	if metric != sampling.MetricRelativeEntropy || report.RelativeEntropy == nil {
		return constants.DefaultHeatmapVMin, constants.DefaultHeatmapVMax
	}
	max := 0.0
	for _, rows := range [][][]float64{report.RelativeEntropy.Phi, report.RelativeEntropy.Psi} {
		for _, row := range rows {
			for _, v := range row {
				if v > max && v < models.InfClampValue {
					max = v
				}
			}
		}
	}
	if max <= 0 {
		return constants.DefaultHeatmapVMin, constants.DefaultHeatmapVMax
	}
	return 0, max
}

func summaryName(i int, name string) string {
	if name == "" {
		return fmt.Sprintf("Trajectory %d", i+1)
	}
	return name
}

func totalDegenerateBins(report *models.SamplingReport) int {
	total := 0
	for _, s := range report.Summaries {
		total += s.DegenerateBins
	}
	return total
}
