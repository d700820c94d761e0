package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/conformalab/samplequal/pkg/constants"
)

// CLIConfig holds the file-configurable defaults of the CLI. Values come
// from $HOME/.samplequal.yaml (or --config) and SAMPLEQUAL_* environment
// variables; explicit command flags always win.
type CLIConfig struct {
	Layout  LayoutConfig  `mapstructure:"layout"`
	Compare CompareConfig `mapstructure:"compare"`
	Heatmap HeatmapConfig `mapstructure:"heatmap"`
}

type LayoutConfig struct {
	Mode           string `mapstructure:"mode"`
	Replicates     int    `mapstructure:"replicates"`
	TrajectoryName string `mapstructure:"trajectory_name"`
	TopologyName   string `mapstructure:"topology_name"`
}

type CompareConfig struct {
	BinWidthDegrees float64 `mapstructure:"bin_width_degrees"`
	ChainIndex      int     `mapstructure:"chain_index"`
	Truncate        bool    `mapstructure:"truncate"`
	Workers         int     `mapstructure:"workers"`
	Metric          string  `mapstructure:"metric"`
}

type HeatmapConfig struct {
	Dir      string `mapstructure:"dir"`
	Annotate bool   `mapstructure:"annotate"`
}

// LoadConfig layers defaults under whatever the root command already read
// into viper and unmarshals the result.
func LoadConfig() (*CLIConfig, error) {
	config := &CLIConfig{
		Layout: LayoutConfig{
			Mode:           constants.LayoutModeWalk,
			TrajectoryName: constants.DefaultTrajectoryName,
			TopologyName:   constants.DefaultTopologyName,
		},
		Compare: CompareConfig{
			BinWidthDegrees: constants.DefaultBinWidthDegrees,
			ChainIndex:      constants.DefaultChainIndex,
			Truncate:        constants.DefaultTruncate,
			Workers:         constants.DefaultLoadWorkers,
			Metric:          "all",
		},
		Heatmap: HeatmapConfig{
			Annotate: constants.DefaultHeatmapAnnotate,
		},
	}

	// Set defaults
	viper.SetDefault("layout.mode", config.Layout.Mode)
	viper.SetDefault("layout.replicates", config.Layout.Replicates)
	viper.SetDefault("layout.trajectory_name", config.Layout.TrajectoryName)
	viper.SetDefault("layout.topology_name", config.Layout.TopologyName)
	viper.SetDefault("compare.bin_width_degrees", config.Compare.BinWidthDegrees)
	viper.SetDefault("compare.chain_index", config.Compare.ChainIndex)
	viper.SetDefault("compare.truncate", config.Compare.Truncate)
	viper.SetDefault("compare.workers", config.Compare.Workers)
	viper.SetDefault("compare.metric", config.Compare.Metric)
	viper.SetDefault("heatmap.dir", config.Heatmap.Dir)
	viper.SetDefault("heatmap.annotate", config.Heatmap.Annotate)

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".samplequal.yaml")
}
