package trajectory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/maruel/natural"
	"github.com/sirupsen/logrus"

	"github.com/conformalab/samplequal/pkg/constants"
	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/interfaces"
)

// DiscoveryConfig describes a simulation output tree.
type DiscoveryConfig struct {
	// Root is the directory the search starts from.
	Root string `json:"root" yaml:"root"`

	// Mode selects the tree layout: "mega" expects StartGroups x
	// Replicates subdirectories, "walk" recursively searches for
	// directories holding TrajectoryName.
	Mode string `json:"mode" yaml:"mode"`

	// Replicates is the per-group replicate count for mega layouts.
	Replicates int `json:"replicates" yaml:"replicates"`

	// TrajectoryName and TopologyName are the fixed per-replicate
	// filenames written by the simulation pipeline.
	TrajectoryName string `json:"trajectory_name" yaml:"trajectory_name"`
	TopologyName   string `json:"topology_name" yaml:"topology_name"`

	// StartGroups are the named subdirectory groups of a mega layout.
	StartGroups []string `json:"start_groups" yaml:"start_groups"`

	// ExcludeDirs are directory names skipped during recursive walks.
	ExcludeDirs []string `json:"exclude_dirs" yaml:"exclude_dirs"`
}

// DiscoverPaths locates replicate path pairs under the configured root.
// Pairs come back naturally sorted by trajectory path (rep2 before
// rep10), which is the ordering guarantee positional pairing relies on.
func DiscoverPaths(config *DiscoveryConfig, logger *logrus.Logger) ([]interfaces.PathPair, error) {
	if config == nil {
		config = getDefaultDiscoveryConfig()
	}
	applyDiscoveryDefaults(config)
	if logger == nil {
		logger = logrus.New()
	}
	if config.Root == "" {
		return nil, errors.NewDiscoveryError(errors.CodeNoTrajectoriesFound,
			"discovery root directory is required")
	}

	var (
		pairs []interfaces.PathPair
		err   error
	)
	switch config.Mode {
	case constants.LayoutModeMega:
		pairs, err = discoverMega(config)
	case constants.LayoutModeWalk:
		pairs, err = discoverWalk(config)
	default:
		return nil, errors.NewDiscoveryError(errors.CodeUnknownLayoutMode,
			fmt.Sprintf("directory layout mode %q is not recognized, supported modes: %v",
				config.Mode, []string{constants.LayoutModeMega, constants.LayoutModeWalk}))
	}
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, errors.NewDiscoveryError(errors.CodeNoTrajectoriesFound,
			fmt.Sprintf("no %q files found under %q", config.TrajectoryName, config.Root))
	}

	sort.Slice(pairs, func(i, j int) bool {
		return natural.Less(pairs[i].Trajectory, pairs[j].Trajectory)
	})

	logger.WithFields(logrus.Fields{
		"root":  config.Root,
		"mode":  config.Mode,
		"pairs": len(pairs),
	}).Info("Discovered trajectory paths")

	return pairs, nil
}

// SplitPairs separates pairs into the (topology, trajectory) path lists.
func SplitPairs(pairs []interfaces.PathPair) (tops, trajs []string) {
	tops = make([]string, len(pairs))
	trajs = make([]string, len(pairs))
	for i, p := range pairs {
		tops[i] = p.Topology
		trajs[i] = p.Trajectory
	}
	return tops, trajs
}

// Private methods

// discoverMega visits <root>/<group>/<replicate>/ for every start group
// and 1-based replicate index. Missing replicate directories are skipped
// silently, matching the glob semantics of the reference pipeline.
func discoverMega(config *DiscoveryConfig) ([]interfaces.PathPair, error) {
	if config.Replicates <= 0 {
		return nil, errors.NewDiscoveryError(errors.CodeNoTrajectoriesFound,
			fmt.Sprintf("mega layout requires a positive replicate count, received %d", config.Replicates))
	}
	var pairs []interfaces.PathPair
	for _, group := range config.StartGroups {
		for rep := 1; rep <= config.Replicates; rep++ {
			dir := filepath.Join(config.Root, group, strconv.Itoa(rep))
			trajPath := filepath.Join(dir, config.TrajectoryName)
			if _, err := os.Stat(trajPath); err != nil {
				continue
			}
			pairs = append(pairs, interfaces.PathPair{
				Trajectory: trajPath,
				Topology:   filepath.Join(dir, config.TopologyName),
			})
		}
	}
	return pairs, nil
}

// discoverWalk recursively searches for directories holding the
// trajectory filename, pruning excluded directory names.
func discoverWalk(config *DiscoveryConfig) ([]interfaces.PathPair, error) {
	excluded := make(map[string]bool, len(config.ExcludeDirs))
	for _, d := range config.ExcludeDirs {
		excluded[d] = true
	}

	var pairs []interfaces.PathPair
	err := filepath.WalkDir(config.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != config.Root && excluded[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == config.TrajectoryName {
			dir := filepath.Dir(path)
			pairs = append(pairs, interfaces.PathPair{
				Trajectory: path,
				Topology:   filepath.Join(dir, config.TopologyName),
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDiscovery, errors.CodeNoTrajectoriesFound,
			fmt.Sprintf("walk of %q failed", config.Root))
	}
	return pairs, nil
}

// Helper functions

func getDefaultDiscoveryConfig() *DiscoveryConfig {
	return &DiscoveryConfig{
		Mode:           constants.LayoutModeWalk,
		TrajectoryName: constants.DefaultTrajectoryName,
		TopologyName:   constants.DefaultTopologyName,
		StartGroups:    constants.MegaStartGroups,
		ExcludeDirs:    constants.DefaultExcludedDirs,
	}
}

func applyDiscoveryDefaults(config *DiscoveryConfig) {
	if config.Mode == "" {
		config.Mode = constants.LayoutModeWalk
	}
	if config.TrajectoryName == "" {
		config.TrajectoryName = constants.DefaultTrajectoryName
	}
	if config.TopologyName == "" {
		config.TopologyName = constants.DefaultTopologyName
	}
	if len(config.StartGroups) == 0 {
		config.StartGroups = constants.MegaStartGroups
	}
	if len(config.ExcludeDirs) == 0 {
		config.ExcludeDirs = constants.DefaultExcludedDirs
	}
}
