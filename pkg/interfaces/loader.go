package interfaces

import (
	"context"

	"github.com/conformalab/samplequal/pkg/models"
)

// TrajectoryLoader reads one replicate's dihedral record from disk.
// Implementations parse a specific on-disk format; the comparison engine
// only ever sees the loaded models.Trajectory.
type TrajectoryLoader interface {
	// Name returns a short identifier for the loader implementation.
	Name() string

	// SupportedFormats lists the file formats this loader accepts.
	SupportedFormats() []string

	// Load reads the trajectory at trajPath. topPath names the matching
	// topology file and may be empty for self-describing formats. A
	// structured error is returned for unreadable or malformed inputs.
	Load(ctx context.Context, trajPath, topPath string) (*models.Trajectory, error)
}

// PathPair couples one trajectory file with its topology file. Pairs are
// produced by discovery in positional order; index i of the simulated list
// corresponds to index i of the reference list.
type PathPair struct {
	Trajectory string `json:"trajectory"`
	Topology   string `json:"topology"`
}
