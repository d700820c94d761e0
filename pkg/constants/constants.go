package constants

import "math"

// Application constants
const (
	// Application metadata
	AppName        = "samplequal"
	AppDescription = "Conformational sampling quality comparison for simulated ensembles"
	AppVersion     = "0.1.0"

	// Binning defaults. Bin widths are configured in radians; the
	// histogram stage bins degree-valued angles over integer-degree edges.
	DefaultBinWidthRadians = 15.0 * math.Pi / 180.0
	DefaultBinWidthDegrees = 15.0
	MaxBinWidthRadians     = 2.0 * math.Pi

	// Circular domain bounds
	DomainMinDegrees = -180.0
	DomainMaxDegrees = 180.0
	DomainMinRadians = -math.Pi
	DomainMaxRadians = math.Pi

	// Comparison defaults
	DefaultChainIndex = 0
	DefaultTruncate   = false

	// Loader defaults. Worker count 0 resolves to runtime.NumCPU.
	DefaultLoadWorkers = 0

	// Heatmap defaults
	DefaultHeatmapVMin     = 0.0
	DefaultHeatmapVMax     = 1.0
	DefaultHeatmapFilename = "sampling_quality.png"
	DefaultHeatmapDPI      = 300
	DefaultHeatmapAnnotate = true

	// Log defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Directory layout constants for simulation output trees
const (
	// Layout modes understood by path discovery
	LayoutModeMega = "mega"
	LayoutModeWalk = "walk"

	// Default filenames produced by the upstream extraction pipeline
	DefaultTrajectoryName = "__traj_angles.json"
	DefaultTopologyName   = "__topology.json"

	// Legacy filenames of the raw-coordinate pipeline; kept as documented
	// defaults for loaders that read coordinates directly.
	RawTrajectoryName = "__traj.xtc"
	RawTopologyName   = "__START.pdb"
)

// MegaStartGroups are the named subdirectory groups of the "mega" layout,
// iterated in this order so replicate pairing stays deterministic.
var MegaStartGroups = []string{"coil_start", "helical_start"}

// DefaultExcludedDirs are directory names skipped during recursive walks.
var DefaultExcludedDirs = []string{"eq", "FULL"}

// Angle file formats
const (
	AngleFormatJSON = "json"
	AngleFormatCSV  = "csv"
)
