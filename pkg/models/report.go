package models

import (
	"math"
	"time"
)

// InfClampValue replaces infinite relative entropy entries in serialized
// reports; JSON has no representation for +Inf. TrajectorySummary's
// DegenerateBins records how many entries were clamped.
const InfClampValue = math.MaxFloat64

// MetricSet holds one divergence metric evaluated for both dihedral
// families. Matrices are indexed [trajectory][residue].
type MetricSet struct {
	Phi [][]float64 `json:"phi"`
	Psi [][]float64 `json:"psi"`
}

// TrajectorySummary condenses one simulated replicate's divergence from
// the reference ensemble into headline statistics.
type TrajectorySummary struct {
	Trajectory        string  `json:"trajectory"`
	MeanHellingerPhi  float64 `json:"mean_hellinger_phi"`
	MeanHellingerPsi  float64 `json:"mean_hellinger_psi"`
	MaxHellingerPhi   float64 `json:"max_hellinger_phi"`
	MaxHellingerPsi   float64 `json:"max_hellinger_psi"`
	MeanRelEntropyPhi float64 `json:"mean_rel_entropy_phi"`
	MeanRelEntropyPsi float64 `json:"mean_rel_entropy_psi"`

	// DegenerateBins counts relative entropy entries that diverged to +Inf
	// because the reference density vanished where the simulation sampled.
	DegenerateBins int `json:"degenerate_bins,omitempty"`
}

// SamplingReport is the full result document of one comparison run.
type SamplingReport struct {
	ID              string              `json:"id"`
	Method          string              `json:"method"`
	BinWidthRadians float64             `json:"bin_width_radians"`
	BinWidthDegrees float64             `json:"bin_width_degrees"`
	ChainIndex      int                 `json:"chain_index"`
	Truncated       bool                `json:"truncated"`
	FrameCount      int                 `json:"frame_count"`
	NTrajectories   int                 `json:"n_trajectories"`
	ResidueIDs      []int               `json:"residue_ids"`
	Trajectories    []string            `json:"trajectories"`
	References      []string            `json:"references"`
	Hellinger       *MetricSet          `json:"hellinger,omitempty"`
	RelativeEntropy *MetricSet          `json:"relative_entropy,omitempty"`
	Summaries       []TrajectorySummary `json:"summaries"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     time.Time           `json:"completed_at"`
	Duration        time.Duration       `json:"duration"`
}
