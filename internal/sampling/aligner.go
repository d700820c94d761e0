package sampling

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/models"
)

// PairAligner pairs simulated trajectories with their reference
// counterparts position by position and extracts the matched dihedral
// tensors for one protein chain. Pairing is purely positional: element i
// of the simulated list is compared against element i of the reference
// list, and upstream path discovery is responsible for delivering both
// lists in corresponding order.
type PairAligner struct {
	simulated  []*models.Trajectory
	reference  []*models.Trajectory
	chainIndex int
	truncated  bool
	minLength  int
	logger     *logrus.Logger
}

// DihedralSet carries the four angle tensors one comparison run works on,
// along with the residue numbering of the selected chain.
type DihedralSet struct {
	ResidueIDs   []int
	SimulatedPhi AngleTensor
	SimulatedPsi AngleTensor
	ReferencePhi AngleTensor
	ReferencePsi AngleTensor
}

// NewPairAligner validates the pairing and, when truncate is set, trims
// every trajectory on both sides to one frame less than the shortest
// trajectory seen anywhere. The off-by-one mirrors the reference
// pipeline's inclusive-slicing semantics and is preserved deliberately.
func NewPairAligner(simulated, reference []*models.Trajectory, chainIndex int, truncate bool, logger *logrus.Logger) (*PairAligner, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if len(simulated) == 0 || len(reference) == 0 {
		return nil, errors.NewConfigurationError(errors.CodeEmptyTrajectoryList,
			fmt.Sprintf("both trajectory lists must be non-empty, received %d simulated and %d reference",
				len(simulated), len(reference)))
	}
	if len(simulated) != len(reference) {
		return nil, errors.NewConfigurationError(errors.CodeListLengthMismatch,
			fmt.Sprintf("simulated and reference lists must pair positionally, received %d simulated and %d reference",
				len(simulated), len(reference)))
	}
	if chainIndex < 0 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidChainIndex,
			fmt.Sprintf("chain index must be non-negative, received %d", chainIndex))
	}

	// The aligner owns private copies of both lists so truncation never
	// reaches back into caller state.
	a := &PairAligner{
		simulated:  append([]*models.Trajectory(nil), simulated...),
		reference:  append([]*models.Trajectory(nil), reference...),
		chainIndex: chainIndex,
		minLength:  -1,
		logger:     logger,
	}

	if truncate {
		if err := a.truncateToCommonLength(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Truncated reports whether the aligner trimmed its trajectories.
func (a *PairAligner) Truncated() bool {
	return a.truncated
}

// MinLength returns the common frame count after truncation, or -1 when
// truncation was not requested.
func (a *PairAligner) MinLength() int {
	return a.minLength
}

// FrameCount returns the frame count shared by every trajectory, or 0
// when counts differ (possible only without truncation).
func (a *PairAligner) FrameCount() int {
	n := a.simulated[0].NFrames
	for _, t := range a.simulated {
		if t.NFrames != n {
			return 0
		}
	}
	for _, t := range a.reference {
		if t.NFrames != n {
			return 0
		}
	}
	return n
}

// ExtractDihedrals builds the four (trajectory x residue x frame) tensors
// for the selected chain. Residue counts must agree across all
// trajectories of a side; topology-level correspondence beyond that is
// the caller's responsibility.
func (a *PairAligner) ExtractDihedrals() (*DihedralSet, error) {
	simPhi, simPsi, residueIDs, err := a.extractSide(a.simulated, "simulated")
	if err != nil {
		return nil, err
	}
	refPhi, refPsi, _, err := a.extractSide(a.reference, "reference")
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"trajectories": len(a.simulated),
		"residues":     len(residueIDs),
		"chain":        a.chainIndex,
		"truncated":    a.truncated,
	}).Debug("Extracted dihedral tensors")

	return &DihedralSet{
		ResidueIDs:   residueIDs,
		SimulatedPhi: simPhi,
		SimulatedPsi: simPsi,
		ReferencePhi: refPhi,
		ReferencePsi: refPsi,
	}, nil
}

// Private methods

func (a *PairAligner) truncateToCommonLength() error {
	min := a.simulated[0].NFrames
	for _, t := range a.simulated {
		if t.NFrames < min {
			min = t.NFrames
		}
	}
	for _, t := range a.reference {
		if t.NFrames < min {
			min = t.NFrames
		}
	}

	// One frame less than the strict minimum, matching the reference
	// pipeline's slicing.
	minLength := min - 1
	if minLength <= 0 {
		return errors.NewTruncationError(minLength)
	}

	for i, t := range a.simulated {
		a.simulated[i] = t.Truncate(minLength)
	}
	for i, t := range a.reference {
		a.reference[i] = t.Truncate(minLength)
	}
	a.truncated = true
	a.minLength = minLength

	a.logger.WithFields(logrus.Fields{
		"min_frames": min,
		"kept":       minLength,
	}).Info("Truncated trajectories to common frame count")
	return nil
}

// extractSide turns one list of trajectories into phi and psi tensors of
// shape (trajectory, residue, frame), transposing each chain's
// frame-major angle matrix.
func (a *PairAligner) extractSide(list []*models.Trajectory, side string) (AngleTensor, AngleTensor, []int, error) {
	phi := make(AngleTensor, len(list))
	psi := make(AngleTensor, len(list))
	var residueIDs []int

	for i, t := range list {
		chain, err := t.Chain(a.chainIndex)
		if err != nil {
			return nil, nil, nil, err
		}
		ids, phiFrames, err := chain.Angles(models.DihedralPhi)
		if err != nil {
			return nil, nil, nil, err
		}
		_, psiFrames, err := chain.Angles(models.DihedralPsi)
		if err != nil {
			return nil, nil, nil, err
		}
		if residueIDs == nil {
			residueIDs = ids
		} else if len(ids) != len(residueIDs) {
			return nil, nil, nil, errors.NewShapeError(
				fmt.Sprintf("%s trajectory %q residue extraction", side, t.Name),
				[]int{len(residueIDs)}, []int{len(ids)})
		}
		phi[i] = transpose(phiFrames, len(ids))
		psi[i] = transpose(psiFrames, len(ids))
	}
	return phi, psi, residueIDs, nil
}

// Helper functions

// transpose converts a (frame x residue) matrix into residue-major order.
func transpose(frames [][]float64, nRes int) [][]float64 {
	out := make([][]float64, nRes)
	for r := 0; r < nRes; r++ {
		series := make([]float64, len(frames))
		for f := range frames {
			series[f] = frames[f][r]
		}
		out[r] = series
	}
	return out
}
