package sampling

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/models"
)

func TestNewPairAlignerValidation(t *testing.T) {
	logger := logrus.New()
	trj := createTestTrajectory("a", 10, 3)

	_, err := NewPairAligner(nil, []*models.Trajectory{trj}, 0, false, logger)
	assertConfigCode(t, err, errors.CodeEmptyTrajectoryList)

	_, err = NewPairAligner([]*models.Trajectory{trj}, nil, 0, false, logger)
	assertConfigCode(t, err, errors.CodeEmptyTrajectoryList)

	_, err = NewPairAligner([]*models.Trajectory{trj, trj}, []*models.Trajectory{trj}, 0, false, logger)
	assertConfigCode(t, err, errors.CodeListLengthMismatch)

	_, err = NewPairAligner([]*models.Trajectory{trj}, []*models.Trajectory{trj}, -1, false, logger)
	assertConfigCode(t, err, errors.CodeInvalidChainIndex)
}

func TestTruncateToCommonLength(t *testing.T) {
	simulated := []*models.Trajectory{
		createTestTrajectory("sim-1", 100, 3),
		createTestTrajectory("sim-2", 80, 3),
	}
	reference := []*models.Trajectory{
		createTestTrajectory("ref-1", 90, 3),
		createTestTrajectory("ref-2", 95, 3),
	}

	aligner, err := NewPairAligner(simulated, reference, 0, true, logrus.New())
	require.NoError(t, err)

	// Shortest trajectory holds 80 frames; every trajectory is trimmed to
	// one less.
	assert.True(t, aligner.Truncated())
	assert.Equal(t, 79, aligner.MinLength())
	assert.Equal(t, 79, aligner.FrameCount())

	set, err := aligner.ExtractDihedrals()
	require.NoError(t, err)
	for _, tensor := range []AngleTensor{set.SimulatedPhi, set.SimulatedPsi, set.ReferencePhi, set.ReferencePsi} {
		_, _, nFrames := tensor.Dims()
		assert.Equal(t, 79, nFrames)
	}
}

func TestTruncateLeavesCallerListsUntouched(t *testing.T) {
	simulated := []*models.Trajectory{
		createTestTrajectory("sim-1", 50, 2),
		createTestTrajectory("sim-2", 30, 2),
	}
	reference := []*models.Trajectory{
		createTestTrajectory("ref-1", 40, 2),
		createTestTrajectory("ref-2", 60, 2),
	}

	_, err := NewPairAligner(simulated, reference, 0, true, logrus.New())
	require.NoError(t, err)

	assert.Equal(t, 50, simulated[0].NFrames)
	assert.Equal(t, 30, simulated[1].NFrames)
	assert.Equal(t, 40, reference[0].NFrames)
	assert.Equal(t, 60, reference[1].NFrames)
}

func TestTruncateSingleFrameFails(t *testing.T) {
	simulated := []*models.Trajectory{createTestTrajectory("sim", 1, 2)}
	reference := []*models.Trajectory{createTestTrajectory("ref", 50, 2)}

	_, err := NewPairAligner(simulated, reference, 0, true, logrus.New())
	assertConfigCode(t, err, errors.CodeZeroUsableFrames)
}

func TestNoTruncationKeepsFrameCounts(t *testing.T) {
	simulated := []*models.Trajectory{createTestTrajectory("sim", 40, 2)}
	reference := []*models.Trajectory{createTestTrajectory("ref", 40, 2)}

	aligner, err := NewPairAligner(simulated, reference, 0, false, logrus.New())
	require.NoError(t, err)

	assert.False(t, aligner.Truncated())
	assert.Equal(t, -1, aligner.MinLength())
	assert.Equal(t, 40, aligner.FrameCount())
}

func TestFrameCountZeroWhenRagged(t *testing.T) {
	simulated := []*models.Trajectory{createTestTrajectory("sim", 40, 2)}
	reference := []*models.Trajectory{createTestTrajectory("ref", 35, 2)}

	aligner, err := NewPairAligner(simulated, reference, 0, false, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, 0, aligner.FrameCount())
}

func TestExtractDihedralsShapeAndOrder(t *testing.T) {
	simulated := []*models.Trajectory{
		createTestTrajectory("sim-1", 6, 4),
		createTestTrajectory("sim-2", 6, 4),
	}
	reference := []*models.Trajectory{
		createTestTrajectory("ref-1", 6, 4),
		createTestTrajectory("ref-2", 6, 4),
	}

	aligner, err := NewPairAligner(simulated, reference, 0, false, logrus.New())
	require.NoError(t, err)

	set, err := aligner.ExtractDihedrals()
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, set.ResidueIDs)

	nTraj, nRes, nFrames := set.SimulatedPhi.Dims()
	assert.Equal(t, 2, nTraj)
	assert.Equal(t, 4, nRes)
	assert.Equal(t, 6, nFrames)

	// The extraction transposes frame-major chain data into residue-major
	// series: tensor[traj][res][frame] must equal chain.Phi[frame][res].
	chain := simulated[1].Chains[0]
	assert.Equal(t, chain.Phi[5][2], set.SimulatedPhi[1][2][5])
	assert.Equal(t, chain.Psi[3][0], set.SimulatedPsi[1][0][3])
}

func TestExtractDihedralsResidueCountMismatch(t *testing.T) {
	simulated := []*models.Trajectory{
		createTestTrajectory("sim-1", 6, 4),
		createTestTrajectory("sim-2", 6, 5),
	}
	reference := []*models.Trajectory{
		createTestTrajectory("ref-1", 6, 4),
		createTestTrajectory("ref-2", 6, 4),
	}

	aligner, err := NewPairAligner(simulated, reference, 0, false, logrus.New())
	require.NoError(t, err)

	_, err = aligner.ExtractDihedrals()
	require.Error(t, err)

	var shapeErr *errors.ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestExtractDihedralsMissingChain(t *testing.T) {
	simulated := []*models.Trajectory{createTestTrajectory("sim", 6, 4)}
	reference := []*models.Trajectory{createTestTrajectory("ref", 6, 4)}

	aligner, err := NewPairAligner(simulated, reference, 2, false, logrus.New())
	require.NoError(t, err)

	_, err = aligner.ExtractDihedrals()
	assertConfigCode(t, err, errors.CodeInvalidChainIndex)
}

// Helper functions to create test data

// createTestTrajectory builds a single-chain trajectory with residues
// numbered from 1 and angle values that encode their (frame, residue)
// position, so transposition mistakes surface as value mismatches.
func createTestTrajectory(name string, nFrames, nResidues int) *models.Trajectory {
	residueIDs := make([]int, nResidues)
	for r := range residueIDs {
		residueIDs[r] = r + 1
	}

	phi := make([][]float64, nFrames)
	psi := make([][]float64, nFrames)
	for f := 0; f < nFrames; f++ {
		phi[f] = make([]float64, nResidues)
		psi[f] = make([]float64, nResidues)
		for r := 0; r < nResidues; r++ {
			phi[f][r] = float64((f*7+r*13)%350) - 175.0
			psi[f][r] = float64((f*11+r*5)%350) - 175.0
		}
	}

	return &models.Trajectory{
		Name:    name,
		NFrames: nFrames,
		Chains: []*models.ProteinChain{{
			Index:      0,
			ResidueIDs: residueIDs,
			Phi:        phi,
			Psi:        psi,
		}},
	}
}

func assertConfigCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
