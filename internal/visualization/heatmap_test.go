package visualization

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/interfaces"
)

func TestHeatmapRendererName(t *testing.T) {
	renderer := NewHeatmapRenderer(nil, logrus.New())
	assert.Equal(t, "gonum-heatmap", renderer.Name())
}

func TestRenderPhiPsiWritesPNG(t *testing.T) {
	renderer := createTestRenderer()
	outDir := filepath.Join(t.TempDir(), "plots", "hellinger")

	opts := interfaces.HeatmapOptions{
		MetricLabel: "hellinger distance",
		VMin:        0,
		VMax:        1,
		Annotate:    true,
		ResidueIDs:  []int{4, 5, 6},
		OutputDir:   outDir,
		Filename:    "h.png",
	}
	err := renderer.RenderPhiPsi(createTestMetricMatrix(2, 3), createTestMetricMatrix(2, 3), opts)
	require.NoError(t, err)

	// The nested output directory is created and the file is a decodable
	// PNG at the configured size: 6x3 inches at 72 DPI.
	f, err := os.Open(filepath.Join(outDir, "h.png"))
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 432, bounds.Dx())
	assert.Equal(t, 216, bounds.Dy())
}

func TestRenderPhiPsiDefaultFilename(t *testing.T) {
	renderer := createTestRenderer()
	outDir := t.TempDir()

	opts := interfaces.HeatmapOptions{VMin: 0, VMax: 1, OutputDir: outDir}
	err := renderer.RenderPhiPsi(createTestMetricMatrix(2, 3), createTestMetricMatrix(2, 3), opts)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "sampling_quality.png"))
	assert.NoError(t, err)
}

func TestRenderPhiPsiComposeOnly(t *testing.T) {
	// Without an output directory the figure is composed and discarded.
	renderer := createTestRenderer()

	opts := interfaces.HeatmapOptions{VMin: 0, VMax: 1}
	err := renderer.RenderPhiPsi(createTestMetricMatrix(3, 4), createTestMetricMatrix(3, 4), opts)
	assert.NoError(t, err)
}

func TestRenderPhiPsiEmptyMatrix(t *testing.T) {
	renderer := createTestRenderer()

	err := renderer.RenderPhiPsi(nil, createTestMetricMatrix(2, 3), interfaces.HeatmapOptions{})
	assertRenderCode(t, err, errors.CodeEmptyMatrix)

	err = renderer.RenderPhiPsi([][]float64{{}}, createTestMetricMatrix(2, 3), interfaces.HeatmapOptions{})
	assertRenderCode(t, err, errors.CodeEmptyMatrix)
}

func TestRenderPhiPsiShapeMismatch(t *testing.T) {
	renderer := createTestRenderer()

	err := renderer.RenderPhiPsi(createTestMetricMatrix(2, 3), createTestMetricMatrix(2, 2), interfaces.HeatmapOptions{})
	require.Error(t, err)

	var shapeErr *errors.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, []int{2, 3}, shapeErr.Want)
	assert.Equal(t, []int{2, 2}, shapeErr.Got)
}

func TestRenderPhiPsiHandlesInfEntries(t *testing.T) {
	// Diverged relative entropy entries render at the top of the color
	// scale instead of breaking the palette lookup.
	renderer := createTestRenderer()
	phi := createTestMetricMatrix(2, 3)
	phi[1][2] = math.Inf(1)

	opts := interfaces.HeatmapOptions{VMin: 0, VMax: 2, Annotate: true, OutputDir: t.TempDir()}
	err := renderer.RenderPhiPsi(phi, createTestMetricMatrix(2, 3), opts)
	assert.NoError(t, err)
}

func TestMetricGridClampsToScale(t *testing.T) {
	grid := metricGrid{
		matrix: [][]float64{{0.5, 5.0}, {-1.0, math.Inf(1)}},
		vmin:   0,
		vmax:   1,
	}

	c, r := grid.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)

	assert.Equal(t, 0.5, grid.Z(0, 0))
	assert.Equal(t, 1.0, grid.Z(1, 0), "values above vmax clamp to vmax")
	assert.Equal(t, 0.0, grid.Z(0, 1), "values below vmin clamp to vmin")
	assert.Equal(t, 1.0, grid.Z(1, 1), "inf clamps to vmax")

	assert.Equal(t, 1.0, grid.X(1))
	assert.Equal(t, 1.0, grid.Y(1))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "0.24", formatCell(0.237))
	assert.Equal(t, "1.00", formatCell(1.0))
	assert.Equal(t, "inf", formatCell(math.Inf(1)))
}

func TestResidueTicks(t *testing.T) {
	// Residue IDs label their columns; columns beyond the ID list fall
	// back to 1-based indices.
	ticks := residueTicks(3, []int{7, 8})
	require.Len(t, ticks, 3)
	assert.Equal(t, "7", ticks[0].Label)
	assert.Equal(t, "8", ticks[1].Label)
	assert.Equal(t, "3", ticks[2].Label)
	assert.Equal(t, 1.0, ticks[1].Value)
}

func TestTrajectoryTicks(t *testing.T) {
	ticks := trajectoryTicks(2)
	require.Len(t, ticks, 2)
	assert.Equal(t, "1", ticks[0].Label)
	assert.Equal(t, "2", ticks[1].Label)
}

// Helper functions to create test data

func createTestRenderer() *HeatmapRenderer {
	config := &HeatmapConfig{
		WidthInches:   6,
		HeightInches:  3,
		DPI:           72,
		PaletteColors: 32,
		AnnotationPts: 6,
	}
	return NewHeatmapRenderer(config, logrus.New())
}

func createTestMetricMatrix(nTraj, nRes int) [][]float64 {
	m := make([][]float64, nTraj)
	for t := 0; t < nTraj; t++ {
		m[t] = make([]float64, nRes)
		for r := 0; r < nRes; r++ {
			m[t][r] = float64((t*3+r)%10) / 10.0
		}
	}
	return m
}

func assertRenderCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
