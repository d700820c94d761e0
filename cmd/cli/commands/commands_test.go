package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformalab/samplequal/internal/sampling"
	"github.com/conformalab/samplequal/pkg/models"
)

func TestResolveMetrics(t *testing.T) {
	metrics, err := resolveMetrics("all")
	require.NoError(t, err)
	assert.Equal(t, []sampling.Metric{sampling.MetricHellinger, sampling.MetricRelativeEntropy}, metrics)

	metrics, err = resolveMetrics("ALL")
	require.NoError(t, err)
	assert.Len(t, metrics, 2)

	metrics, err = resolveMetrics("hellinger")
	require.NoError(t, err)
	assert.Equal(t, []sampling.Metric{sampling.MetricHellinger}, metrics)

	_, err = resolveMetrics("wasserstein")
	assert.Error(t, err)
}

func TestHeatmapFilename(t *testing.T) {
	assert.Equal(t, "hellinger_distance.png", heatmapFilename(sampling.MetricHellinger))
	assert.Equal(t, "relative_entropy.png", heatmapFilename(sampling.MetricRelativeEntropy))
}

func TestMetricBounds(t *testing.T) {
	report := &models.SamplingReport{
		RelativeEntropy: &models.MetricSet{
			Phi: [][]float64{{0.4, 2.5}},
			Psi: [][]float64{{1.1, models.InfClampValue}},
		},
	}

	vmin, vmax := metricBounds(sampling.MetricHellinger, report)
	assert.Equal(t, 0.0, vmin)
	assert.Equal(t, 1.0, vmax)

	// Relative entropy scales to the largest finite entry; clamped
	// divergence markers do not stretch the scale.
	vmin, vmax = metricBounds(sampling.MetricRelativeEntropy, report)
	assert.Equal(t, 0.0, vmin)
	assert.Equal(t, 2.5, vmax)
}

func TestMetricBoundsFallsBackToDefaults(t *testing.T) {
	vmin, vmax := metricBounds(sampling.MetricRelativeEntropy, &models.SamplingReport{})
	assert.Equal(t, 0.0, vmin)
	assert.Equal(t, 1.0, vmax)

	allClamped := &models.SamplingReport{
		RelativeEntropy: &models.MetricSet{
			Phi: [][]float64{{models.InfClampValue}},
			Psi: [][]float64{{models.InfClampValue}},
		},
	}
	vmin, vmax = metricBounds(sampling.MetricRelativeEntropy, allClamped)
	assert.Equal(t, 0.0, vmin)
	assert.Equal(t, 1.0, vmax)
}

func TestSummaryName(t *testing.T) {
	assert.Equal(t, "runs/rep1", summaryName(0, "runs/rep1"))
	assert.Equal(t, "Trajectory 3", summaryName(2, ""))
}

func TestTotalDegenerateBins(t *testing.T) {
	report := &models.SamplingReport{
		Summaries: []models.TrajectorySummary{
			{DegenerateBins: 3},
			{DegenerateBins: 0},
			{DegenerateBins: 5},
		},
	}
	assert.Equal(t, 8, totalDegenerateBins(report))
}

func TestNewCompareCmd(t *testing.T) {
	cmd := NewCompareCmd()

	assert.Equal(t, "compare", cmd.Use)
	for _, name := range []string{
		"simulated", "reference", "mode", "reps", "bwidth-deg", "chain",
		"truncate", "workers", "metric", "output", "heatmap-dir", "annotate",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}

	assert.Equal(t, "walk", cmd.Flags().Lookup("mode").DefValue)
	assert.Equal(t, "15", cmd.Flags().Lookup("bwidth-deg").DefValue)
	assert.Equal(t, "all", cmd.Flags().Lookup("metric").DefValue)
	assert.Equal(t, "true", cmd.Flags().Lookup("annotate").DefValue)
}

func TestNewPathsCmd(t *testing.T) {
	cmd := NewPathsCmd()

	assert.Equal(t, "paths", cmd.Use)
	for _, name := range []string{"root", "mode", "reps", "trajectory-name", "topology-name", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}

	assert.Equal(t, "__traj_angles.json", cmd.Flags().Lookup("trajectory-name").DefValue)
	assert.Equal(t, "text", cmd.Flags().Lookup("format").DefValue)
}
