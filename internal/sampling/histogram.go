package sampling

import (
	"math"
	"sort"

	"github.com/conformalab/samplequal/pkg/constants"
	"github.com/conformalab/samplequal/pkg/errors"
)

// The binner builds fixed-width bin edges over the circular angle domain
// and converts angle tensors into density histograms. Bin width is always
// an explicit argument, never hidden state, so every function here is pure.

// ValidateBinWidth enforces the circular-domain constraint on a bin width
// in radians: it must be positive and at most one full turn.
func ValidateBinWidth(bwidth float64) error {
	if bwidth <= 0 || bwidth > constants.MaxBinWidthRadians {
		return errors.NewBinWidthError(bwidth)
	}
	return nil
}

// DensityScale returns the multiplier applied to density histograms: the
// bin width converted to degrees and rounded to the nearest integer. The
// scaling matches the reference pipeline's normalization convention and is
// deliberately isolated here so divergence code never depends on it.
func DensityScale(bwidth float64) float64 {
	return math.Round(bwidth * 180.0 / math.Pi)
}

// RadianEdges returns bin edges spanning [-pi, pi] with width bwidth
// radians. The count is closed-form rather than accumulated, so edge
// positions carry no floating-point drift; when the width does not divide
// the domain evenly one extra edge closes a partial final bin.
func RadianEdges(bwidth float64) ([]float64, error) {
	if err := ValidateBinWidth(bwidth); err != nil {
		return nil, err
	}
	return spanEdges(constants.DomainMinRadians, constants.DomainMaxRadians, bwidth), nil
}

// DegreeEdges returns bin edges spanning [-180, 180] with the width
// rounded to whole degrees. Widths below half a degree round to zero and
// are rejected; callers choose widths for which the rounding is
// acceptable.
func DegreeEdges(bwidth float64) ([]float64, error) {
	if err := ValidateBinWidth(bwidth); err != nil {
		return nil, err
	}
	w := DensityScale(bwidth)
	if w <= 0 {
		return nil, errors.NewConfigurationError(errors.CodeBinWidthOutOfRange,
			"bin width rounds to zero whole degrees, choose a width of at least half a degree")
	}
	return spanEdges(constants.DomainMinDegrees, constants.DomainMaxDegrees, w), nil
}

// ComputePDF builds a density histogram for every (trajectory, residue)
// series in the tensor, scaled by DensityScale(bwidth). The leading
// (trajectory, residue) shape is preserved exactly; the last axis becomes
// len(edges)-1. Output values are non-negative and empty bins are exactly
// zero.
func ComputePDF(angles AngleTensor, edges []float64, bwidth float64) (PDFTensor, error) {
	scale, err := pdfScale(edges, bwidth)
	if err != nil {
		return nil, err
	}
	out := make(PDFTensor, len(angles))
	for t, residues := range angles {
		out[t] = make([][]float64, len(residues))
		for r, series := range residues {
			out[t][r] = scaledDensityHistogram(series, edges, scale)
		}
	}
	return out, nil
}

// ComputePDFMatrix is the two-dimensional form of ComputePDF for a single
// trajectory's (residue x frame) matrix.
func ComputePDFMatrix(angles [][]float64, edges []float64, bwidth float64) ([][]float64, error) {
	scale, err := pdfScale(edges, bwidth)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(angles))
	for r, series := range angles {
		out[r] = scaledDensityHistogram(series, edges, scale)
	}
	return out, nil
}

// ComputePDFSeries histograms a single residue's angle series.
func ComputePDFSeries(angles []float64, edges []float64, bwidth float64) ([]float64, error) {
	scale, err := pdfScale(edges, bwidth)
	if err != nil {
		return nil, err
	}
	return scaledDensityHistogram(angles, edges, scale), nil
}

// Helper functions

// spanEdges builds start + i*width for i in [0, round(span/width)], then
// appends one further edge if the last one falls short of stop.
func spanEdges(start, stop, width float64) []float64 {
	n := int(math.Round((stop-start)/width)) + 1
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*width
	}
	if out[n-1] < stop {
		out = append(out, out[n-1]+width)
	}
	return out
}

func pdfScale(edges []float64, bwidth float64) (float64, error) {
	if err := ValidateBinWidth(bwidth); err != nil {
		return 0, err
	}
	if len(edges) < 2 {
		return 0, errors.NewConfigurationError(errors.CodeBinWidthOutOfRange,
			"bin edges must contain at least two boundaries")
	}
	scale := DensityScale(bwidth)
	if scale <= 0 {
		return 0, errors.NewConfigurationError(errors.CodeBinWidthOutOfRange,
			"bin width rounds to zero whole degrees, choose a width of at least half a degree")
	}
	return scale, nil
}

// scaledDensityHistogram bins samples over edges, normalizes so the
// histogram integrates to one over the edge range, then applies the
// density scale. Samples outside the edge range are excluded from both
// the counts and the normalization. The final bin includes its right
// edge.
func scaledDensityHistogram(samples []float64, edges []float64, scale float64) []float64 {
	nbins := len(edges) - 1
	counts := make([]float64, nbins)
	var total float64
	for _, x := range samples {
		idx := binIndex(x, edges)
		if idx < 0 {
			continue
		}
		counts[idx]++
		total++
	}
	if total == 0 {
		return counts
	}
	for i := range counts {
		width := edges[i+1] - edges[i]
		counts[i] = counts[i] / (total * width) * scale
	}
	return counts
}

// binIndex locates the half-open bin [edges[i], edges[i+1]) containing x,
// with the last bin closed on the right. Returns -1 when x lies outside
// the edge range.
func binIndex(x float64, edges []float64) int {
	nbins := len(edges) - 1
	if x < edges[0] || x > edges[nbins] {
		return -1
	}
	idx := sort.SearchFloat64s(edges, x)
	if idx < len(edges) && edges[idx] == x {
		// x sits exactly on a boundary: it opens bin idx, except at the
		// final edge which closes the last bin.
		if idx == nbins {
			return nbins - 1
		}
		return idx
	}
	return idx - 1
}
