package sampling

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/conformalab/samplequal/pkg/errors"
)

// Divergence measures between paired density vectors. All batched forms
// reduce over the final (bin) axis only and preserve the leading shape.
// Inputs are the non-negative densities produced by ComputePDF; shape
// mismatches fail, they are never broadcast.

// HellingerDistance computes (1/sqrt(2)) * sqrt(sum((sqrt(p)-sqrt(q))^2))
// over one pair of density vectors. The result is symmetric and, for
// probability-like inputs, bounded in [0, 1]. Identical inputs yield an
// exact zero.
func HellingerDistance(p, q []float64) (float64, error) {
	if len(p) != len(q) {
		return 0, errors.NewShapeError("hellinger distance", []int{len(p)}, []int{len(q)})
	}
	var sum float64
	for i := range p {
		d := math.Sqrt(p[i]) - math.Sqrt(q[i])
		sum += d * d
	}
	return math.Sqrt(sum) / math.Sqrt2, nil
}

// HellingerDistanceMatrix reduces a (residue x bin) pair to per-residue
// distances.
func HellingerDistanceMatrix(p, q [][]float64) ([]float64, error) {
	if len(p) != len(q) {
		return nil, errors.NewShapeError("hellinger distance", matrixShape(p), matrixShape(q))
	}
	out := make([]float64, len(p))
	for i := range p {
		d, err := HellingerDistance(p[i], q[i])
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// HellingerDistanceTensor reduces a (trajectory x residue x bin) pair to a
// (trajectory x residue) matrix.
func HellingerDistanceTensor(p, q PDFTensor) (MetricMatrix, error) {
	if len(p) != len(q) {
		return nil, errors.NewShapeError("hellinger distance", tensorShape(p), tensorShape(q))
	}
	out := make(MetricMatrix, len(p))
	for i := range p {
		row, err := HellingerDistanceMatrix(p[i], q[i])
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// RelEntropy computes the relative entropy (KL divergence)
// sum(p_i * log(p_i / q_i)) of p from q. Argument order matters: p is the
// simulated density, q the reference. Zero simulated density contributes
// nothing (0 * log(0/q) = 0); zero reference density under positive
// simulated density diverges to +Inf, which is propagated rather than
// masked as NaN so callers can detect and report the degeneracy.
func RelEntropy(p, q []float64) (float64, error) {
	if len(p) != len(q) {
		return 0, errors.NewShapeError("relative entropy", []int{len(p)}, []int{len(q)})
	}
	return stat.KullbackLeibler(p, q), nil
}

// RelEntropyMatrix reduces a (residue x bin) pair to per-residue
// divergences.
func RelEntropyMatrix(p, q [][]float64) ([]float64, error) {
	if len(p) != len(q) {
		return nil, errors.NewShapeError("relative entropy", matrixShape(p), matrixShape(q))
	}
	out := make([]float64, len(p))
	for i := range p {
		d, err := RelEntropy(p[i], q[i])
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// RelEntropyTensor reduces a (trajectory x residue x bin) pair to a
// (trajectory x residue) matrix.
func RelEntropyTensor(p, q PDFTensor) (MetricMatrix, error) {
	if len(p) != len(q) {
		return nil, errors.NewShapeError("relative entropy", tensorShape(p), tensorShape(q))
	}
	out := make(MetricMatrix, len(p))
	for i := range p {
		row, err := RelEntropyMatrix(p[i], q[i])
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}
