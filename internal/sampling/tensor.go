package sampling

import (
	"math"
)

// AngleTensor stacks dihedral samples as [trajectory][residue][frame],
// in degrees. The frame axis may be ragged when truncation is disabled;
// trajectory and residue axes are always rectangular.
type AngleTensor [][][]float64

// PDFTensor stacks per-residue densities as [trajectory][residue][bin].
type PDFTensor [][][]float64

// MetricMatrix holds one divergence score per [trajectory][residue] pair.
type MetricMatrix [][]float64

// Dims returns the tensor extents. Frame extent is taken from the first
// residue series and is only meaningful for rectangular tensors.
func (a AngleTensor) Dims() (nTraj, nRes, nFrames int) {
	nTraj = len(a)
	if nTraj == 0 {
		return 0, 0, 0
	}
	nRes = len(a[0])
	if nRes == 0 {
		return nTraj, 0, 0
	}
	return nTraj, nRes, len(a[0][0])
}

// Dims returns the tensor extents.
func (p PDFTensor) Dims() (nTraj, nRes, nBins int) {
	return AngleTensor(p).Dims()
}

// Dims returns the matrix extents.
func (m MetricMatrix) Dims() (nTraj, nRes int) {
	nTraj = len(m)
	if nTraj == 0 {
		return 0, 0
	}
	return nTraj, len(m[0])
}

// CountInf reports how many entries are infinite. Relative entropy
// produces +Inf wherever the reference density vanishes on a bin the
// simulation sampled.
func (m MetricMatrix) CountInf() int {
	n := 0
	for _, row := range m {
		for _, v := range row {
			if math.IsInf(v, 0) {
				n++
			}
		}
	}
	return n
}

// Row returns row i without copying.
func (m MetricMatrix) Row(i int) []float64 {
	return m[i]
}

func matrixShape(m [][]float64) []int {
	if len(m) == 0 {
		return []int{0, 0}
	}
	return []int{len(m), len(m[0])}
}

func tensorShape(t [][][]float64) []int {
	if len(t) == 0 {
		return []int{0, 0, 0}
	}
	if len(t[0]) == 0 {
		return []int{len(t), 0, 0}
	}
	return []int{len(t), len(t[0]), len(t[0][0])}
}
