package sampling

import (
	"strings"

	"github.com/conformalab/samplequal/pkg/errors"
)

// Method selects the trajectory comparison algorithm. The set is closed:
// every recognized name is enumerated here and dispatch switches over the
// full set, so adding a method is a compile-visible change.
type Method string

const (
	// MethodDihedral compares per-residue phi/psi dihedral distributions.
	MethodDihedral Method = "dihedral"

	// MethodRMSD is reserved for pairwise RMSD comparison. Recognized but
	// not implemented; engine construction rejects it eagerly.
	MethodRMSD Method = "rmsd"

	// MethodPVectors is reserved for end-to-end vector comparison.
	// Recognized but not implemented; engine construction rejects it.
	MethodPVectors Method = "p_vects"
)

// SupportedMethods lists every recognized method name.
func SupportedMethods() []string {
	return []string{string(MethodDihedral), string(MethodRMSD), string(MethodPVectors)}
}

// ParseMethod maps a method name onto the closed method set.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodDihedral:
		return MethodDihedral, nil
	case MethodRMSD:
		return MethodRMSD, nil
	case MethodPVectors:
		return MethodPVectors, nil
	default:
		return "", errors.NewUnknownMethodError(s, SupportedMethods())
	}
}

// Validate rejects methods that parse but have no implementation, so the
// failure surfaces before any trajectory loading starts.
func (m Method) Validate() error {
	switch m {
	case MethodDihedral:
		return nil
	case MethodRMSD, MethodPVectors:
		return errors.NewPendingMethodError(string(m))
	default:
		return errors.NewUnknownMethodError(string(m), SupportedMethods())
	}
}

// Metric selects which divergence measure a rendering or report operation
// works with.
type Metric string

const (
	MetricHellinger       Metric = "hellinger"
	MetricRelativeEntropy Metric = "relative_entropy"
)

// SupportedMetrics lists every supported metric name.
func SupportedMetrics() []string {
	return []string{string(MetricHellinger), string(MetricRelativeEntropy)}
}

// ParseMetric maps a metric name onto the closed metric set. Legacy
// spellings from the reference pipeline ("hellingers", "relative entropy")
// are normalized.
func ParseMetric(s string) (Metric, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "hellinger", "hellingers":
		return MetricHellinger, nil
	case "relative_entropy", "relative entropy", "rel_entropy":
		return MetricRelativeEntropy, nil
	default:
		return "", errors.NewMetricNameError(s, SupportedMetrics())
	}
}

// Label returns the human-readable metric name used in panel titles.
func (m Metric) Label() string {
	switch m {
	case MetricHellinger:
		return "hellinger distance"
	case MetricRelativeEntropy:
		return "relative entropy"
	default:
		return string(m)
	}
}
