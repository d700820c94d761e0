package sampling

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/conformalab/samplequal/internal/trajectory"
	"github.com/conformalab/samplequal/pkg/constants"
	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/interfaces"
	"github.com/conformalab/samplequal/pkg/models"
)

// Config configures one sampling quality comparison run. Bin width is in
// radians and is threaded explicitly through every binning call.
type Config struct {
	Method     Method                `json:"method" yaml:"method"`
	BinWidth   float64               `json:"bin_width_radians" yaml:"bin_width_radians"`
	ChainIndex int                   `json:"chain_index" yaml:"chain_index"`
	Truncate   bool                  `json:"truncate" yaml:"truncate"`
	Workers    int                   `json:"workers" yaml:"workers"`
	Simulated  []interfaces.PathPair `json:"simulated" yaml:"simulated"`
	Reference  []interfaces.PathPair `json:"reference" yaml:"reference"`
}

// Engine scores how well simulated trajectories sample conformational
// space against a limiting polymer model reference. Construction
// validates the configuration, loads both trajectory populations through
// the injected loader, aligns them pairwise and extracts the dihedral
// tensors; afterwards every public operation recomputes its result from
// those tensors on demand.
type Engine struct {
	config    *Config
	logger    *logrus.Logger
	renderer  interfaces.HeatmapRenderer
	simulated []*models.Trajectory
	reference []*models.Trajectory
	aligner   *PairAligner
	dihedrals *DihedralSet
}

// NewEngine builds a ready engine or fails. Configuration problems
// (unknown or unimplemented method, bin width outside (0, 2*pi], missing
// path lists) are rejected before the loader is ever invoked.
func NewEngine(ctx context.Context, config *Config, loader interfaces.TrajectoryLoader, logger *logrus.Logger) (*Engine, error) {
	if config == nil {
		config = getDefaultEngineConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	if err := validateEngineConfig(config); err != nil {
		return nil, err
	}
	if loader == nil {
		return nil, errors.NewInternalError("trajectory loader is required")
	}

	e := &Engine{
		config: config,
		logger: logger,
	}

	if err := e.load(ctx, loader); err != nil {
		return nil, err
	}
	if err := e.align(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"method":       config.Method,
		"bwidth_rad":   config.BinWidth,
		"bwidth_deg":   DensityScale(config.BinWidth),
		"trajectories": len(e.simulated),
		"residues":     len(e.dihedrals.ResidueIDs),
		"truncated":    e.aligner.Truncated(),
	}).Info("Sampling quality engine ready")

	return e, nil
}

// SetRenderer installs the heatmap renderer used by RenderMetricHeatmap.
func (e *Engine) SetRenderer(renderer interfaces.HeatmapRenderer) {
	e.renderer = renderer
}

// Method returns the configured comparison method.
func (e *Engine) Method() Method {
	return e.config.Method
}

// BinWidth returns the configured bin width in radians.
func (e *Engine) BinWidth() float64 {
	return e.config.BinWidth
}

// ResidueIDs returns the residue numbering of the compared chain.
func (e *Engine) ResidueIDs() []int {
	return e.dihedrals.ResidueIDs
}

// FrameCount returns the frame count shared by every trajectory, or 0
// when untruncated trajectories differ in length.
func (e *Engine) FrameCount() int {
	return e.aligner.FrameCount()
}

// Truncated reports whether trajectories were trimmed to a common length.
func (e *Engine) Truncated() bool {
	return e.aligner.Truncated()
}

// ComputeDihedralHellingers builds phi and psi PDFs for both populations
// over the shared degree bin edges and returns the per-trajectory,
// per-residue Hellinger distances.
func (e *Engine) ComputeDihedralHellingers() (MetricMatrix, MetricMatrix, error) {
	pdfs, err := e.buildPDFs()
	if err != nil {
		return nil, nil, err
	}
	phi, err := HellingerDistanceTensor(pdfs.simPhi, pdfs.refPhi)
	if err != nil {
		return nil, nil, err
	}
	psi, err := HellingerDistanceTensor(pdfs.simPsi, pdfs.refPsi)
	if err != nil {
		return nil, nil, err
	}
	return phi, psi, nil
}

// ComputeDihedralRelEntropy returns the per-trajectory, per-residue
// relative entropy of the simulated densities from the reference
// densities. Argument order is fixed (simulated, reference); swapping
// sides changes the answer. Entries where the reference density vanished
// on sampled bins are +Inf and their count is logged.
func (e *Engine) ComputeDihedralRelEntropy() (MetricMatrix, MetricMatrix, error) {
	pdfs, err := e.buildPDFs()
	if err != nil {
		return nil, nil, err
	}
	phi, err := RelEntropyTensor(pdfs.simPhi, pdfs.refPhi)
	if err != nil {
		return nil, nil, err
	}
	psi, err := RelEntropyTensor(pdfs.simPsi, pdfs.refPsi)
	if err != nil {
		return nil, nil, err
	}
	if n := phi.CountInf() + psi.CountInf(); n > 0 {
		e.logger.WithFields(logrus.Fields{
			"entries": n,
		}).Warn("Relative entropy diverged where reference density is zero")
	}
	return phi, psi, nil
}

// SimulatedPDFs returns the phi and psi density tensors of the simulated
// population, recomputed from the angle tensors.
func (e *Engine) SimulatedPDFs() (PDFTensor, PDFTensor, error) {
	edges, err := DegreeEdges(e.config.BinWidth)
	if err != nil {
		return nil, nil, err
	}
	phi, err := ComputePDF(e.dihedrals.SimulatedPhi, edges, e.config.BinWidth)
	if err != nil {
		return nil, nil, err
	}
	psi, err := ComputePDF(e.dihedrals.SimulatedPsi, edges, e.config.BinWidth)
	if err != nil {
		return nil, nil, err
	}
	return phi, psi, nil
}

// ReferencePDFs returns the phi and psi density tensors of the reference
// population.
func (e *Engine) ReferencePDFs() (PDFTensor, PDFTensor, error) {
	edges, err := DegreeEdges(e.config.BinWidth)
	if err != nil {
		return nil, nil, err
	}
	phi, err := ComputePDF(e.dihedrals.ReferencePhi, edges, e.config.BinWidth)
	if err != nil {
		return nil, nil, err
	}
	psi, err := ComputePDF(e.dihedrals.ReferencePsi, edges, e.config.BinWidth)
	if err != nil {
		return nil, nil, err
	}
	return phi, psi, nil
}

// RenderMetricHeatmap renders the selected metric as a two-panel
// (phi | psi) heatmap through the installed renderer. The metric set is
// closed; anything else fails without touching the renderer.
func (e *Engine) RenderMetricHeatmap(metric Metric, opts interfaces.HeatmapOptions) error {
	var (
		phi, psi MetricMatrix
		err      error
	)
	switch metric {
	case MetricHellinger:
		phi, psi, err = e.ComputeDihedralHellingers()
	case MetricRelativeEntropy:
		phi, psi, err = e.ComputeDihedralRelEntropy()
	default:
		return errors.NewMetricNameError(string(metric), SupportedMetrics())
	}
	if err != nil {
		return err
	}
	if e.renderer == nil {
		return errors.NewRenderError("no heatmap renderer configured")
	}

	if opts.MetricLabel == "" {
		opts.MetricLabel = metric.Label()
	}
	if opts.VMax <= opts.VMin {
		opts.VMin = constants.DefaultHeatmapVMin
		opts.VMax = constants.DefaultHeatmapVMax
	}
	if opts.ResidueIDs == nil {
		opts.ResidueIDs = e.dihedrals.ResidueIDs
	}
	if opts.Filename == "" {
		opts.Filename = constants.DefaultHeatmapFilename
	}
	return e.renderer.RenderPhiPsi(phi, psi, opts)
}

// Report computes both metrics and condenses them into a result document
// with per-trajectory summaries.
func (e *Engine) Report() (*models.SamplingReport, error) {
	start := time.Now()

	phiH, psiH, err := e.ComputeDihedralHellingers()
	if err != nil {
		return nil, err
	}
	phiK, psiK, err := e.ComputeDihedralRelEntropy()
	if err != nil {
		return nil, err
	}

	completed := time.Now()
	report := &models.SamplingReport{
		ID:              uuid.New().String(),
		Method:          string(e.config.Method),
		BinWidthRadians: e.config.BinWidth,
		BinWidthDegrees: DensityScale(e.config.BinWidth),
		ChainIndex:      e.config.ChainIndex,
		Truncated:       e.aligner.Truncated(),
		FrameCount:      e.aligner.FrameCount(),
		NTrajectories:   len(e.simulated),
		ResidueIDs:      e.dihedrals.ResidueIDs,
		Trajectories:    trajectoryNames(e.simulated),
		References:      trajectoryNames(e.reference),
		Hellinger:       &models.MetricSet{Phi: phiH, Psi: psiH},
		RelativeEntropy: &models.MetricSet{Phi: clampNonFinite(phiK), Psi: clampNonFinite(psiK)},
		Summaries:       buildSummaries(e.simulated, phiH, psiH, phiK, psiK),
		StartedAt:       start,
		CompletedAt:     completed,
		Duration:        completed.Sub(start),
	}
	return report, nil
}

// Private methods

type pdfSet struct {
	simPhi, simPsi PDFTensor
	refPhi, refPsi PDFTensor
}

func (e *Engine) buildPDFs() (*pdfSet, error) {
	simPhi, simPsi, err := e.SimulatedPDFs()
	if err != nil {
		return nil, err
	}
	refPhi, refPsi, err := e.ReferencePDFs()
	if err != nil {
		return nil, err
	}
	return &pdfSet{simPhi: simPhi, simPsi: simPsi, refPhi: refPhi, refPsi: refPsi}, nil
}

func (e *Engine) load(ctx context.Context, loader interfaces.TrajectoryLoader) error {
	simulated, err := trajectory.ParallelLoad(ctx, e.config.Simulated, loader, e.config.Workers, e.logger)
	if err != nil {
		return err
	}
	reference, err := trajectory.ParallelLoad(ctx, e.config.Reference, loader, e.config.Workers, e.logger)
	if err != nil {
		return err
	}
	e.simulated = simulated
	e.reference = reference
	return nil
}

func (e *Engine) align() error {
	aligner, err := NewPairAligner(e.simulated, e.reference, e.config.ChainIndex, e.config.Truncate, e.logger)
	if err != nil {
		return err
	}
	dihedrals, err := aligner.ExtractDihedrals()
	if err != nil {
		return err
	}
	e.aligner = aligner
	e.dihedrals = dihedrals
	return nil
}

// Helper functions

func getDefaultEngineConfig() *Config {
	return &Config{
		Method:     MethodDihedral,
		BinWidth:   constants.DefaultBinWidthRadians,
		ChainIndex: constants.DefaultChainIndex,
		Truncate:   constants.DefaultTruncate,
		Workers:    constants.DefaultLoadWorkers,
	}
}

// validateEngineConfig applies the fail-fast construction checks in a
// fixed order: method first, bin width second, path lists last. All of
// them run before any I/O.
func validateEngineConfig(config *Config) error {
	if err := config.Method.Validate(); err != nil {
		return err
	}
	if err := ValidateBinWidth(config.BinWidth); err != nil {
		return err
	}
	// Surfaces sub-half-degree widths whose degree rounding collapses.
	if _, err := DegreeEdges(config.BinWidth); err != nil {
		return err
	}
	if len(config.Simulated) == 0 || len(config.Reference) == 0 {
		return errors.NewConfigurationError(errors.CodeEmptyTrajectoryList,
			fmt.Sprintf("both path lists must be non-empty, received %d simulated and %d reference",
				len(config.Simulated), len(config.Reference)))
	}
	if len(config.Simulated) != len(config.Reference) {
		return errors.NewConfigurationError(errors.CodeListLengthMismatch,
			fmt.Sprintf("path lists must pair positionally, received %d simulated and %d reference",
				len(config.Simulated), len(config.Reference)))
	}
	if config.Workers < 0 {
		return errors.NewConfigurationError(errors.CodeInvalidWorkerCount,
			fmt.Sprintf("worker count must be non-negative, received %d", config.Workers))
	}
	return nil
}

func trajectoryNames(list []*models.Trajectory) []string {
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	return names
}

// clampNonFinite maps infinite divergence entries onto the JSON-safe
// clamp value, leaving the in-memory matrices untouched.
func clampNonFinite(m MetricMatrix) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if math.IsInf(v, 1) {
				out[i][j] = models.InfClampValue
			} else {
				out[i][j] = v
			}
		}
	}
	return out
}

func buildSummaries(simulated []*models.Trajectory, phiH, psiH, phiK, psiK MetricMatrix) []models.TrajectorySummary {
	summaries := make([]models.TrajectorySummary, len(simulated))
	for i, t := range simulated {
		sum := models.TrajectorySummary{
			Trajectory:        t.Name,
			MeanHellingerPhi:  stat.Mean(phiH[i], nil),
			MeanHellingerPsi:  stat.Mean(psiH[i], nil),
			MaxHellingerPhi:   floats.Max(phiH[i]),
			MaxHellingerPsi:   floats.Max(psiH[i]),
			MeanRelEntropyPhi: finiteMean(phiK[i]),
			MeanRelEntropyPsi: finiteMean(psiK[i]),
		}
		for _, row := range [][]float64{phiK[i], psiK[i]} {
			for _, v := range row {
				if math.IsInf(v, 0) {
					sum.DegenerateBins++
				}
			}
		}
		summaries[i] = sum
	}
	return summaries
}

// finiteMean averages the finite entries of a row, so a handful of
// divergent residues cannot blank the whole summary.
func finiteMean(row []float64) float64 {
	var sum float64
	var n int
	for _, v := range row {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return models.InfClampValue
	}
	return sum / float64(n)
}
