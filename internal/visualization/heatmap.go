package visualization

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/conformalab/samplequal/pkg/constants"
	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/interfaces"
)

// HeatmapConfig configures the PNG heatmap renderer.
type HeatmapConfig struct {
	// WidthInches and HeightInches size the full two-panel figure.
	WidthInches  float64 `json:"width_inches" yaml:"width_inches"`
	HeightInches float64 `json:"height_inches" yaml:"height_inches"`

	// DPI sets the raster resolution of the written PNG.
	DPI int `json:"dpi" yaml:"dpi"`

	// PaletteColors is the number of discrete palette levels.
	PaletteColors int `json:"palette_colors" yaml:"palette_colors"`

	// AnnotationPts is the font size of per-cell value annotations.
	AnnotationPts float64 `json:"annotation_pts" yaml:"annotation_pts"`
}

// HeatmapRenderer draws (trajectory x residue) metric matrices as a
// two-panel phi | psi figure with a shared color scale and colorbar,
// rendered through gonum/plot.
type HeatmapRenderer struct {
	config *HeatmapConfig
	logger *logrus.Logger
}

// NewHeatmapRenderer creates a heatmap renderer.
func NewHeatmapRenderer(config *HeatmapConfig, logger *logrus.Logger) *HeatmapRenderer {
	if config == nil {
		config = getDefaultHeatmapConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &HeatmapRenderer{
		config: config,
		logger: logger,
	}
}

// Name returns the renderer identifier.
func (r *HeatmapRenderer) Name() string {
	return "gonum-heatmap"
}

// RenderPhiPsi renders the two matrices side by side under one color
// scale. When opts.OutputDir is non-empty the figure is written there as
// a PNG, creating the directory if needed; otherwise the figure is
// composed and discarded.
func (r *HeatmapRenderer) RenderPhiPsi(phi, psi [][]float64, opts interfaces.HeatmapOptions) error {
	if len(phi) == 0 || len(phi[0]) == 0 || len(psi) == 0 || len(psi[0]) == 0 {
		return errors.NewAppError(errors.ErrorTypeRender, errors.CodeEmptyMatrix,
			"phi and psi matrices must be non-empty")
	}
	if len(phi) != len(psi) || len(phi[0]) != len(psi[0]) {
		return errors.NewShapeError("heatmap rendering",
			[]int{len(phi), len(phi[0])}, []int{len(psi), len(psi[0])})
	}
	if opts.VMax <= opts.VMin {
		opts.VMin = constants.DefaultHeatmapVMin
		opts.VMax = constants.DefaultHeatmapVMax
	}

	colorMap := moreland.SmoothBlueRed()
	colorMap.SetMin(opts.VMin)
	colorMap.SetMax(opts.VMax)
	pal := colorMap.Palette(r.config.PaletteColors)

	phiPlot, err := r.panel("Phi "+opts.MetricLabel, phi, pal, opts, true)
	if err != nil {
		return err
	}
	psiPlot, err := r.panel("Psi "+opts.MetricLabel, psi, pal, opts, false)
	if err != nil {
		return err
	}

	barPlot := plot.New()
	bar := &plotter.ColorBar{ColorMap: colorMap}
	bar.Vertical = true
	barPlot.Add(bar)
	barPlot.HideX()

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.config.WidthInches)*vg.Inch, vg.Length(r.config.HeightInches)*vg.Inch),
		vgimg.UseDPI(r.config.DPI),
	)
	dc := draw.New(img)

	// Panels take the left span of the canvas, the colorbar the
	// remaining right strip.
	total := dc.Rectangle.Size()
	barWidth := total.X / 12
	panelArea := draw.Crop(dc, 0, -barWidth, 0, 0)
	barArea := draw.Crop(dc, total.X-barWidth, 0, total.Y/10, -total.Y/10)

	tiles := draw.Tiles{
		Rows: 1,
		Cols: 2,
		PadX: vg.Millimeter * 4,
	}
	plots := [][]*plot.Plot{{phiPlot, psiPlot}}
	canvases := plot.Align(plots, tiles, panelArea)
	phiPlot.Draw(canvases[0][0])
	psiPlot.Draw(canvases[0][1])
	barPlot.Draw(barArea)

	if opts.OutputDir == "" {
		r.logger.Debug("No output directory given, heatmap composed but not written")
		return nil
	}
	return r.write(img, opts)
}

// Private methods

// panel builds one heatmap panel. Only the leftmost panel carries the
// trajectory axis label, matching the shared-axis layout.
func (r *HeatmapRenderer) panel(title string, matrix [][]float64, pal palette.Palette, opts interfaces.HeatmapOptions, leftmost bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Residue Index"
	if leftmost {
		p.Y.Label.Text = "Trajectory Index"
	}

	grid := metricGrid{matrix: matrix, vmin: opts.VMin, vmax: opts.VMax}
	hm := plotter.NewHeatMap(grid, pal)
	hm.Min = opts.VMin
	hm.Max = opts.VMax
	p.Add(hm)

	p.X.Tick.Marker = plot.ConstantTicks(residueTicks(len(matrix[0]), opts.ResidueIDs))
	p.Y.Tick.Marker = plot.ConstantTicks(trajectoryTicks(len(matrix)))

	if opts.Annotate {
		labels, err := cellLabels(matrix, r.config.AnnotationPts)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeRender, errors.CodeRenderFailed,
				"cannot build cell annotations")
		}
		p.Add(labels)
	}
	return p, nil
}

// cellLabels writes each cell's value at the cell center.
func cellLabels(matrix [][]float64, pts float64) (*plotter.Labels, error) {
	var xys plotter.XYs
	var texts []string
	for ri, row := range matrix {
		for ci, v := range row {
			xys = append(xys, plotter.XY{X: float64(ci), Y: float64(ri)})
			texts = append(texts, formatCell(v))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(pts)
	}
	return labels, nil
}

func formatCell(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (r *HeatmapRenderer) write(img *vgimg.Canvas, opts interfaces.HeatmapOptions) error {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeRender, errors.CodeRenderFailed,
			fmt.Sprintf("cannot create output directory %q", opts.OutputDir))
	}
	filename := opts.Filename
	if filename == "" {
		filename = constants.DefaultHeatmapFilename
	}
	path := filepath.Join(opts.OutputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeRender, errors.CodeRenderFailed,
			fmt.Sprintf("cannot create heatmap file %q", path))
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return errors.WrapError(err, errors.ErrorTypeRender, errors.CodeRenderFailed,
			fmt.Sprintf("cannot write heatmap file %q", path))
	}

	r.logger.WithFields(logrus.Fields{
		"path": path,
	}).Info("Wrote heatmap")
	return nil
}

// Helper functions

func getDefaultHeatmapConfig() *HeatmapConfig {
	return &HeatmapConfig{
		WidthInches:   16,
		HeightInches:  8,
		DPI:           constants.DefaultHeatmapDPI,
		PaletteColors: 255,
		AnnotationPts: 7,
	}
}

// metricGrid adapts a metric matrix to the plotter grid interface.
// Columns are residues, rows are trajectories; values outside the fixed
// color range are clamped so the palette lookup never overflows.
type metricGrid struct {
	matrix     [][]float64
	vmin, vmax float64
}

func (g metricGrid) Dims() (c, r int) {
	return len(g.matrix[0]), len(g.matrix)
}

func (g metricGrid) Z(c, r int) float64 {
	v := g.matrix[r][c]
	if math.IsInf(v, 1) || v > g.vmax {
		return g.vmax
	}
	if v < g.vmin {
		return g.vmin
	}
	return v
}

func (g metricGrid) X(c int) float64 {
	return float64(c)
}

func (g metricGrid) Y(r int) float64 {
	return float64(r)
}

func residueTicks(n int, residueIDs []int) []plot.Tick {
	ticks := make([]plot.Tick, n)
	for i := 0; i < n; i++ {
		label := strconv.Itoa(i + 1)
		if i < len(residueIDs) {
			label = strconv.Itoa(residueIDs[i])
		}
		ticks[i] = plot.Tick{Value: float64(i), Label: label}
	}
	return ticks
}

func trajectoryTicks(n int) []plot.Tick {
	ticks := make([]plot.Tick, n)
	for i := 0; i < n; i++ {
		ticks[i] = plot.Tick{Value: float64(i), Label: strconv.Itoa(i + 1)}
	}
	return ticks
}
