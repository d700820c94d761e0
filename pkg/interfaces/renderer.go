package interfaces

// HeatmapOptions configures one two-panel (phi | psi) heatmap render.
type HeatmapOptions struct {
	// MetricLabel names the rendered metric in panel titles, e.g.
	// "hellinger distance".
	MetricLabel string `json:"metric_label"`

	// VMin and VMax fix the shared color scale across both panels.
	VMin float64 `json:"vmin"`
	VMax float64 `json:"vmax"`

	// Annotate writes each cell's value into the heatmap.
	Annotate bool `json:"annotate"`

	// ResidueIDs labels the x axis; when nil, 1-based column indices are
	// used.
	ResidueIDs []int `json:"residue_ids,omitempty"`

	// OutputDir receives the rendered PNG and is created if absent. An
	// empty value composes the figure without writing it.
	OutputDir string `json:"output_dir"`

	// Filename overrides the default output filename.
	Filename string `json:"filename,omitempty"`
}

// HeatmapRenderer renders paired (trajectory x residue) metric matrices.
// The two panels share one color scale and one colorbar.
type HeatmapRenderer interface {
	// Name returns a short identifier for the renderer implementation.
	Name() string

	// RenderPhiPsi renders the phi and psi matrices side by side.
	RenderPhiPsi(phi, psi [][]float64, opts HeatmapOptions) error
}
