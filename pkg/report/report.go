// Package report formats folding measurements as a text report and as
// per-vertex scalar files.
package report

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/pkg/folding"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/roi"
)

// Title is the first line of every folding report
const Title = "Surface Folding Measurement Report"

const (
	labelWidth = 45
	valueWidth = 14
)

// Labels describe the folding indices in report order
var Labels = []string{
	"Intrinsic Curvature Index (ICI)",
	"Negative Intrinsic Curvature Index (NICI)",
	"Gaussian L2 Norm (GLN)",
	"Absolute Intrinsic Curvature Index (AICI)",
	"Mean Curvature Index (MCI)",
	"Negative Mean Curvature Index (NMCI)",
	"Mean L2 Norm (MLN)",
	"Absolute Mean Curvature Index (AMCI)",
	"Folding Index (FI)",
	"Curvedness Index (CI)",
	"Shape Index (SI)",
	"Area Fraction of ICI (FICI)",
	"Area Fraction of Negative ICI (FNICI)",
	"Area Fraction of MCI (FMCI)",
	"Area Fraction of Negative MCI (FNMCI)",
	"SH2SH",
	"SK2SK",
}

// Header identifies the surface and the region a report was computed on
type Header struct {
	// Text is optional user text printed below the title
	Text string

	SurfacePath  string
	TopologyPath string
	ROISource    string

	Selected int
	Total    int

	TotalArea float64
	ROIArea   float64

	// COG is only printed when HasCOG is set
	COG    r3.Vec
	HasCOG bool

	MeanDistance float64
}

// NewHeader describes a selection on its surface
func NewHeader(m *mesh.Mesh, sel *roi.Selection, surfacePath, topologyPath string) Header {
	cog, ok := sel.CenterOfGravity()
	return Header{
		SurfacePath:  surfacePath,
		TopologyPath: topologyPath,
		ROISource:    sel.Source(),
		Selected:     sel.Count(),
		Total:        m.VertexCount(),
		TotalArea:    m.TotalArea(),
		ROIArea:      sel.RoiTriangleArea(),
		COG:          cog,
		HasCOG:       ok,
		MeanDistance: m.MeanNeighborDistance(sel.Mask()),
	}
}

// Report is a complete folding report
type Report struct {
	Header       Header
	Measurements folding.Measurements

	// Shapes adds an integrated folding index section when not empty
	Shapes []ShapeSummary

	// Semicolon writes "label;value" lines for spreadsheet import
	Semicolon bool
}

// WriteTo writes the report text to w
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	r.writeHeader(&b)
	r.writeMeasurements(&b)
	if len(r.Shapes) > 0 {
		b.WriteString("\n")
		r.writeShapes(&b)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// String returns the report text
func (r *Report) String() string {
	var b strings.Builder
	r.WriteTo(&b)
	return b.String()
}

func (r *Report) writeHeader(b *strings.Builder) {
	h := r.Header
	b.WriteString(Title + "\n")
	if h.Text != "" {
		b.WriteString(h.Text + "\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "Surface: %s\n", h.SurfacePath)
	fmt.Fprintf(b, "Topology: %s\n", h.TopologyPath)
	fmt.Fprintf(b, "ROI: %s\n", h.ROISource)
	b.WriteString("\n")
	fmt.Fprintf(b, "%d of %d nodes in region of interest\n", h.Selected, h.Total)
	fmt.Fprintf(b, "Total Surface Area: %g\n", h.TotalArea)
	fmt.Fprintf(b, "Region of Interest Surface Area: %g\n", h.ROIArea)
	if h.HasCOG {
		fmt.Fprintf(b, "Region of Interest Center of Gravity: %g %g %g\n", h.COG.X, h.COG.Y, h.COG.Z)
	}
	fmt.Fprintf(b, "Region Mean Distance Between Nodes: %g\n", h.MeanDistance)
	b.WriteString("\n")
}

func (r *Report) writeMeasurements(b *strings.Builder) {
	for i, v := range r.Measurements.Values() {
		b.WriteString(FormatLine(Labels[i], v, r.Semicolon))
		b.WriteString("\n")
	}
}

// FormatLine renders one measure: the label left-justified to 45 columns and
// the value with 5 decimals right-justified to 14, or "label;value".
func FormatLine(label string, value float64, semicolon bool) string {
	if semicolon {
		return fmt.Sprintf("%s;%.5f", label, value)
	}
	return fmt.Sprintf("%-*s%*.5f", labelWidth, label, valueWidth, value)
}
