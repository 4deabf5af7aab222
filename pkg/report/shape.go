package report

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/folding"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/roi"
	"foldingmeasures/pkg/surfacefile"
)

// ShapeSummary describes one surface shape column over the region of interest
type ShapeSummary struct {
	Name string

	// IFI is the integrated folding index of the column
	IFI float64

	// Statistics of the selected vertex values
	Mean, StdDev, Min, Max float64
}

// SummarizeShapes computes a ShapeSummary for every column of sf
func SummarizeShapes(m *mesh.Mesh, sel *roi.Selection, sf *surfacefile.ScalarFile) ([]ShapeSummary, error) {
	if sf.NumberOfNodes() != m.VertexCount() {
		return nil, models.NewError(models.ErrFileFormat, "",
			"shape file has %d nodes but the surface has %d vertices", sf.NumberOfNodes(), m.VertexCount())
	}

	var summaries []ShapeSummary
	for j, name := range sf.Columns {
		column := sf.Column(j)
		ifi, err := folding.IntegratedIndex(m, sel, column)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}

		summary := ShapeSummary{Name: name, IFI: ifi}
		var selected []float64
		for v, x := range column {
			if sel.SelectedVertex(v) {
				selected = append(selected, x)
			}
		}
		if len(selected) > 0 {
			summary.Mean, summary.StdDev = stat.MeanStdDev(selected, nil)
			if len(selected) == 1 {
				summary.StdDev = 0
			}
			summary.Min = floats.Min(selected)
			summary.Max = floats.Max(selected)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *Report) writeShapes(b *strings.Builder) {
	nameWidth := 10
	for _, s := range r.Shapes {
		nameWidth = max(nameWidth, len(s.Name))
	}
	nameWidth += 5

	b.WriteString("Integrated Folding Index\n")
	if r.Semicolon {
		b.WriteString("Name;IFI;Mean;StdDev;Min;Max\n")
		for _, s := range r.Shapes {
			fmt.Fprintf(b, "%s;%.6f;%.6f;%.6f;%.6f;%.6f\n", s.Name, s.IFI, s.Mean, s.StdDev, s.Min, s.Max)
		}
		return
	}
	fmt.Fprintf(b, "%-*s%12s%12s%12s%12s%12s\n", nameWidth, "Name", "IFI", "Mean", "StdDev", "Min", "Max")
	for _, s := range r.Shapes {
		fmt.Fprintf(b, "%-*s%12.6f%12.6f%12.6f%12.6f%12.6f\n", nameWidth, s.Name, s.IFI, s.Mean, s.StdDev, s.Min, s.Max)
	}
}
