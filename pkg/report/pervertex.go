package report

import (
	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/curvature"
	"foldingmeasures/pkg/folding"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/roi"
	"foldingmeasures/pkg/surfacefile"
)

// PerVertex builds the per-vertex scalar file: k1, k2, H, K, the integrand of
// each folding index and the vertex area. Vertices outside the region are
// all zero.
func PerVertex(m *mesh.Mesh, sel *roi.Selection, curv *curvature.Curvatures) *surfacefile.ScalarFile {
	sf := surfacefile.NewScalarFile(m.VertexCount(), models.PerVertexColumnNames)
	for v, row := range sf.Values {
		if !sel.SelectedVertex(v) {
			continue
		}
		r := curv.Records[v]
		row[0], row[1], row[2], row[3] = r.K1, r.K2, r.H(), r.K()
		copy(row[4:], folding.VertexContributions(r))
		row[len(row)-1] = m.VertexArea(v)
	}
	return sf
}

// CurvatureColumn wraps a single per-vertex curvature column, such as the
// mean or Gaussian curvature, as a scalar file
func CurvatureColumn(name string, values []float64) *surfacefile.ScalarFile {
	sf := surfacefile.NewScalarFile(len(values), []string{name})
	for v, x := range values {
		sf.Values[v][0] = x
	}
	return sf
}
