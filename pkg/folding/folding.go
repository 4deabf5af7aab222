// Package folding integrates per-vertex curvature over a region of interest
// into the global folding indices.
//
// Every per-vertex quantity q is integrated tile by tile as
//
//	sum over t of  w(t) * a(t) * (sum of q over the selected vertices of t) / 3
//
// where a(t) is the triangle area and w(t) the inclusion weight of the
// selection, and the result is divided by the included area sum of w(t) * a(t).
// Under the default policy only fully selected triangles are used, with
// w = 1, so each tile contributes its area times the mean over its three
// vertices.
package folding

import (
	"math"

	"foldingmeasures/internal/logging"
	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/curvature"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/roi"
)

// Measurements holds the global folding indices of a region of interest
type Measurements struct {
	// Gaussian curvature integrals
	ICI, NICI, GLN, AICI float64

	// Mean curvature integrals
	MCI, NMCI, MLN, AMCI float64

	// Folding index, curvedness and absolute shape index
	FI, CI, SI float64

	// Area fractions where K > 0, K < 0, H > 0 and H < 0
	FICI, FNICI, FMCI, FNMCI float64

	// Ratios of the squared to the absolute integrals
	SH2SH, SK2SK float64

	// Area is the included ROI area the indices are normalised by
	Area float64

	// FZICI and FZMCI are the area fractions where K = 0 and H = 0. Under
	// the default inclusion policy FICI + FNICI + FZICI = 1.
	FZICI, FZMCI float64
}

// Values returns the indices in report order, matching models.FoldingIndexNames
func (m Measurements) Values() []float64 {
	return []float64{
		m.ICI, m.NICI, m.GLN, m.AICI,
		m.MCI, m.NMCI, m.MLN, m.AMCI,
		m.FI, m.CI, m.SI,
		m.FICI, m.FNICI, m.FMCI, m.FNMCI,
		m.SH2SH, m.SK2SK,
	}
}

// VertexContributions returns the integrand of each index at one vertex, in
// report order. Fractions are 0/1 sign indicators and the ratios are H^2/|H|
// and K^2/|K|, zero when the denominator is zero.
func VertexContributions(r curvature.Record) []float64 {
	h, k := r.H(), r.K()
	return []float64{
		r.Kplus, r.Kminus, k * k, math.Abs(k),
		r.Hplus, r.Hminus, h * h, math.Abs(h),
		r.FI, r.CI, math.Abs(r.SI),
		indicator(k > 0), indicator(k < 0), indicator(h > 0), indicator(h < 0),
		ratio(h*h, math.Abs(h)), ratio(k*k, math.Abs(k)),
	}
}

// Aggregate folds the curvature records of the selected triangles into the
// global indices. Triangles are visited in index order so the sums, and the
// report, are reproducible. An empty region yields all-zero measurements.
func Aggregate(m *mesh.Mesh, sel *roi.Selection, curv *curvature.Curvatures) (Measurements, error) {
	if err := checkSizes(m, sel, len(curv.Records)); err != nil {
		return Measurements{}, err
	}

	var sum Measurements
	const oneThird = 1.0 / 3.0
	for t := 0; t < m.TriangleCount(); t++ {
		w := sel.TriangleWeight(t)
		if w <= 0 {
			continue
		}
		tileArea := w * m.TriangleArea(t)

		var tile Measurements
		a, b, c := m.Triangle(t)
		for _, v := range [3]int{a, b, c} {
			if !sel.SelectedVertex(v) {
				continue
			}
			r := curv.Records[v]
			h, k := r.H(), r.K()

			tile.ICI += r.Kplus * oneThird
			tile.NICI += r.Kminus * oneThird
			tile.GLN += k * k * oneThird
			tile.AICI += math.Abs(k) * oneThird
			tile.MCI += r.Hplus * oneThird
			tile.NMCI += r.Hminus * oneThird
			tile.MLN += h * h * oneThird
			tile.AMCI += math.Abs(h) * oneThird
			tile.FI += r.FI * oneThird
			tile.CI += r.CI * oneThird
			tile.SI += math.Abs(r.SI) * oneThird
			tile.FICI += indicator(k > 0) * oneThird
			tile.FNICI += indicator(k < 0) * oneThird
			tile.FZICI += indicator(k == 0) * oneThird
			tile.FMCI += indicator(h > 0) * oneThird
			tile.FNMCI += indicator(h < 0) * oneThird
			tile.FZMCI += indicator(h == 0) * oneThird
		}

		sum.ICI += tile.ICI * tileArea
		sum.NICI += tile.NICI * tileArea
		sum.GLN += tile.GLN * tileArea
		sum.AICI += tile.AICI * tileArea
		sum.MCI += tile.MCI * tileArea
		sum.NMCI += tile.NMCI * tileArea
		sum.MLN += tile.MLN * tileArea
		sum.AMCI += tile.AMCI * tileArea
		sum.FI += tile.FI * tileArea
		sum.CI += tile.CI * tileArea
		sum.SI += tile.SI * tileArea
		sum.FICI += tile.FICI * tileArea
		sum.FNICI += tile.FNICI * tileArea
		sum.FZICI += tile.FZICI * tileArea
		sum.FMCI += tile.FMCI * tileArea
		sum.FNMCI += tile.FNMCI * tileArea
		sum.FZMCI += tile.FZMCI * tileArea
		sum.Area += tileArea
	}

	if sum.Area == 0 {
		logging.Logger().Warn("region of interest has no area, all folding indices are zero",
			"selected", sel.Count())
		return Measurements{}, nil
	}
	return sum.finalize(), nil
}

// finalize divides the integrals by the ROI area and forms the ratios
func (m Measurements) finalize() Measurements {
	area := m.Area
	out := Measurements{
		ICI:   m.ICI / area,
		NICI:  m.NICI / area,
		GLN:   m.GLN / area,
		AICI:  m.AICI / area,
		MCI:   m.MCI / area,
		NMCI:  m.NMCI / area,
		MLN:   m.MLN / area,
		AMCI:  m.AMCI / area,
		FI:    m.FI / area,
		CI:    m.CI / area,
		SI:    m.SI / area,
		FICI:  m.FICI / area,
		FNICI: m.FNICI / area,
		FMCI:  m.FMCI / area,
		FNMCI: m.FNMCI / area,
		FZICI: m.FZICI / area,
		FZMCI: m.FZMCI / area,
		Area:  area,
	}
	out.SH2SH = ratio(out.MLN, out.AMCI)
	out.SK2SK = ratio(out.GLN, out.AICI)
	return out
}

// IntegratedIndex integrates the absolute tile mean of a per-vertex column
// over the selection: sum of w(t) * a(t) * |mean of the selected values of t|
// divided by the included area. Zero for an empty region.
func IntegratedIndex(m *mesh.Mesh, sel *roi.Selection, column []float64) (float64, error) {
	if err := checkSizes(m, sel, len(column)); err != nil {
		return 0, err
	}

	var sum, area float64
	for t := 0; t < m.TriangleCount(); t++ {
		w := sel.TriangleWeight(t)
		if w <= 0 {
			continue
		}
		var total float64
		var count int
		a, b, c := m.Triangle(t)
		for _, v := range [3]int{a, b, c} {
			if sel.SelectedVertex(v) {
				total += column[v]
				count++
			}
		}
		if count == 0 {
			continue
		}
		tileArea := w * m.TriangleArea(t)
		sum += tileArea * math.Abs(total) / float64(count)
		area += tileArea
	}
	if area == 0 {
		return 0, nil
	}
	return sum / area, nil
}

func checkSizes(m *mesh.Mesh, sel *roi.Selection, values int) error {
	if sel.Mesh() != m {
		return models.NewError(models.ErrArguments, "", "selection belongs to a different surface")
	}
	if values != m.VertexCount() {
		return models.NewError(models.ErrFileFormat, "",
			"%d per-vertex values for a surface with %d vertices", values, m.VertexCount())
	}
	return nil
}

func indicator(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

func ratio(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}
