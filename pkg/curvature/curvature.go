// Package curvature estimates the principal curvatures of a triangulated
// surface at each vertex and derives the measures used by folding analysis.
//
// The shape operator at a vertex is fitted by least squares in the tangent
// plane: for every neighbour the change in position and the change in normal
// are projected onto an orthonormal tangent frame, and the symmetric 2x2
// operator mapping one to the other is solved for in closed form. Its
// eigenvalues are the principal curvatures.
package curvature

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/logging"
	"foldingmeasures/pkg/mesh"
)

// Record holds the curvature measures of one vertex
type Record struct {
	// K1 and K2 are the principal curvatures, K1 >= K2
	K1, K2 float64

	Hplus, Hminus float64
	Kplus, Kminus float64

	// CI is the curvedness sqrt((k1^2 + k2^2) / 2)
	CI float64

	// SI is the signed shape index in [-1, 1], 0 at umbilic points
	SI float64

	// FI is the folding index |k1| * (|k1| - |k2|)
	FI float64

	// Area measures: the vertex area when the sign condition holds, else 0
	AreaHplus, AreaHminus float64
	AreaKplus, AreaKminus float64
}

// H returns the mean curvature
func (r Record) H() float64 { return (r.K1 + r.K2) / 2.0 }

// K returns the Gaussian curvature
func (r Record) K() float64 { return r.K1 * r.K2 }

// NewRecord derives every measure from the principal curvatures and the
// vertex area. k1 and k2 are swapped if given in the wrong order.
func NewRecord(k1, k2, vertexArea float64) Record {
	if k2 > k1 {
		k1, k2 = k2, k1
	}
	r := Record{K1: k1, K2: k2}
	h := r.H()
	k := r.K()

	r.Hplus = math.Max(h, 0)
	r.Hminus = math.Min(h, 0)
	r.Kplus = math.Max(k, 0)
	r.Kminus = math.Min(k, 0)

	r.CI = math.Sqrt((k1*k1 + k2*k2) / 2.0)
	r.SI = ShapeIndex(k1, k2)
	r.FI = math.Abs(k1) * (math.Abs(k1) - math.Abs(k2))

	if h > 0 {
		r.AreaHplus = vertexArea
	}
	if h < 0 {
		r.AreaHminus = vertexArea
	}
	if k > 0 {
		r.AreaKplus = vertexArea
	}
	if k < 0 {
		r.AreaKminus = vertexArea
	}
	return r
}

// UmbilicTolerance is the relative difference |k1 - k2| / max(|k1|, |k2|)
// up to which a vertex counts as umbilic. It covers the anisotropy that
// triangulating a sphere introduces into the fitted operator, and the
// rounding left in the discriminant of an exactly umbilic one.
const UmbilicTolerance = 0.1

// ShapeIndex returns (2/pi) * atan((k2 + k1) / (k2 - k1)), or 0 at an
// umbilic point.
func ShapeIndex(k1, k2 float64) float64 {
	denom := k2 - k1
	if math.Abs(denom) <= UmbilicTolerance*math.Max(math.Abs(k1), math.Abs(k2)) {
		return 0
	}
	return (2.0 / math.Pi) * math.Atan((k2+k1)/denom)
}

// Curvatures is the per-vertex output of Compute, indexed by vertex
type Curvatures struct {
	Records []Record

	// Degenerate counts vertices whose fit was rank deficient or that had
	// no neighbours. Their curvatures are zero.
	Degenerate int
}

// Engine computes curvatures. The zero value uses every CPU core.
type Engine struct {
	// NumWorkers bounds the goroutines used for the per-vertex loop
	NumWorkers int
}

// Compute estimates the curvature of every vertex of m. Vertices are split
// into contiguous ranges processed in parallel; each worker writes only its
// own slots so the result does not depend on the number of workers.
func (e Engine) Compute(m *mesh.Mesh) *Curvatures {
	n := m.VertexCount()
	workers := e.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	out := &Curvatures{Records: make([]Record, n)}
	degenerate := make([]int, workers)

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			for v := start; v < end; v++ {
				op, ok := FitShapeOperator(m, v)
				if !ok {
					degenerate[worker]++
				}
				k1, k2 := op.Principal()
				out.Records[v] = NewRecord(k1, k2, m.VertexArea(v))
			}
		}(w, start, end)
	}
	wg.Wait()

	for _, d := range degenerate {
		out.Degenerate += d
	}
	logging.Logger().Debug("curvature computed",
		"vertices", n, "workers", workers, "degenerate", out.Degenerate)
	return out
}

// Compute runs the default Engine
func Compute(m *mesh.Mesh) *Curvatures {
	return Engine{}.Compute(m)
}

// ShapeOperator is the symmetric matrix [[A, B], [B, C]] in a tangent frame
type ShapeOperator struct {
	A, B, C float64
}

// Principal returns the eigenvalues k1 >= k2 of the operator. A slightly
// negative discriminant from rounding is clamped to zero.
func (s ShapeOperator) Principal() (k1, k2 float64) {
	tr := s.A + s.C
	det := s.A*s.C - s.B*s.B
	disc := tr*tr - 4*det
	if disc < 0 {
		disc = 0
	}
	root := math.Sqrt(disc)
	return (tr + root) / 2, (tr - root) / 2
}

// TangentFrame returns the orthonormal frame used at vertex v: e1 is the
// projection of the edge to the first neighbour onto the tangent plane and
// e2 = unit(-e1 x n). ok is false when no frame can be formed.
func TangentFrame(m *mesh.Mesh, v int) (e1, e2 r3.Vec, ok bool) {
	neighbors := m.Neighbors(v)
	n := m.Normal(v)
	if len(neighbors) == 0 || r3.Norm(n) == 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	edge := r3.Sub(m.Coord(neighbors[0]), m.Coord(v))
	t := projectToPlane(edge, n)
	if r3.Norm(t) == 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	e1 = r3.Unit(t)
	e2 = r3.Unit(r3.Cross(r3.Scale(-1, e1), n))
	return e1, e2, true
}

// FitShapeOperator solves the least-squares shape operator at vertex v.
// ok is false, and the operator zero, for an isolated vertex or a rank
// deficient system.
func FitShapeOperator(m *mesh.Mesh, v int) (ShapeOperator, bool) {
	e1, e2, ok := TangentFrame(m, v)
	if !ok {
		return ShapeOperator{}, false
	}
	p := m.Coord(v)
	n := m.Normal(v)

	var sxx, sxy, syy, wx, wy, wxy float64
	for _, w := range m.Neighbors(v) {
		dp := projectToPlane(r3.Sub(m.Coord(w), p), n)
		dn := projectToPlane(r3.Sub(m.Normal(w), n), n)

		x, y := r3.Dot(dp, e1), r3.Dot(dp, e2)
		u, vv := r3.Dot(dn, e1), r3.Dot(dn, e2)

		sxx += x * u
		sxy += x*vv + y*u
		syy += y * vv
		wx += x * x
		wy += y * y
		wxy += x * y
	}
	return solveShapeOperator(sxx, sxy, syy, wx, wy, wxy)
}

// solveShapeOperator is the closed-form solution of the normal equations
// for a symmetric 2x2 operator.
func solveShapeOperator(sxx, sxy, syy, wx, wy, wxy float64) (ShapeOperator, bool) {
	wxy2 := wxy * wxy
	d := (wx + wy) * (wx*wy - wxy2)
	if !(d > 0) {
		return ShapeOperator{}, false
	}
	return ShapeOperator{
		A: (syy*wxy2 - sxy*wxy*wy + sxx*(-wxy2+wx*wy+wy*wy)) / d,
		B: (-syy*wx*wxy + sxy*wx*wy - sxx*wxy*wy) / d,
		C: (-sxy*wx*wxy + sxx*wxy2 + syy*(wx*wx-wxy2+wx*wy)) / d,
	}, true
}

// projectToPlane removes the component of a along the unit normal n
func projectToPlane(a, n r3.Vec) r3.Vec {
	return r3.Sub(a, r3.Scale(r3.Dot(a, n), n))
}

// MeanColumn returns H for every vertex
func (c *Curvatures) MeanColumn() []float64 {
	out := make([]float64, len(c.Records))
	for v, r := range c.Records {
		out[v] = r.H()
	}
	return out
}

// GaussianColumn returns K for every vertex
func (c *Curvatures) GaussianColumn() []float64 {
	out := make([]float64, len(c.Records))
	for v, r := range c.Records {
		out[v] = r.K()
	}
	return out
}
