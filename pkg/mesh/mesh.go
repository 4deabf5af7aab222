// Package mesh holds the in-memory triangulated surface used by the folding
// analysis: vertex coordinates, triangles, vertex normals, the vertex
// adjacency and the triangle and vertex areas.
//
// A Mesh is built once by New and is read-only afterwards, so it may be
// shared between goroutines.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/models"
)

// Options controls mesh construction
type Options struct {
	// Weighting selects how triangle normals are combined into vertex normals
	Weighting models.NormalWeighting
}

// Mesh is a triangulated surface
type Mesh struct {
	coords    []r3.Vec
	normals   []r3.Vec
	triangles []models.Triangle

	topology *Topology

	triangleArea []float64
	vertexArea   []float64
	totalArea    float64
}

// New validates the triangulation and derives normals, adjacency and areas.
//
// Failures:
//   - models.ErrFileFormat when a triangle index is out of range or a
//     triangle repeats a vertex
//   - models.ErrDegenerate when there are fewer than 3 vertices, no
//     triangles, or the surface has zero area
func New(coords []r3.Vec, triangles []models.Triangle, opts Options) (*Mesh, error) {
	n := len(coords)
	if n < 3 {
		return nil, models.NewError(models.ErrDegenerate, "", "mesh has %d vertices, need at least 3", n)
	}
	if len(triangles) == 0 {
		return nil, models.NewError(models.ErrDegenerate, "", "mesh has no triangles")
	}
	for t, tri := range triangles {
		for _, v := range tri {
			if v < 0 || v >= n {
				return nil, models.NewError(models.ErrFileFormat, "", "triangle %d references vertex %d outside [0, %d)", t, v, n)
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return nil, models.NewError(models.ErrFileFormat, "", "triangle %d repeats a vertex: %v", t, tri)
		}
	}

	m := &Mesh{
		coords:    append([]r3.Vec(nil), coords...),
		triangles: append([]models.Triangle(nil), triangles...),
	}
	m.computeAreas()
	if !(m.totalArea > 0) {
		return nil, models.NewError(models.ErrDegenerate, "", "surface has zero total area")
	}
	m.computeNormals(opts.Weighting)
	m.topology = NewTopology(n, m.triangles)
	return m, nil
}

// computeAreas fills the per-triangle areas and gives each vertex one third
// of the area of every incident triangle.
func (m *Mesh) computeAreas() {
	m.triangleArea = make([]float64, len(m.triangles))
	m.vertexArea = make([]float64, len(m.coords))
	m.totalArea = 0
	for t, tri := range m.triangles {
		a := TriangleArea(m.coords[tri[0]], m.coords[tri[1]], m.coords[tri[2]])
		m.triangleArea[t] = a
		m.totalArea += a
		third := a / 3.0
		for _, v := range tri {
			m.vertexArea[v] += third
		}
	}
}

// computeNormals averages the normals of the triangles around each vertex.
// Vertices without triangles keep a zero normal.
func (m *Mesh) computeNormals(weighting models.NormalWeighting) {
	sums := make([]r3.Vec, len(m.coords))
	for t, tri := range m.triangles {
		tn := TriangleNormal(m.coords[tri[0]], m.coords[tri[1]], m.coords[tri[2]])
		if weighting == models.AreaWeight {
			tn = r3.Scale(m.triangleArea[t], tn)
		}
		for _, v := range tri {
			sums[v] = r3.Add(sums[v], tn)
		}
	}
	m.normals = make([]r3.Vec, len(m.coords))
	for v, s := range sums {
		if r3.Norm(s) > 0 {
			m.normals[v] = r3.Unit(s)
		}
	}
}

// TriangleArea returns half the magnitude of (b-a) x (c-a)
func TriangleArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// TriangleNormal returns the unit normal of a counter-clockwise triangle, or
// the zero vector for a degenerate triangle.
func TriangleNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// VertexCount returns N
func (m *Mesh) VertexCount() int { return len(m.coords) }

// TriangleCount returns T
func (m *Mesh) TriangleCount() int { return len(m.triangles) }

// Coord returns the position of vertex v
func (m *Mesh) Coord(v int) r3.Vec { return m.coords[v] }

// Normal returns the unit normal of vertex v
func (m *Mesh) Normal(v int) r3.Vec { return m.normals[v] }

// Neighbors returns the vertices sharing an edge with v in ascending order.
// The returned slice must not be modified.
func (m *Mesh) Neighbors(v int) []int { return m.topology.Neighbors(v) }

// Topology returns the vertex adjacency helper
func (m *Mesh) Topology() *Topology { return m.topology }

// Triangle returns the vertex indices of triangle t
func (m *Mesh) Triangle(t int) (a, b, c int) {
	tri := m.triangles[t]
	return tri[0], tri[1], tri[2]
}

// Triangles returns the triangle list. The returned slice must not be modified.
func (m *Mesh) Triangles() []models.Triangle { return m.triangles }

// TriangleArea returns the unsigned area of triangle t
func (m *Mesh) TriangleArea(t int) float64 { return m.triangleArea[t] }

// VertexArea returns one third of the summed area of triangles using v
func (m *Mesh) VertexArea(v int) float64 { return m.vertexArea[v] }

// TotalArea returns the summed area of all triangles
func (m *Mesh) TotalArea() float64 { return m.totalArea }

// Coords returns the coordinate list. The returned slice must not be modified.
func (m *Mesh) Coords() []r3.Vec { return m.coords }

// Bounds returns the axis-aligned bounding box of the vertices
func (m *Mesh) Bounds() (lo, hi r3.Vec) {
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, c := range m.coords {
		lo.X, hi.X = math.Min(lo.X, c.X), math.Max(hi.X, c.X)
		lo.Y, hi.Y = math.Min(lo.Y, c.Y), math.Max(hi.Y, c.Y)
		lo.Z, hi.Z = math.Min(lo.Z, c.Z), math.Max(hi.Z, c.Z)
	}
	return lo, hi
}

// MeanNeighborDistance averages, over all N vertices, the mean edge length
// from a vertex to its neighbours. When mask is non-nil only masked vertices
// and masked neighbours are used. Vertices with fewer than two counted
// neighbours contribute zero; the sum is still divided by N.
func (m *Mesh) MeanNeighborDistance(mask []bool) float64 {
	n := len(m.coords)
	mean := 0.0
	for v := 0; v < n; v++ {
		if mask != nil && !mask[v] {
			continue
		}
		dist := 0.0
		count := 0
		for _, w := range m.Neighbors(v) {
			if mask != nil && !mask[w] {
				continue
			}
			dist += r3.Norm(r3.Sub(m.coords[w], m.coords[v]))
			count++
		}
		if count > 1 {
			mean += dist / float64(count)
		}
	}
	if n > 1 {
		mean /= float64(n)
	}
	return mean
}
