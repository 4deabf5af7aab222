// Package roi selects the vertices of a surface that take part in an
// analysis and derives the triangles that belong to the selection.
package roi

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/surfacefile"
)

// SourceAll describes a selection of every vertex
const SourceAll = "all vertices"

// Logic combines a new selection with the current one
type Logic int

const (
	// Normal replaces the current selection
	Normal Logic = iota
	// And keeps vertices in both selections
	And
	// Or keeps vertices in either selection
	Or
	// AndNot keeps current vertices that are not newly selected
	AndNot
)

// Selection is a vertex mask over a mesh plus the triangle mask derived from
// it under an inclusion policy.
type Selection struct {
	mesh   *mesh.Mesh
	policy models.Inclusion
	source string

	nodes      []bool
	tileWeight []float64
}

// All selects every vertex
func All(m *mesh.Mesh, policy models.Inclusion) *Selection {
	nodes := make([]bool, m.VertexCount())
	for i := range nodes {
		nodes[i] = true
	}
	return newSelection(m, policy, SourceAll, nodes)
}

// None selects no vertex
func None(m *mesh.Mesh, policy models.Inclusion) *Selection {
	return newSelection(m, policy, "no vertices", make([]bool, m.VertexCount()))
}

// FromMask copies a vertex mask. The mask length must equal the vertex count.
func FromMask(m *mesh.Mesh, mask []bool, policy models.Inclusion, source string) (*Selection, error) {
	if len(mask) != m.VertexCount() {
		return nil, models.NewError(models.ErrFileFormat, source,
			"roi has %d nodes but the surface has %d vertices", len(mask), m.VertexCount())
	}
	return newSelection(m, policy, source, append([]bool(nil), mask...)), nil
}

// FromFile reads a region of interest file
func FromFile(m *mesh.Mesh, path string, policy models.Inclusion) (*Selection, error) {
	rf, err := surfacefile.ReadROIFile(path)
	if err != nil {
		return nil, err
	}
	return FromMask(m, rf.Selected, policy, path)
}

func newSelection(m *mesh.Mesh, policy models.Inclusion, source string, nodes []bool) *Selection {
	s := &Selection{
		mesh:       m,
		policy:     policy,
		source:     source,
		nodes:      nodes,
		tileWeight: make([]float64, m.TriangleCount()),
	}
	s.update()
	return s
}

// update recomputes the triangle weights from the vertex mask
func (s *Selection) update() {
	for t := range s.tileWeight {
		a, b, c := s.mesh.Triangle(t)
		count := 0
		for _, v := range [3]int{a, b, c} {
			if s.nodes[v] {
				count++
			}
		}
		switch s.policy {
		case models.AnyVertex:
			s.tileWeight[t] = float64(count) / 3.0
		default:
			if count == 3 {
				s.tileWeight[t] = 1
			} else {
				s.tileWeight[t] = 0
			}
		}
	}
}

// Mesh returns the surface the selection refers to
func (s *Selection) Mesh() *mesh.Mesh { return s.mesh }

// Policy returns the triangle inclusion policy
func (s *Selection) Policy() models.Inclusion { return s.policy }

// Source describes where the selection came from
func (s *Selection) Source() string { return s.source }

// SetSource replaces the selection description
func (s *Selection) SetSource(source string) { s.source = source }

// SelectedVertex reports whether vertex v is in the ROI
func (s *Selection) SelectedVertex(v int) bool { return s.nodes[v] }

// SelectedTriangle reports whether triangle t takes part in ROI integrals
func (s *Selection) SelectedTriangle(t int) bool { return s.tileWeight[t] > 0 }

// TriangleWeight is the fraction of triangle t's area attributed to the ROI:
// 1 or 0 under AllVertices, selected vertices / 3 under AnyVertex.
func (s *Selection) TriangleWeight(t int) float64 { return s.tileWeight[t] }

// Mask returns a copy of the vertex mask
func (s *Selection) Mask() []bool { return append([]bool(nil), s.nodes...) }

// Count returns the number of selected vertices
func (s *Selection) Count() int {
	count := 0
	for _, sel := range s.nodes {
		if sel {
			count++
		}
	}
	return count
}

// Any reports whether at least one vertex is selected
func (s *Selection) Any() bool {
	for _, sel := range s.nodes {
		if sel {
			return true
		}
	}
	return false
}

// RoiVertexArea sums the vertex areas of the selected vertices
func (s *Selection) RoiVertexArea() float64 {
	area := 0.0
	for v, sel := range s.nodes {
		if sel {
			area += s.mesh.VertexArea(v)
		}
	}
	return area
}

// RoiTriangleArea sums the weighted areas of the selected triangles
func (s *Selection) RoiTriangleArea() float64 {
	area := 0.0
	for t, w := range s.tileWeight {
		if w > 0 {
			area += w * s.mesh.TriangleArea(t)
		}
	}
	return area
}

// CenterOfGravity averages the positions of the selected vertices. ok is
// false when nothing is selected.
func (s *Selection) CenterOfGravity() (cog r3.Vec, ok bool) {
	count := 0
	for v, sel := range s.nodes {
		if sel {
			cog = r3.Add(cog, s.mesh.Coord(v))
			count++
		}
	}
	if count == 0 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/float64(count), cog), true
}

// Extent returns the bounding box of the selected vertices
func (s *Selection) Extent() (lo, hi r3.Vec, ok bool) {
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for v, sel := range s.nodes {
		if !sel {
			continue
		}
		c := s.mesh.Coord(v)
		lo.X, hi.X = math.Min(lo.X, c.X), math.Max(hi.X, c.X)
		lo.Y, hi.Y = math.Min(lo.Y, c.Y), math.Max(hi.Y, c.Y)
		lo.Z, hi.Z = math.Min(lo.Z, c.Z), math.Max(hi.Z, c.Z)
		ok = true
	}
	return lo, hi, ok
}
