package roi

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/models"
)

// combine merges newly selected vertices into the selection. Vertices that
// are not part of any triangle are never selected.
func (s *Selection) combine(logic Logic, selected []bool) {
	topo := s.mesh.Topology()
	for v := range s.nodes {
		if !topo.HasNeighbors(v) {
			s.nodes[v] = false
			continue
		}
		switch logic {
		case Normal:
			s.nodes[v] = selected[v]
		case And:
			s.nodes[v] = s.nodes[v] && selected[v]
		case Or:
			s.nodes[v] = s.nodes[v] || selected[v]
		case AndNot:
			s.nodes[v] = s.nodes[v] && !selected[v]
		}
	}
	s.update()
}

// Invert swaps selected and unselected vertices
func (s *Selection) Invert() {
	selected := make([]bool, len(s.nodes))
	for v, sel := range s.nodes {
		selected[v] = !sel
	}
	s.combine(Normal, selected)
}

// Dilate adds every vertex within iterations edges of a selected vertex
func (s *Selection) Dilate(iterations int) {
	if iterations <= 0 {
		return
	}
	topo := s.mesh.Topology()
	dilated := append([]bool(nil), s.nodes...)
	for v, sel := range s.nodes {
		if !sel {
			continue
		}
		for _, w := range topo.NeighborsToDepth(v, iterations) {
			dilated[w] = true
		}
	}
	s.nodes = dilated
	s.update()
}

// Erode removes selected vertices that have an unselected neighbour,
// iterations times
func (s *Selection) Erode(iterations int) {
	for iter := 0; iter < iterations; iter++ {
		eroded := append([]bool(nil), s.nodes...)
		for v, sel := range s.nodes {
			if !sel {
				continue
			}
			for _, w := range s.mesh.Neighbors(v) {
				if !s.nodes[w] {
					eroded[v] = false
					break
				}
			}
		}
		s.nodes = eroded
	}
	s.update()
}

// BoundaryOnly keeps only selected vertices with an unselected neighbour
func (s *Selection) BoundaryOnly() {
	boundary := make([]bool, len(s.nodes))
	for v, sel := range s.nodes {
		if !sel {
			continue
		}
		for _, w := range s.mesh.Neighbors(v) {
			if !s.nodes[w] {
				boundary[v] = true
				break
			}
		}
	}
	s.nodes = boundary
	s.update()
}

// LimitExtent deselects vertices outside the box [lo, hi]
func (s *Selection) LimitExtent(lo, hi r3.Vec) {
	for v, sel := range s.nodes {
		if !sel {
			continue
		}
		c := s.mesh.Coord(v)
		if c.X < lo.X || c.X > hi.X || c.Y < lo.Y || c.Y > hi.Y || c.Z < lo.Z || c.Z > hi.Z {
			s.nodes[v] = false
		}
	}
	s.update()
}

// SelectScalarRange selects vertices whose value lies in [lo, hi]
func (s *Selection) SelectScalarRange(values []float64, lo, hi float64, logic Logic) error {
	if len(values) != len(s.nodes) {
		return models.NewError(models.ErrFileFormat, "", "scalar column has %d values for %d vertices", len(values), len(s.nodes))
	}
	selected := make([]bool, len(s.nodes))
	for v, x := range values {
		selected[v] = x >= lo && x <= hi
	}
	s.combine(logic, selected)
	return nil
}

// SelectWithinRadius selects vertices whose straight-line distance to center
// is at most radius
func (s *Selection) SelectWithinRadius(center r3.Vec, radius float64, logic Logic) {
	selected := make([]bool, len(s.nodes))
	for _, v := range verticesWithin(s.mesh.Coords(), center, radius) {
		selected[v] = true
	}
	s.combine(logic, selected)
}

// verticesWithin queries a KD-tree of the coordinates for points inside a ball
func verticesWithin(coords []r3.Vec, center r3.Vec, radius float64) []int {
	if radius < 0 || len(coords) == 0 {
		return nil
	}
	points := make(vertexPoints, len(coords))
	for i, c := range coords {
		points[i] = vertexPoint{Vec: c, Index: i}
	}
	tree := kdtree.New(points, false)

	keeper := kdtree.NewDistKeeper(radius * radius)
	tree.NearestSet(keeper, vertexPoint{Vec: center, Index: -1})

	var found []int
	for _, cd := range keeper.Heap {
		// The keeper holds a sentinel without a point
		if cd.Comparable == nil {
			continue
		}
		found = append(found, cd.Comparable.(vertexPoint).Index)
	}
	return found
}

// vertexPoint is a mesh vertex stored in a KD-tree
type vertexPoint struct {
	r3.Vec
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(vertexPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p vertexPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p vertexPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(vertexPoint)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

// vertexPoints satisfies kdtree.Interface
type vertexPoints []vertexPoint

func (p vertexPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p vertexPoints) Len() int                              { return len(p) }
func (p vertexPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p vertexPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(vertexPlane{vertexPoints: p, Dim: d}, kdtree.MedianOfRandoms(vertexPlane{vertexPoints: p, Dim: d}, 100))
}

// vertexPlane implements kdtree.SortSlicer for vertexPoints
type vertexPlane struct {
	vertexPoints
	kdtree.Dim
}

func (p vertexPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.vertexPoints[i].X < p.vertexPoints[j].X
	case 1:
		return p.vertexPoints[i].Y < p.vertexPoints[j].Y
	case 2:
		return p.vertexPoints[i].Z < p.vertexPoints[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	return vertexPlane{vertexPoints: p.vertexPoints[start:end], Dim: p.Dim}
}

func (p vertexPlane) Swap(i, j int) {
	p.vertexPoints[i], p.vertexPoints[j] = p.vertexPoints[j], p.vertexPoints[i]
}
