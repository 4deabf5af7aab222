package mesh

import (
	"sort"

	"foldingmeasures/internal/models"
)

// Topology maps each vertex to the vertices it shares an edge with
type Topology struct {
	neighbors [][]int
}

// NewTopology builds the adjacency of a triangulation over n vertices.
// Neighbour lists are sorted ascending and free of duplicates.
func NewTopology(n int, triangles []models.Triangle) *Topology {
	neighbors := make([][]int, n)
	for _, tri := range triangles {
		for k := 0; k < 3; k++ {
			v := tri[k]
			neighbors[v] = append(neighbors[v], tri[(k+1)%3], tri[(k+2)%3])
		}
	}
	for v, list := range neighbors {
		if len(list) == 0 {
			continue
		}
		sort.Ints(list)
		uniq := list[:1]
		for _, w := range list[1:] {
			if w != uniq[len(uniq)-1] {
				uniq = append(uniq, w)
			}
		}
		neighbors[v] = uniq
	}
	return &Topology{neighbors: neighbors}
}

// NumberOfNodes returns the number of vertices covered by the topology
func (t *Topology) NumberOfNodes() int { return len(t.neighbors) }

// Neighbors returns the neighbours of v
func (t *Topology) Neighbors(v int) []int { return t.neighbors[v] }

// HasNeighbors reports whether v is used by any triangle
func (t *Topology) HasNeighbors(v int) bool { return len(t.neighbors[v]) > 0 }

// NeighborsToDepth returns every vertex within depth edges of root,
// excluding root, in breadth-first order.
func (t *Topology) NeighborsToDepth(root, depth int) []int {
	visited := map[int]bool{root: true}
	frontier := []int{root}
	var out []int
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []int
		for _, v := range frontier {
			for _, w := range t.neighbors[v] {
				if !visited[w] {
					visited[w] = true
					out = append(out, w)
					next = append(next, w)
				}
			}
		}
		frontier = next
	}
	return out
}
