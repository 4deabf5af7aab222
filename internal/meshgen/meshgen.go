// Package meshgen builds analytic test surfaces with outward facing,
// counter-clockwise triangles.
package meshgen

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/models"
)

// Icosphere subdivides an icosahedron level times and projects the vertices
// onto a sphere of the given radius centred on the origin. Level 4 yields
// 2562 vertices and 5120 triangles.
func Icosphere(level int, radius float64) ([]r3.Vec, []models.Triangle) {
	t := (1 + math.Sqrt(5)) / 2
	coords := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range coords {
		coords[i] = r3.Unit(coords[i])
	}
	faces := []models.Triangle{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for l := 0; l < level; l++ {
		midpoints := make(map[[2]int]int)
		mid := func(a, b int) int {
			key := [2]int{a, b}
			if b < a {
				key = [2]int{b, a}
			}
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			coords = append(coords, r3.Unit(r3.Scale(0.5, r3.Add(coords[a], coords[b]))))
			midpoints[key] = len(coords) - 1
			return len(coords) - 1
		}
		next := make([]models.Triangle, 0, 4*len(faces))
		for _, f := range faces {
			ab, bc, ca := mid(f[0], f[1]), mid(f[1], f[2]), mid(f[2], f[0])
			next = append(next,
				models.Triangle{f[0], ab, ca},
				models.Triangle{f[1], bc, ab},
				models.Triangle{f[2], ca, bc},
				models.Triangle{ab, bc, ca},
			)
		}
		faces = next
	}

	for i := range coords {
		coords[i] = r3.Scale(radius, coords[i])
	}
	return coords, faces
}

// Grid returns a flat nx by ny vertex grid in the z=0 plane with the given
// spacing, split into two triangles per cell.
func Grid(nx, ny int, spacing float64) ([]r3.Vec, []models.Triangle) {
	coords := make([]r3.Vec, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			coords = append(coords, r3.Vec{X: float64(i) * spacing, Y: float64(j) * spacing})
		}
	}
	var faces []models.Triangle
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			a := j*nx + i
			b := a + 1
			c := a + nx
			d := c + 1
			faces = append(faces, models.Triangle{a, b, d}, models.Triangle{a, d, c})
		}
	}
	return coords, faces
}

// Cylinder returns the open lateral surface of a cylinder around the z axis
// with around vertices per ring and rows+1 rings from z=0 to z=height.
func Cylinder(around, rows int, radius, height float64) ([]r3.Vec, []models.Triangle) {
	coords := make([]r3.Vec, 0, around*(rows+1))
	for j := 0; j <= rows; j++ {
		z := height * float64(j) / float64(rows)
		for i := 0; i < around; i++ {
			theta := 2 * math.Pi * float64(i) / float64(around)
			coords = append(coords, r3.Vec{X: radius * math.Cos(theta), Y: radius * math.Sin(theta), Z: z})
		}
	}
	var faces []models.Triangle
	for j := 0; j < rows; j++ {
		for i := 0; i < around; i++ {
			a := j*around + i
			b := j*around + (i+1)%around
			c := (j+1)*around + i
			d := (j+1)*around + (i+1)%around
			faces = append(faces, models.Triangle{a, b, d}, models.Triangle{a, d, c})
		}
	}
	return coords, faces
}

// Transform applies p -> s*R*p + offset to every coordinate
func Transform(coords []r3.Vec, rot r3.Rotation, scale float64, offset r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(coords))
	for i, c := range coords {
		out[i] = r3.Add(r3.Scale(scale, rot.Rotate(c)), offset)
	}
	return out
}
