/*
Package meshgen supplies ready triangulations to the mesh package:
structured square meshes for tests and calibration runs, and Delaunay
triangulations of arbitrary point sets for irregular domains.
*/
package meshgen

import (
	"fmt"

	"github.com/pradeep-pyro/triangle"

	"github.com/baysim/oilspill/geometry2D"
	"github.com/baysim/oilspill/mesh"
)

// CrossedSquare returns the unit square split into 4 triangles around its
// center point.
func CrossedSquare() mesh.RawMesh {
	return mesh.RawMesh{
		Points: []geometry2D.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5},
		},
		Cells: [][3]int{
			{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
		},
	}
}

// UnitSquare returns the unit square as an n x n grid of quads, each split
// into two triangles along its diagonal.
func UnitSquare(n int) (raw mesh.RawMesh) {
	if n < 1 {
		n = 1
	}
	var (
		h   = 1. / float64(n)
		idx = func(i, j int) int { return j*(n+1) + i }
	)
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			raw.Points = append(raw.Points, geometry2D.Point{X: float64(i) * h, Y: float64(j) * h})
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			sw, se := idx(i, j), idx(i+1, j)
			nw, ne := idx(i, j+1), idx(i+1, j+1)
			raw.Cells = append(raw.Cells, [3]int{sw, se, ne}, [3]int{sw, ne, nw})
		}
	}
	return
}

// Delaunay triangulates a point set for irregular domains, e.g. a bay
// coastline sampled by the mesh supplier.
func Delaunay(points []geometry2D.Point) (raw mesh.RawMesh, err error) {
	if len(points) < 3 {
		return raw, fmt.Errorf("delaunay triangulation needs at least 3 points, have %d", len(points))
	}
	pts := make([][2]float64, len(points))
	for i, p := range points {
		pts[i] = [2]float64{p.X, p.Y}
	}
	verts := triangle.Delaunay(pts)
	raw.Points = points
	for _, v := range verts {
		raw.Cells = append(raw.Cells, [3]int{int(v[0]), int(v[1]), int(v[2])})
	}
	if len(raw.Cells) == 0 {
		return raw, fmt.Errorf("delaunay triangulation produced no cells, are the points collinear?")
	}
	return
}
