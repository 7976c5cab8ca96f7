package geometry2D

import (
	"fmt"
	"math"
)

// AreaTolerance is the smallest triangle area accepted during mesh
// construction. Anything below it is treated as collinear input.
const AreaTolerance = 1.e-14

type Point struct {
	X, Y float64
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

func (p Point) Scale(a float64) Point {
	return Point{a * p.X, a * p.Y}
}

func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

func (p Point) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

type DegenerateGeometryError struct {
	Verts [3]int
	Area  float64
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate triangle, vertices %v have area %g", e.Verts, e.Area)
}

/*
Triangle is the geometric cell primitive. Vertex coordinates are fixed at
construction; all derived quantities (area, centroid, per edge outward
normals and lengths) are computed once and never mutated afterwards.

Local edge i connects P[i] to P[(i+1)%3].
*/
type Triangle struct {
	Verts       [3]int     // Global vertex indices
	P           [3]Point   // Vertex coordinates
	Area        float64    // Unsigned area
	Centroid    Point      // Mean of the three vertices
	Normals     [3]Point   // Outward unit normal per local edge
	EdgeLengths [3]float64 // Length per local edge
}

func NewTriangle(verts [3]int, p [3]Point) (tri Triangle, err error) {
	var (
		e1 = p[1].Sub(p[0])
		e2 = p[2].Sub(p[0])
	)
	tri = Triangle{Verts: verts, P: p}
	tri.Area = 0.5 * math.Abs(e1.X*e2.Y-e1.Y*e2.X)
	if tri.Area < AreaTolerance {
		err = &DegenerateGeometryError{Verts: verts, Area: tri.Area}
		return
	}
	tri.Centroid = p[0].Add(p[1]).Add(p[2]).Scale(1. / 3.)
	for i := 0; i < 3; i++ {
		a, b := p[i], p[(i+1)%3]
		edge := b.Sub(a)
		tri.EdgeLengths[i] = edge.Norm()
		// Rotate the edge by -90 degrees and normalize, then flip if the
		// result points toward the centroid rather than away from it
		n := Point{edge.Y, -edge.X}.Scale(1. / tri.EdgeLengths[i])
		mid := a.Add(b).Scale(0.5)
		if n.Dot(mid.Sub(tri.Centroid)) < 0 {
			n = n.Scale(-1)
		}
		tri.Normals[i] = n
	}
	return
}

// EdgeVerts returns the global vertex pair of local edge i, in the
// triangle's traversal order.
func (tri Triangle) EdgeVerts(i int) [2]int {
	return [2]int{tri.Verts[i], tri.Verts[(i+1)%3]}
}

// EdgeMidpoint returns the midpoint of local edge i.
func (tri Triangle) EdgeMidpoint(i int) Point {
	return tri.P[i].Add(tri.P[(i+1)%3]).Scale(0.5)
}

// ScaledNormal returns the outward normal of local edge i scaled by the
// edge length.
func (tri Triangle) ScaledNormal(i int) Point {
	return tri.Normals[i].Scale(tri.EdgeLengths[i])
}

/*
SharedEdge reports whether two triangles share exactly two vertices. When
they do, it returns the local edge index within each triangle. Triangles
sharing fewer than two vertices are not adjacent; sharing all three is a
duplicate cell and also reported as not adjacent.
*/
func SharedEdge(a, b Triangle) (edgeA, edgeB int, ok bool) {
	var (
		common int
	)
	for _, va := range a.Verts {
		for _, vb := range b.Verts {
			if va == vb {
				common++
			}
		}
	}
	if common != 2 {
		return 0, 0, false
	}
	match := func(tri Triangle, verts [2]int) (i int, found bool) {
		for i = 0; i < 3; i++ {
			ev := tri.EdgeVerts(i)
			if (ev[0] == verts[0] && ev[1] == verts[1]) ||
				(ev[0] == verts[1] && ev[1] == verts[0]) {
				return i, true
			}
		}
		return 0, false
	}
	for i := 0; i < 3; i++ {
		if edgeB, ok = match(b, a.EdgeVerts(i)); ok {
			edgeA = i
			return
		}
	}
	return 0, 0, false
}
