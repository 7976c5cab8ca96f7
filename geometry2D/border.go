package geometry2D

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Border is a named polygonal region of interest, e.g. a fishing ground.
// Borders are used for reporting oil intrusion only, never for dynamics.
type Border struct {
	Name string
	Poly geom.Polygon
}

func NewBorder(name string, ring []Point) (b *Border, err error) {
	if len(ring) < 3 {
		err = fmt.Errorf("border %q needs at least 3 points, have %d", name, len(ring))
		return
	}
	path := make([]geom.Point, len(ring))
	for i, p := range ring {
		path[i] = geom.Point{X: p.X, Y: p.Y}
	}
	b = &Border{
		Name: name,
		Poly: geom.Polygon{path},
	}
	return
}

// Contains reports whether a point lies inside the border polygon. Points
// on the polygon edge count as inside.
func (b *Border) Contains(p Point) bool {
	w := geom.Point{X: p.X, Y: p.Y}.Within(b.Poly)
	return w == geom.Inside || w == geom.OnEdge
}
