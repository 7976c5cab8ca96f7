package mesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/baysim/oilspill/geometry2D"
	"github.com/baysim/oilspill/types"
)

/*
RawMesh is the contract with the mesh loading collaborator: an ordered list
of triangles as vertex index triples into a shared point set. Where the
points come from (a mesh file reader, a generator) is not the mesh
package's concern.
*/
type RawMesh struct {
	Points []geometry2D.Point
	Cells  [][3]int
}

type InvalidMeshError struct {
	Reason string
	Edge   types.EdgeKey
	Err    error
}

func (e *InvalidMeshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid mesh: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid mesh: %s", e.Reason)
}

func (e *InvalidMeshError) Unwrap() error { return e.Err }

/*
Edge connects one or two cells. Cells[0] is always valid; Cells[1] is valid
only when NumCells == 2. The unit normal points out of Cells[0], so a
positive velocity projection on it means flow from Cells[0] toward
Cells[1], or out of the domain for a boundary edge.
*/
type Edge struct {
	Key       types.EdgeKey
	Cells     [2]types.CellID
	LocalEdge [2]int // Local edge index within each owning cell
	NumCells  int
	Length    float64
	Midpoint  geometry2D.Point
	Normal    geometry2D.Point
}

func (e *Edge) IsBoundary() bool { return e.NumCells == 1 }

// Other returns the owner across the edge from cell c, or -1 for a
// boundary edge.
func (e *Edge) Other(c types.CellID) types.CellID {
	if e.NumCells < 2 {
		return -1
	}
	if e.Cells[0] == c {
		return e.Cells[1]
	}
	return e.Cells[0]
}

type Neighbor struct {
	Cell types.CellID
	Edge *Edge
}

/*
Mesh owns the cell arena and the derived edge set. Cells are stored in
canonical order, lexicographic by centroid with a stable tie break on the
input order, and every per-cell array anywhere in the simulation is indexed
consistently with that order. Adjacency is index based: neighbors reference
cells by CellID, never by pointer, so the structure carries no ownership
cycles.
*/
type Mesh struct {
	Points []geometry2D.Point
	Cells  []geometry2D.Triangle

	Edges      map[types.EdgeKey]*Edge
	sortedKeys []types.EdgeKey
	neighbors  [][]Neighbor
	areas      []float64
}

func New(raw RawMesh) (m *Mesh, err error) {
	if len(raw.Cells) == 0 {
		return nil, &InvalidMeshError{Reason: "no cells"}
	}
	m = &Mesh{
		Points: raw.Points,
		Cells:  make([]geometry2D.Triangle, 0, len(raw.Cells)),
		Edges:  make(map[types.EdgeKey]*Edge),
	}
	for _, verts := range raw.Cells {
		for _, v := range verts {
			if v < 0 || v >= len(raw.Points) {
				return nil, &InvalidMeshError{
					Reason: fmt.Sprintf("cell %v references point %d outside the point set", verts, v),
				}
			}
		}
		tri, triErr := geometry2D.NewTriangle(verts,
			[3]geometry2D.Point{raw.Points[verts[0]], raw.Points[verts[1]], raw.Points[verts[2]]})
		if triErr != nil {
			return nil, &InvalidMeshError{Reason: "degenerate cell", Err: triErr}
		}
		m.Cells = append(m.Cells, tri)
	}

	// Canonical cell order, required for reproducible iteration and for
	// restart exactness
	sort.SliceStable(m.Cells, func(i, j int) bool {
		ci, cj := m.Cells[i].Centroid, m.Cells[j].Centroid
		if ci.X != cj.X {
			return ci.X < cj.X
		}
		return ci.Y < cj.Y
	})

	m.areas = make([]float64, len(m.Cells))
	for k, tri := range m.Cells {
		m.areas[k] = tri.Area
	}

	if err = m.buildEdges(); err != nil {
		return nil, err
	}
	m.buildNeighbors()
	return
}

func (m *Mesh) buildEdges() (err error) {
	for k := range m.Cells {
		for i := 0; i < 3; i++ {
			if err = m.addEdge(types.CellID(k), i); err != nil {
				return
			}
		}
	}
	m.sortedKeys = make([]types.EdgeKey, 0, len(m.Edges))
	for ek := range m.Edges {
		m.sortedKeys = append(m.sortedKeys, ek)
	}
	sort.Slice(m.sortedKeys, func(i, j int) bool { return m.sortedKeys[i] < m.sortedKeys[j] })
	return
}

func (m *Mesh) addEdge(k types.CellID, localEdge int) (err error) {
	var (
		tri = m.Cells[k]
		ek  = types.NewEdgeKey(tri.EdgeVerts(localEdge))
		e   *Edge
		ok  bool
	)
	if e, ok = m.Edges[ek]; !ok {
		// First owner defines the edge geometry; the normal points out of it
		e = &Edge{
			Key:      ek,
			Length:   tri.EdgeLengths[localEdge],
			Midpoint: tri.EdgeMidpoint(localEdge),
			Normal:   tri.Normals[localEdge],
		}
		m.Edges[ek] = e
	}
	if e.NumCells > 1 {
		return &InvalidMeshError{
			Reason: fmt.Sprintf("non-manifold topology, edge %s owned by more than two cells", ek),
			Edge:   ek,
		}
	}
	e.Cells[e.NumCells] = k
	e.LocalEdge[e.NumCells] = localEdge
	e.NumCells++
	return
}

func (m *Mesh) buildNeighbors() {
	m.neighbors = make([][]Neighbor, len(m.Cells))
	for k := range m.Cells {
		id := types.CellID(k)
		// Local edge order keeps the neighbor list deterministic
		for i := 0; i < 3; i++ {
			e := m.Edges[types.NewEdgeKey(m.Cells[k].EdgeVerts(i))]
			if other := e.Other(id); other >= 0 {
				m.neighbors[k] = append(m.neighbors[k], Neighbor{Cell: other, Edge: e})
			}
		}
	}
}

func (m *Mesh) CellCount() int { return len(m.Cells) }

// Areas returns the per-cell areas in canonical order. Callers must treat
// the slice as read only.
func (m *Mesh) Areas() []float64 { return m.areas }

func (m *Mesh) TotalArea() float64 { return floats.Sum(m.areas) }

// SortedEdgeKeys returns the canonical edge iteration order, ascending by
// packed vertex pair. Callers must treat the slice as read only.
func (m *Mesh) SortedEdgeKeys() []types.EdgeKey { return m.sortedKeys }

func (m *Mesh) NeighborsOf(c types.CellID) []Neighbor {
	return m.neighbors[c]
}

// BoundaryCells returns the cells having at least one edge with a single
// owner, in canonical order.
func (m *Mesh) BoundaryCells() (cells []types.CellID) {
	onBoundary := make([]bool, len(m.Cells))
	for _, ek := range m.sortedKeys {
		e := m.Edges[ek]
		if e.IsBoundary() {
			onBoundary[e.Cells[0]] = true
		}
	}
	for k, b := range onBoundary {
		if b {
			cells = append(cells, types.CellID(k))
		}
	}
	return
}

// CellsWithin returns the cells whose centroid lies inside the border
// polygon, in canonical order.
func (m *Mesh) CellsWithin(b *geometry2D.Border) (cells []types.CellID) {
	for k, tri := range m.Cells {
		if b.Contains(tri.Centroid) {
			cells = append(cells, types.CellID(k))
		}
	}
	return
}
