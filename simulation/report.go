package simulation

import (
	"fmt"

	"github.com/baysim/oilspill/geometry2D"
)

type BorderReport struct {
	Name  string
	Mass  float64
	Cells int
}

// Report summarizes a run for the caller: final mass, diagnostics and oil
// intrusion into each configured border region.
type Report struct {
	Steps       int
	Elapsed     float64
	FinalMass   float64
	ClampEvents int
	Borders     []BorderReport
}

func (s *Simulator) Report(borders []*geometry2D.Border) (r Report) {
	r = Report{
		Steps:       s.step,
		Elapsed:     s.elapsed,
		FinalMass:   s.MassIntegral(),
		ClampEvents: s.clampEvents,
	}
	for _, b := range borders {
		r.Borders = append(r.Borders, BorderReport{
			Name:  b.Name,
			Mass:  s.MassWithin(b),
			Cells: len(s.mesh.CellsWithin(b)),
		})
	}
	return
}

func (r Report) Print() {
	fmt.Printf("%8d\t\t= Steps\n", r.Steps)
	fmt.Printf("%8.5f\t\t= Elapsed time\n", r.Elapsed)
	fmt.Printf("%8.5f\t\t= Final mass integral\n", r.FinalMass)
	fmt.Printf("%8d\t\t= Clamped negative concentrations\n", r.ClampEvents)
	for _, b := range r.Borders {
		fmt.Printf("Border[%s] = %8.5f in %d cells\n", b.Name, b.Mass, b.Cells)
	}
}
