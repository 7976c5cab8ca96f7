/*
Package simulation advances an oil concentration field over an unstructured
triangular mesh. Each step computes upwind fluxes across every edge in
canonical order, applies the configured boundary policy and integrates the
per-cell state forward by a fixed dt. The computation is single threaded
and deterministic: a restarted run reproduces a continuous one bit for bit.
*/
package simulation

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/baysim/oilspill/geometry2D"
	"github.com/baysim/oilspill/mesh"
	"github.com/baysim/oilspill/restart"
	"github.com/baysim/oilspill/types"
)

type Status uint8

const (
	StatusUninitialized Status = iota
	StatusInitialized
	StatusStepping
	StatusFinished
)

func (st Status) String() string {
	switch st {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitialized:
		return "initialized"
	case StatusStepping:
		return "stepping"
	case StatusFinished:
		return "finished"
	}
	return fmt.Sprintf("Status(%d)", uint8(st))
}

/*
StabilityViolationError reports a step whose Courant number exceeds 1 on at
least one edge. Continuing past it would produce an oscillating or negative
field, so the step fails instead and leaves the state untouched.
*/
type StabilityViolationError struct {
	Edge    types.EdgeKey
	Courant float64
	Dt      float64
}

func (e *StabilityViolationError) Error() string {
	return fmt.Sprintf("stability bound violated at edge %s: Courant number %.4f > 1 with dt = %g",
		e.Edge, e.Courant, e.Dt)
}

/*
SnapshotSink consumes emitted simulation state. The concentration slice is
a fresh copy per emission, never a live reference into the simulator, so a
sink may hold or defer it freely.
*/
type SnapshotSink interface {
	Consume(step int, elapsed float64, conc []float64, m *mesh.Mesh) error
}

type Simulator struct {
	mesh   *mesh.Mesh
	field  VelocityField
	dt     float64
	policy types.BoundaryPolicy

	conc    []float64 // Per cell concentration, canonical order
	net     []float64 // Per cell net outflux accumulator, reused each step
	step    int
	elapsed float64
	status  Status

	clampEvents int
	log         *logrus.Logger
}

func NewSimulator(m *mesh.Mesh, field VelocityField, dt float64,
	policy types.BoundaryPolicy) (s *Simulator, err error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, have %g", dt)
	}
	if field == nil {
		return nil, fmt.Errorf("velocity field is required")
	}
	s = &Simulator{
		mesh:   m,
		field:  field,
		dt:     dt,
		policy: policy,
		conc:   make([]float64, m.CellCount()),
		net:    make([]float64, m.CellCount()),
		log:    logrus.StandardLogger(),
	}
	return
}

// SetLogger redirects diagnostics away from the standard logger, mainly
// for tests.
func (s *Simulator) SetLogger(log *logrus.Logger) { s.log = log }

func (s *Simulator) Status() Status   { return s.status }
func (s *Simulator) StepIndex() int   { return s.step }
func (s *Simulator) Elapsed() float64 { return s.elapsed }
func (s *Simulator) Dt() float64      { return s.dt }
func (s *Simulator) ClampEvents() int { return s.clampEvents }
func (s *Simulator) Mesh() *mesh.Mesh { return s.mesh }

// Concentration returns a copy of the current per-cell state in canonical
// order.
func (s *Simulator) Concentration() []float64 {
	return append([]float64(nil), s.conc...)
}

/*
InitializeGaussian sets each cell's concentration to a Gaussian profile
evaluated at its centroid, scaled so the mesh-wide integral equals
totalMass.
*/
func (s *Simulator) InitializeGaussian(center geometry2D.Point, sigma, totalMass float64) (err error) {
	if s.status != StatusUninitialized {
		return fmt.Errorf("cannot initialize a %s simulator", s.status)
	}
	if sigma <= 0 {
		return fmt.Errorf("sigma must be positive, have %g", sigma)
	}
	if totalMass < 0 {
		return fmt.Errorf("totalMass must not be negative, have %g", totalMass)
	}
	var (
		twoSigmaSq = 2 * sigma * sigma
	)
	for k, tri := range s.mesh.Cells {
		d := tri.Centroid.Sub(center)
		s.conc[k] = math.Exp(-d.Dot(d) / twoSigmaSq)
	}
	raw := floats.Dot(s.conc, s.mesh.Areas())
	if raw == 0 {
		return fmt.Errorf("gaussian profile vanishes everywhere on the mesh, sigma %g is too small", sigma)
	}
	floats.Scale(totalMass/raw, s.conc)
	s.status = StatusInitialized
	return
}

/*
InitializeFromRestart loads state from a checkpoint record. The record must
match the current mesh; validation happens before any state is copied.
*/
func (s *Simulator) InitializeFromRestart(rec *restart.Record) (err error) {
	if s.status != StatusUninitialized {
		return fmt.Errorf("cannot initialize a %s simulator", s.status)
	}
	if err = rec.Check(s.mesh.CellCount()); err != nil {
		return
	}
	copy(s.conc, rec.Concentration)
	s.step = rec.Step
	s.elapsed = rec.Elapsed
	s.status = StatusInitialized
	return
}

/*
Step advances the state by one dt. Fluxes are accumulated per edge in
canonical edge order with the upwind owner as donor, so the update is
deterministic. A violated stability bound fails the whole step with the
state left exactly as it was.
*/
func (s *Simulator) Step() (err error) {
	if s.status != StatusInitialized && s.status != StatusStepping {
		return fmt.Errorf("cannot step a %s simulator", s.status)
	}
	var (
		areas = s.mesh.Areas()
	)
	for i := range s.net {
		s.net[i] = 0
	}
	for _, ek := range s.mesh.SortedEdgeKeys() {
		e := s.mesh.Edges[ek]
		u, v := s.field.At(e.Midpoint.X, e.Midpoint.Y, s.elapsed)
		vn := u*e.Normal.X + v*e.Normal.Y // Positive means flow out of Cells[0]

		minArea := areas[e.Cells[0]]
		if e.NumCells == 2 && areas[e.Cells[1]] < minArea {
			minArea = areas[e.Cells[1]]
		}
		if courant := math.Abs(vn) * e.Length * s.dt / minArea; courant > 1 {
			return &StabilityViolationError{Edge: ek, Courant: courant, Dt: s.dt}
		}

		if e.IsBoundary() {
			switch {
			case s.policy == types.PolicyReflecting:
				// Closed domain, zero flux
			case vn > 0:
				// Outflow leaves the domain and is discarded
				s.net[e.Cells[0]] += vn * e.Length * s.conc[e.Cells[0]]
			default:
				// Inflow carries zero concentration
			}
			continue
		}
		// Upwind donor: the cell the flow leaves
		donor := e.Cells[0]
		if vn < 0 {
			donor = e.Cells[1]
		}
		flux := vn * e.Length * s.conc[donor]
		s.net[e.Cells[0]] += flux
		s.net[e.Cells[1]] -= flux
	}

	var (
		clamped int
		worst   float64
	)
	for i := range s.conc {
		s.conc[i] -= s.net[i] * s.dt / areas[i]
		if s.conc[i] < 0 {
			// Numerical noise below zero is clamped and reported, never
			// redistributed or hidden
			if s.conc[i] < worst {
				worst = s.conc[i]
			}
			s.conc[i] = 0
			clamped++
		}
	}
	if clamped > 0 {
		s.clampEvents += clamped
		s.log.WithFields(logrus.Fields{
			"step":  s.step + 1,
			"cells": clamped,
			"worst": worst,
		}).Warn("clamped negative concentrations")
	}

	s.step++
	s.elapsed += s.dt
	s.status = StatusStepping
	return
}

/*
Run advances nSteps steps, emitting a snapshot to every sink each
writeFrequency steps (0 disables periodic emission). A final snapshot is
always emitted, and the simulator transitions to Finished.
*/
func (s *Simulator) Run(nSteps, writeFrequency int, sinks ...SnapshotSink) (err error) {
	if s.status != StatusInitialized && s.status != StatusStepping {
		return fmt.Errorf("cannot run a %s simulator", s.status)
	}
	if nSteps <= 0 {
		return fmt.Errorf("nSteps must be positive, have %d", nSteps)
	}
	if writeFrequency < 0 {
		return fmt.Errorf("writeFrequency must not be negative, have %d", writeFrequency)
	}
	emittedAt := -1
	for i := 0; i < nSteps; i++ {
		if err = s.Step(); err != nil {
			return
		}
		if writeFrequency > 0 && s.step%writeFrequency == 0 {
			if err = s.emit(sinks); err != nil {
				return
			}
			emittedAt = s.step
		}
	}
	if emittedAt != s.step {
		if err = s.emit(sinks); err != nil {
			return
		}
	}
	s.status = StatusFinished
	return
}

func (s *Simulator) emit(sinks []SnapshotSink) (err error) {
	// Each sink gets its own copy, so one sink mutating its snapshot can
	// corrupt neither the live state nor what the other sinks see
	for _, sink := range sinks {
		if err = sink.Consume(s.step, s.elapsed, s.Concentration(), s.mesh); err != nil {
			return fmt.Errorf("snapshot sink failed at step %d: %w", s.step, err)
		}
	}
	return
}

// MassIntegral reports the total mass, the sum over cells of concentration
// times area, accumulated in canonical cell order.
func (s *Simulator) MassIntegral() float64 {
	return floats.Dot(s.conc, s.mesh.Areas())
}

// MassWithin reports the oil mass inside a border region.
func (s *Simulator) MassWithin(b *geometry2D.Border) (mass float64) {
	for _, k := range s.mesh.CellsWithin(b) {
		mass += s.conc[k] * s.mesh.Cells[k].Area
	}
	return
}
