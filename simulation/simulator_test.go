package simulation

import (
	"io/ioutil"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baysim/oilspill/geometry2D"
	"github.com/baysim/oilspill/mesh"
	"github.com/baysim/oilspill/meshgen"
	"github.com/baysim/oilspill/restart"
	"github.com/baysim/oilspill/types"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log
}

func newSim(t *testing.T, raw mesh.RawMesh, field VelocityField, dt float64,
	policy types.BoundaryPolicy) *Simulator {
	m, err := mesh.New(raw)
	require.NoError(t, err)
	s, err := NewSimulator(m, field, dt, policy)
	require.NoError(t, err)
	s.SetLogger(quietLogger())
	return s
}

func TestGaussianInit(t *testing.T) {
	s := newSim(t, meshgen.UnitSquare(8), BayFlow{}, 0.001, types.PolicyReflecting)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.35, Y: 0.45}, 0.1, 1000))
	assert.Equal(t, StatusInitialized, s.Status())
	assert.InDelta(t, 1000, s.MassIntegral(), 1.e-9)
	for _, c := range s.Concentration() {
		assert.GreaterOrEqual(t, c, 0.0)
	}

	// Only one initialization per simulator
	err := s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.1, 1)
	assert.Error(t, err)

	{ // Bad profile parameters
		s := newSim(t, meshgen.CrossedSquare(), BayFlow{}, 0.001, types.PolicyReflecting)
		assert.Error(t, s.InitializeGaussian(geometry2D.Point{}, -1, 1000))
		assert.Error(t, s.InitializeGaussian(geometry2D.Point{}, 0.1, -5))
	}
}

func TestStateMachine(t *testing.T) {
	s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 0.1}, 0.01, types.PolicyReflecting)
	assert.Equal(t, StatusUninitialized, s.Status())
	assert.Error(t, s.Step())
	assert.Error(t, s.Run(5, 0))

	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.2, 10))
	require.NoError(t, s.Step())
	assert.Equal(t, StatusStepping, s.Status())
	assert.Equal(t, 1, s.StepIndex())
	assert.InDelta(t, 0.01, s.Elapsed(), 1.e-15)

	require.NoError(t, s.Run(4, 0))
	assert.Equal(t, StatusFinished, s.Status())
	assert.Equal(t, 5, s.StepIndex())
	assert.Error(t, s.Step())
	assert.Error(t, s.Run(1, 0))
}

func TestConservationClosedDomain(t *testing.T) {
	s := newSim(t, meshgen.UnitSquare(6), BayFlow{}, 0.001, types.PolicyReflecting)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.35, Y: 0.45}, 0.1, 1000))

	before := s.MassIntegral()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Step())
		assert.InDelta(t, before, s.MassIntegral(), 1.e-9*before,
			"mass not conserved at step %d", i+1)
		for _, c := range s.Concentration() {
			assert.GreaterOrEqual(t, c, 0.0)
		}
	}
	assert.Equal(t, 0, s.ClampEvents())
}

func TestAbsorbingBoundaryScenario(t *testing.T) {
	// Unit square of 4 triangles, uniform rightward flow, absorbing
	// boundary: mass leaves through the right edge every step
	s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 1.0}, 0.1, types.PolicyAbsorbing)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.3, 100))

	prev := s.MassIntegral()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Step())
		cur := s.MassIntegral()
		assert.Less(t, cur, prev, "mass did not decrease at step %d", i+1)
		for _, c := range s.Concentration() {
			assert.GreaterOrEqual(t, c, 0.0)
		}
		prev = cur
	}
}

func TestStabilityViolation(t *testing.T) {
	// dt far beyond the CFL bound for this mesh and flow
	s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 1.0}, 1.0, types.PolicyAbsorbing)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.3, 100))

	before := s.Concentration()
	err := s.Step()
	require.Error(t, err)
	var sv *StabilityViolationError
	require.ErrorAs(t, err, &sv)
	assert.Greater(t, sv.Courant, 1.0)
	assert.Equal(t, 1.0, sv.Dt)
	// The failed step left the state untouched
	assert.Equal(t, before, s.Concentration())
	assert.Equal(t, 0, s.StepIndex())
}

// divergingFlow pushes material radially away from a center point.
type divergingFlow struct {
	cx, cy, rate float64
}

func (f divergingFlow) At(x, y, t float64) (u, v float64) {
	return f.rate * (x - f.cx), f.rate * (y - f.cy)
}

func TestClampOnStrongOutflow(t *testing.T) {
	// A single triangle drained through every edge at once: each edge
	// respects the stability bound, but the summed update overshoots
	// below zero, so the step clamps and reports instead of failing
	raw := mesh.RawMesh{
		Points: []geometry2D.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Cells:  [][3]int{{0, 1, 2}},
	}
	s := newSim(t, raw, divergingFlow{cx: 1.0 / 3, cy: 1.0 / 3, rate: 10},
		0.1, types.PolicyAbsorbing)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 1.0 / 3, Y: 1.0 / 3}, 0.1, 10))
	require.Greater(t, s.MassIntegral(), 0.0)

	require.NoError(t, s.Step())
	assert.Equal(t, 1, s.ClampEvents())
	assert.Equal(t, []float64{0}, s.Concentration())
	assert.Equal(t, 0.0, s.MassIntegral())
	assert.Equal(t, StatusStepping, s.Status())
}

func TestRestartRoundTrip(t *testing.T) {
	var (
		raw    = meshgen.UnitSquare(4)
		center = geometry2D.Point{X: 0.35, Y: 0.45}
	)
	// Continuous run: 10 steps
	a := newSim(t, raw, BayFlow{}, 0.002, types.PolicyReflecting)
	require.NoError(t, a.InitializeGaussian(center, 0.1, 1000))
	for i := 0; i < 10; i++ {
		require.NoError(t, a.Step())
	}

	// Split run: 5 steps, checkpoint, reload, 5 more
	b := newSim(t, raw, BayFlow{}, 0.002, types.PolicyReflecting)
	require.NoError(t, b.InitializeGaussian(center, 0.1, 1000))
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Step())
	}
	blob, err := restart.NewRecord(b.StepIndex(), b.Elapsed(), b.Concentration()).Encode()
	require.NoError(t, err)

	c := newSim(t, raw, BayFlow{}, 0.002, types.PolicyReflecting)
	rec, err := restart.Read(blob, c.Mesh())
	require.NoError(t, err)
	require.NoError(t, c.InitializeFromRestart(rec))
	assert.Equal(t, 5, c.StepIndex())
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Step())
	}

	// Bit identical, not just close
	ca, cc := a.Concentration(), c.Concentration()
	require.Len(t, cc, len(ca))
	for i := range ca {
		assert.Equal(t, math.Float64bits(ca[i]), math.Float64bits(cc[i]),
			"cell %d diverged after restart", i)
	}
	assert.Equal(t, a.Elapsed(), c.Elapsed())
}

func TestRestartMismatch(t *testing.T) {
	s := newSim(t, meshgen.CrossedSquare(), BayFlow{}, 0.01, types.PolicyReflecting)
	rec := restart.NewRecord(3, 0.03, []float64{1, 2, 3, 4, 5, 6})
	err := s.InitializeFromRestart(rec)
	require.Error(t, err)
	var mismatch *restart.MismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, StatusUninitialized, s.Status())
}

// collectingSink records every emission it sees.
type collectingSink struct {
	steps []int
	concs [][]float64
}

func (cs *collectingSink) Consume(step int, elapsed float64, conc []float64, m *mesh.Mesh) error {
	cs.steps = append(cs.steps, step)
	cs.concs = append(cs.concs, conc)
	return nil
}

func TestRunSnapshots(t *testing.T) {
	{ // Periodic emission plus the final snapshot
		s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 0.1}, 0.01, types.PolicyReflecting)
		require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.2, 10))
		sink := &collectingSink{}
		require.NoError(t, s.Run(5, 2, sink))
		assert.Equal(t, []int{2, 4, 5}, sink.steps)
	}
	{ // writeFrequency 0 still emits the final snapshot
		s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 0.1}, 0.01, types.PolicyReflecting)
		require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.2, 10))
		sink := &collectingSink{}
		require.NoError(t, s.Run(4, 0, sink))
		assert.Equal(t, []int{4}, sink.steps)
	}
	{ // No duplicate when the last step lands on the write interval
		s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 0.1}, 0.01, types.PolicyReflecting)
		require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.2, 10))
		sink := &collectingSink{}
		require.NoError(t, s.Run(4, 2, sink))
		assert.Equal(t, []int{2, 4}, sink.steps)
	}
	{ // Snapshots are copies, not views into the live state
		s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 0.1}, 0.01, types.PolicyReflecting)
		require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.2, 10))
		sink := &collectingSink{}
		require.NoError(t, s.Run(2, 1, sink))
		require.Len(t, sink.concs, 2)
		snap := sink.concs[0]
		for i := range snap {
			snap[i] = -1
		}
		for _, c := range s.Concentration() {
			assert.GreaterOrEqual(t, c, 0.0)
		}
	}
}

// scribblingSink overwrites every snapshot it receives.
type scribblingSink struct{}

func (scribblingSink) Consume(step int, elapsed float64, conc []float64, m *mesh.Mesh) error {
	for i := range conc {
		conc[i] = -7
	}
	return nil
}

func TestSinksReceiveIndependentCopies(t *testing.T) {
	// A sink scribbling over its snapshot must not affect what the next
	// sink in line receives
	s := newSim(t, meshgen.CrossedSquare(), Uniform{U: 0.1}, 0.01, types.PolicyReflecting)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.5, Y: 0.5}, 0.2, 10))

	collector := &collectingSink{}
	require.NoError(t, s.Run(2, 0, scribblingSink{}, collector))
	require.Len(t, collector.concs, 1)
	assert.Equal(t, s.Concentration(), collector.concs[0])
	for _, c := range collector.concs[0] {
		assert.GreaterOrEqual(t, c, 0.0)
	}
}

func TestMassWithinAndReport(t *testing.T) {
	s := newSim(t, meshgen.UnitSquare(4), BayFlow{}, 0.001, types.PolicyReflecting)
	require.NoError(t, s.InitializeGaussian(geometry2D.Point{X: 0.35, Y: 0.45}, 0.1, 1000))

	all, err := geometry2D.NewBorder("everything", []geometry2D.Point{
		{X: -1, Y: -1}, {X: 2, Y: -1}, {X: 2, Y: 2}, {X: -1, Y: 2},
	})
	require.NoError(t, err)
	empty, err := geometry2D.NewBorder("offshore", []geometry2D.Point{
		{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 5, Y: 6},
	})
	require.NoError(t, err)

	assert.InDelta(t, s.MassIntegral(), s.MassWithin(all), 1.e-9)
	assert.Equal(t, 0.0, s.MassWithin(empty))

	require.NoError(t, s.Run(10, 0))
	r := s.Report([]*geometry2D.Border{all, empty})
	assert.Equal(t, 10, r.Steps)
	assert.InDelta(t, s.MassIntegral(), r.FinalMass, 1.e-12)
	require.Len(t, r.Borders, 2)
	assert.Equal(t, "everything", r.Borders[0].Name)
	assert.InDelta(t, r.FinalMass, r.Borders[0].Mass, 1.e-9)
	assert.Equal(t, 32, r.Borders[0].Cells)
	assert.Equal(t, 0.0, r.Borders[1].Mass)
}

func TestVelocityFields(t *testing.T) {
	u, v := BayFlow{}.At(0.5, 0.3, 0)
	assert.InDelta(t, 0.3-0.2*0.5, u, 1.e-15)
	assert.InDelta(t, -0.5, v, 1.e-15)

	u, v = Uniform{U: 1.5, V: -2}.At(3, 4, 10)
	assert.Equal(t, 1.5, u)
	assert.Equal(t, -2.0, v)
}

func TestNewSimulatorValidation(t *testing.T) {
	m, err := mesh.New(meshgen.CrossedSquare())
	require.NoError(t, err)
	_, err = NewSimulator(m, BayFlow{}, 0, types.PolicyReflecting)
	assert.Error(t, err)
	_, err = NewSimulator(m, nil, 0.1, types.PolicyReflecting)
	assert.Error(t, err)
}
