package simulation

// VelocityField supplies the flow driving the transport. It is read only
// from the simulator's perspective and may be time varying.
type VelocityField interface {
	At(x, y, t float64) (u, v float64)
}

// Uniform is a constant flow, useful for scenario tests and calibration.
type Uniform struct {
	U, V float64
}

func (f Uniform) At(x, y, t float64) (u, v float64) {
	return f.U, f.V
}

// BayFlow is the recirculating bay current v(x, y) = (y - 0.2 x, -x).
type BayFlow struct{}

func (BayFlow) At(x, y, t float64) (u, v float64) {
	return y - 0.2*x, -x
}
