package randomvar

import "math"

// Pareto draws values from a Pareto distribution with scale mu and shape
// order.
type Pareto struct {
	base
	mu    float64
	order float64
}

// NewPareto creates a Pareto variable.
func NewPareto(mu, order float64, opts ...Option) *Pareto {
	return &Pareto{
		base:  newBase(opts),
		mu:    mu,
		order: order,
	}
}

// Get draws a value.
func (p *Pareto) Get() float64 {
	return p.mu * math.Pow(p.unit(), -1/p.order)
}

// Min is not supported.
func (p *Pareto) Min() (float64, error) {
	return 0, ErrMaxUnsupported
}

// Max is not supported.
func (p *Pareto) Max() (float64, error) {
	return 0, ErrMaxUnsupported
}
