package randomvar

import "math"

// Normal draws values from a normal distribution with the polar method. Each
// round of the method produces two deviates; the second one is kept for the
// next call.
type Normal struct {
	base
	mu, sigma float64

	hasCached bool
	cached    float64
}

// NewNormal creates a normal variable with mean mu and standard deviation
// sigma.
func NewNormal(mu, sigma float64, opts ...Option) *Normal {
	return &Normal{
		base:  newBase(opts),
		mu:    mu,
		sigma: sigma,
	}
}

// Get draws a value.
func (n *Normal) Get() float64 {
	if n.hasCached {
		n.hasCached = false
		return n.cached
	}

	var t1, t2, r float64
	for {
		t1 = 2*n.unit() - 1
		t2 = 2*n.unit() - 1

		r = t1*t1 + t2*t2
		if r < 1 {
			break
		}
	}

	r = math.Sqrt(-2*math.Log(r)/r) * n.sigma
	n.cached = n.mu + t1*r
	n.hasCached = true

	return n.mu + t2*r
}

// Min is not supported.
func (n *Normal) Min() (float64, error) {
	return 0, ErrMaxUnsupported
}

// Max is not supported.
func (n *Normal) Max() (float64, error) {
	return 0, ErrMaxUnsupported
}
