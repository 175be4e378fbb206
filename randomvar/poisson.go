package randomvar

import "math"

// PoissonCutoff bounds the inversion loop of Poisson. Get returns the cutoff
// when the cumulative probability has not reached the drawn value by then.
const PoissonCutoff = 10000

// Poisson draws values from a Poisson distribution by inversion.
type Poisson struct {
	base
	lambda float64
}

// NewPoisson creates a Poisson variable with mean lambda.
func NewPoisson(lambda float64, opts ...Option) *Poisson {
	return &Poisson{
		base:   newBase(opts),
		lambda: lambda,
	}
}

// Get draws a value.
func (p *Poisson) Get() float64 {
	u := p.unit()
	f := math.Exp(-p.lambda)
	s := f

	for i := 1; i < PoissonCutoff; i++ {
		if u < s {
			return float64(i - 1)
		}

		f = f * p.lambda / float64(i)
		s += f
	}

	return PoissonCutoff
}

// Min is not supported.
func (p *Poisson) Min() (float64, error) {
	return 0, ErrMaxUnsupported
}

// Max is not supported.
func (p *Poisson) Max() (float64, error) {
	return 0, ErrMaxUnsupported
}
