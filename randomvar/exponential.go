package randomvar

import "math"

// Exponential draws values from an exponential distribution.
type Exponential struct {
	base
	mean float64
}

// NewExponential creates an exponential variable with the given mean.
func NewExponential(mean float64, opts ...Option) *Exponential {
	return &Exponential{
		base: newBase(opts),
		mean: mean,
	}
}

// Mean returns the mean of the distribution.
func (e *Exponential) Mean() float64 {
	return e.mean
}

// Get draws a value.
func (e *Exponential) Get() float64 {
	return -math.Log(e.unit()) * e.mean
}

// Min returns 0.
func (e *Exponential) Min() (float64, error) {
	return 0, nil
}

// Max is not supported.
func (e *Exponential) Max() (float64, error) {
	return 0, ErrMaxUnsupported
}
