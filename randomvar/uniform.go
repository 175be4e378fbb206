package randomvar

// Uniform draws values uniformly between a lower and an upper bound.
type Uniform struct {
	base
	min, max float64
}

// NewUniform creates a variable uniform in [a, b).
func NewUniform(a, b float64, opts ...Option) *Uniform {
	return &Uniform{
		base: newBase(opts),
		min:  a,
		max:  b,
	}
}

// Get draws a value.
func (u *Uniform) Get() float64 {
	return u.min + u.unit()*(u.max-u.min)
}

// Min returns the lower bound.
func (u *Uniform) Min() (float64, error) {
	return u.min, nil
}

// Max returns the upper bound.
func (u *Uniform) Max() (float64, error) {
	return u.max, nil
}
