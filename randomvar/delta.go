package randomvar

// Delta always returns the same value.
type Delta struct {
	value float64
}

// NewDelta creates a constant variable.
func NewDelta(v float64) *Delta {
	return &Delta{value: v}
}

// Get returns the constant.
func (d *Delta) Get() float64 {
	return d.value
}

// Min returns the constant.
func (d *Delta) Min() (float64, error) {
	return d.value, nil
}

// Max returns the constant.
func (d *Delta) Max() (float64, error) {
	return d.value, nil
}
