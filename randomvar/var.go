// Package randomvar provides random variables driven by a reproducible
// pseudo-random generator.
package randomvar

import "github.com/pkg/errors"

var (
	// ErrMaxUnsupported is returned by Min and Max when the distribution is
	// unbounded on that side.
	ErrMaxUnsupported = errors.New("bound not supported by the distribution")

	// ErrParse is returned when a variable cannot be built from its textual
	// description.
	ErrParse = errors.New("malformed random variable")

	// ErrFileOpen is returned when a deterministic sequence file cannot be
	// opened.
	ErrFileOpen = errors.New("unable to open random sequence file")

	// ErrFileTruncated is returned when a deterministic sequence file holds
	// no value.
	ErrFileTruncated = errors.New("random sequence file too short")

	// ErrSeedOutOfRange is returned by CheckSeed for seeds outside
	// [1, M-1].
	ErrSeedOutOfRange = errors.New("seed out of range")
)

// A Var is a random variable.
type Var interface {
	// Get draws a value.
	Get() float64

	// Min returns the lower bound of the values drawn by Get.
	Min() (float64, error)

	// Max returns the upper bound of the values drawn by Get.
	Max() (float64, error)
}

// An Option configures a random variable.
type Option func(b *base)

// WithGenerator binds the variable to g instead of the default generator.
func WithGenerator(g *Generator) Option {
	return func(b *base) {
		b.gen = g
	}
}

type base struct {
	gen *Generator
}

func newBase(opts []Option) base {
	b := base{gen: DefaultGenerator()}
	for _, opt := range opts {
		opt(&b)
	}

	return b
}

// Generator returns the generator the variable draws from.
func (b *base) Generator() *Generator {
	return b.gen
}

// unit returns a value in (0, 1).
func (b *base) unit() float64 {
	return float64(b.gen.Sample()) / float64(b.gen.Module())
}
