package randomvar

import (
	"sync"

	"github.com/pkg/errors"
)

// Park and Miller minimal standard constants.
const (
	A int64 = 16807
	M int64 = 2147483647
	Q int64 = 127773 // M / A
	R int64 = 2836   // M % A
)

// A Generator produces a uniform stream of integers in [1, M-1] using the
// Park and Miller minimal standard multiplicative congruential method.
// Schrage's decomposition keeps every intermediate product within 32 bits.
type Generator struct {
	lock sync.Mutex
	seed int64
	xn   int64
}

// CheckSeed returns ErrSeedOutOfRange unless seed is in [1, M-1]. A seed of 0
// is a fixed point of the recurrence.
func CheckSeed(seed int64) error {
	if seed < 1 || seed >= M {
		return errors.Wrapf(ErrSeedOutOfRange,
			"%d not in [1, %d]", seed, M-1)
	}

	return nil
}

// NewGenerator creates a generator that starts from the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{seed: seed, xn: seed}
}

// Init restarts the generator from a new seed.
func (g *Generator) Init(seed int64) {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.seed = seed
	g.xn = seed
}

// Sample advances the generator and returns the new state.
func (g *Generator) Sample() int64 {
	g.lock.Lock()
	defer g.lock.Unlock()

	xq := g.xn / Q
	xr := g.xn % Q

	g.xn = A*xr - R*xq
	if g.xn < 0 {
		g.xn += M
	}

	return g.xn
}

// Seed returns the seed the generator was last initialized with.
func (g *Generator) Seed() int64 {
	g.lock.Lock()
	defer g.lock.Unlock()

	return g.seed
}

// Current returns the last value produced, or the seed if no value has been
// produced since the last Init.
func (g *Generator) Current() int64 {
	g.lock.Lock()
	defer g.lock.Unlock()

	return g.xn
}

// Module returns the modulus of the generator.
func (g *Generator) Module() int64 {
	return M
}

var (
	defaultGenLock sync.Mutex
	stdGenerator   = NewGenerator(1)
	defaultGen     = stdGenerator
)

// DefaultGenerator returns the generator that new variables bind to when no
// generator is given.
func DefaultGenerator() *Generator {
	defaultGenLock.Lock()
	defer defaultGenLock.Unlock()

	return defaultGen
}

// ChangeGenerator replaces the default generator and returns the previous
// one. Variables created before the change keep their generator.
func ChangeGenerator(g *Generator) *Generator {
	defaultGenLock.Lock()
	defer defaultGenLock.Unlock()

	old := defaultGen
	defaultGen = g

	return old
}

// RestoreGenerator rebinds the default generator to the built-in one.
func RestoreGenerator() {
	defaultGenLock.Lock()
	defer defaultGenLock.Unlock()

	defaultGen = stdGenerator
}

// Init reseeds the default generator.
func Init(seed int64) {
	DefaultGenerator().Init(seed)
}
