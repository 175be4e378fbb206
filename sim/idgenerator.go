package sim

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

type sequentialIDGenerator struct {
	nextID uint64
}

func newSequentialIDGenerator() *sequentialIDGenerator {
	return &sequentialIDGenerator{}
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.next(), 10)
}

func (g *sequentialIDGenerator) next() uint64 {
	return atomic.AddUint64(&g.nextID, 1)
}
