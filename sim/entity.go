package sim

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// An Entity is a long-lived actor of the simulation. Entities own the events
// that drive them.
type Entity interface {
	Named

	// NewRun resets the per-replica state and posts the initial events.
	NewRun()

	// EndRun finalizes the per-replica state. Posting events from EndRun is
	// not allowed.
	EndRun()
}

// EntityBase provides the name handling for entities.
type EntityBase struct {
	name string
}

// NewEntityBase creates a new EntityBase
func NewEntityBase(name string) *EntityBase {
	return &EntityBase{name: name}
}

// Name returns the name of the entity.
func (b *EntityBase) Name() string {
	return b.name
}
