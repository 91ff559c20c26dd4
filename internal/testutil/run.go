package testutil

// FixedRunGenerator returns the same run ID every time.
//
// Journaling a scenario with a FixedRunGenerator produces byte-identical
// entries across runs, which keeps golden files stable.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedRunGenerator struct {
	id string
}

// NewFixedRunGenerator creates a fixed run ID generator.
// If id is empty, Generate returns "test-run-default".
func NewFixedRunGenerator(id string) *FixedRunGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunGenerator) Generate() string {
	return g.id
}
