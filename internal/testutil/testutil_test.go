package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vestlock/internal/layout"
)

func TestFixedRunGenerator(t *testing.T) {
	gen := NewFixedRunGenerator("run-123")
	assert.Equal(t, "run-123", gen.Generate())
	assert.Equal(t, "run-123", gen.Generate())

	assert.Equal(t, "test-run-default", NewFixedRunGenerator("").Generate())
}

func TestTimeSource(t *testing.T) {
	ts := NewTimeSource(100, 10)
	assert.Equal(t, uint64(100), ts.Current())
	assert.Equal(t, uint64(110), ts.Next())
	assert.Equal(t, uint64(120), ts.Next())
	assert.Equal(t, uint64(170), ts.Advance(50))

	ts.Reset()
	assert.Equal(t, uint64(100), ts.Current())
	assert.Equal(t, uint64(110), ts.Next())
}

func TestTimeSource_ThreadSafe(t *testing.T) {
	ts := NewTimeSource(0, 1)
	const goroutines = 50
	const calls = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				ts.Next()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*calls), ts.Current())
}

func TestFixturesEncode(t *testing.T) {
	cfg := LinearConfig()
	require.NoError(t, cfg.CheckOrdering())

	decoded, err := layout.DecodeConfig(ConfigBytes(cfg))
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)

	st, err := layout.DecodeState(StateBytes(Active(1000, 7)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), st.Total)
	assert.Equal(t, uint64(7), st.HighestTimeSeen)
	assert.NotEqual(t, CreatorHash, BeneficiaryHash)
}
