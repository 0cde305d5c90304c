package randx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministicForSeed(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestDeriveProducesDistinctStreams(t *testing.T) {
	s1 := Derive(New(7), 1)
	s2 := Derive(New(7), 2)
	assert.NotEqual(t, s1.Int63(), s2.Int63())

	again := Derive(New(7), 1)
	assert.Equal(t, Derive(New(7), 1).Int63(), again.Int63())
}

func TestShuffleKeepsElements(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6}
	out := Shuffle(New(3), in)
	assert.ElementsMatch(t, in, out)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, in, "input must not be modified")
}

func TestPick(t *testing.T) {
	_, ok := Pick[string](New(1), nil)
	assert.False(t, ok)

	v, ok := Pick(New(1), []string{"only"})
	require.True(t, ok)
	assert.Equal(t, "only", v)
}

func TestIntBetween(t *testing.T) {
	src := New(9)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		n := IntBetween(src, 3, 5)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
		seen[n] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 4, IntBetween(src, 4, 4))
}

func TestLockedConcurrentUse(t *testing.T) {
	src := NewLocked(New(5))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = src.Intn(10)
				_ = src.Float64()
			}
		}()
	}
	wg.Wait()
}
