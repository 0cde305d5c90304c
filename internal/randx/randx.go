// Package randx provides the seedable random source every selector draws from.
//
// math/rand.Rand is not goroutine-safe. Wrap a shared source with Locked, or
// derive an independent stream per goroutine with Derive.
package randx

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the generators use.
type Source interface {
	Float64() float64
	Intn(n int) int
	Int63() int64
	Shuffle(n int, swap func(i, j int))
}

// New returns a deterministic *rand.Rand for a non-zero seed and a
// time-seeded one for seed 0.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Derive creates an independent stream from base and a stream id, mixing the
// two with a SplitMix64 finalizer so consecutive ids do not correlate.
func Derive(base Source, stream uint64) *rand.Rand {
	x := uint64(base.Int63()) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return rand.New(rand.NewSource(int64(x)))
}

// Shuffle returns a shuffled copy of items using a Fisher-Yates pass.
func Shuffle[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Pick returns a uniformly drawn element, or the zero value and false when
// items is empty.
func Pick[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[src.Intn(len(items))], true
}

// IntBetween returns a uniform integer in [min, max]. Swapped bounds are
// reordered.
func IntBetween(src Source, min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + src.Intn(max-min+1)
}

// Locked serialises access to a Source.
type Locked struct {
	mu  sync.Mutex
	src Source
}

// NewLocked wraps src.
func NewLocked(src Source) *Locked {
	return &Locked{src: src}
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *Locked) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int63()
}

func (l *Locked) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src.Shuffle(n, swap)
}
