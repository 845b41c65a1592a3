// Package entropy provides the shared pool of gaussian offsets agents drift
// by. A background goroutine keeps the pool churning while the simulation
// reads it; every access goes through one mutex.
package entropy

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
	"sync"
	"time"
)

// Pool is a fixed-size ring of normally distributed numbers.
type Pool struct {
	sigma float64

	mu   sync.Mutex
	nums []float64
	rng  *mrand.Rand
}

// NewPool fills a pool of size numbers drawn from N(0, sigma²).
func NewPool(size int, sigma float64, seed int64) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		sigma: sigma,
		nums:  make([]float64, size),
		rng:   mrand.New(mrand.NewSource(seed)),
	}
	for i := range p.nums {
		p.nums[i] = p.rng.NormFloat64() * sigma
	}
	return p
}

// Len returns the pool size, which never changes.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nums)
}

// Pair returns two entries for reader i: one counted from the front of the
// pool and its mirror counted from the back.
func (p *Pool) Pair(i uint64) (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := uint64(len(p.nums))
	k := i % n
	return p.nums[k], p.nums[(n-k)%n]
}

// Refresh appends a fresh draw, drops the oldest entry and shuffles.
func (p *Pool) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nums = append(p.nums[1:], p.rng.NormFloat64()*p.sigma)
	p.rng.Shuffle(len(p.nums), func(i, j int) {
		p.nums[i], p.nums[j] = p.nums[j], p.nums[i]
	})
}

// Run refreshes the pool every interval until ctx is cancelled. A
// non-positive interval leaves the pool static.
func (p *Pool) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	slog.Debug("drift pool refresher started", "size", p.Len(), "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// CryptoSeed returns a seed from crypto/rand for runs configured without one.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
