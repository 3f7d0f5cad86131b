package applications

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	idStampLayout = "20060102150405"
	suffixMin     = 100
	suffixSpan    = 900
)

// idGenerator issues APP-<YYYYMMDDHHMMSS>-<NNN> ids. Within one process a
// suffix is never reused for the same second; once a second's 900 suffixes
// are spent the stamp moves forward by a second.
type idGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
	used map[int]struct{}
}

func newIDGenerator(now func() time.Time) *idGenerator {
	if now == nil {
		now = time.Now
	}
	return &idGenerator{now: now, used: make(map[int]struct{})}
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := g.now().UTC().Truncate(time.Second)
	if stamp.Before(g.last) {
		stamp = g.last
	}
	if stamp.Equal(g.last) && len(g.used) >= suffixSpan {
		stamp = stamp.Add(time.Second)
	}
	if !stamp.Equal(g.last) {
		g.last = stamp
		g.used = make(map[int]struct{})
	}

	for {
		n := suffixMin + rand.IntN(suffixSpan)
		if _, taken := g.used[n]; taken {
			continue
		}
		g.used[n] = struct{}{}
		return fmt.Sprintf("APP-%s-%d", stamp.Format(idStampLayout), n)
	}
}
