package app

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultThrottleCacheSize = 4096

// tapThrottle is the soft per-signer tap cooldown applied at mempool
// admission. It never runs inside FinalizeBlock, so it cannot change the
// outcome of a committed block.
type tapThrottle struct {
	every    time.Duration
	limiters *lru.Cache[string, *rate.Limiter]
	now      func() time.Time
}

// newTapThrottle returns nil (no throttling) when cooldown is not positive.
func newTapThrottle(cooldown time.Duration, size int) (*tapThrottle, error) {
	if cooldown <= 0 {
		return nil, nil
	}
	if size <= 0 {
		size = defaultThrottleCacheSize
	}
	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &tapThrottle{every: cooldown, limiters: cache, now: time.Now}, nil
}

// Allow reports whether signer may submit another tap now.
func (t *tapThrottle) Allow(signer string) bool {
	if t == nil {
		return true
	}
	lim, ok := t.limiters.Get(signer)
	if !ok {
		fresh := rate.NewLimiter(rate.Every(t.every), 1)
		if prev, found, _ := t.limiters.PeekOrAdd(signer, fresh); found {
			lim = prev
		} else {
			lim = fresh
		}
	}
	return lim.AllowN(t.now(), 1)
}
