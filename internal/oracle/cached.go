package oracle

import (
	"context"
	"time"

	"github.com/ppiankov/punctuate/internal/cache"
)

// CachedOracle serves repeated windows from a cache and forwards only the
// misses to the wrapped oracle.
type CachedOracle struct {
	next  Oracle
	model string
	scope string
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedOracle wraps next with c. Entries are keyed by provider, model,
// tag alphabet with its transforms, options and window text, so windows
// repeated across queries share entries.
func NewCachedOracle(next Oracle, config Config, c cache.Cache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, model: config.Model, scope: config.labelScope(), cache: c, ttl: ttl}
}

// Name returns the wrapped provider name
func (o *CachedOracle) Name() string {
	return o.next.Name()
}

// Label answers cached windows directly and labels the rest in one request
func (o *CachedOracle) Label(ctx context.Context, req Request) ([]Labeling, error) {
	out := make([]Labeling, 0, len(req.Windows))
	keys := make(map[string]string, len(req.Windows))
	var misses []Window

	for _, w := range req.Windows {
		key := o.key(w, req.Options)
		if val, found := o.cache.Get(key); found {
			out = append(out, Labeling{ID: w.ID, Labels: string(val)})
			continue
		}
		keys[w.ID] = key
		misses = append(misses, w)
	}

	if len(misses) == 0 {
		return out, nil
	}

	fresh, err := o.next.Label(ctx, Request{ID: req.ID, Windows: misses, Options: req.Options})
	if err != nil {
		return nil, err
	}

	for _, l := range fresh {
		if key, ok := keys[l.ID]; ok {
			// a failed write only costs a future miss
			_ = o.cache.Set(key, []byte(l.Labels), o.ttl)
		}
		out = append(out, l)
	}

	return out, nil
}

func (o *CachedOracle) key(w Window, opts Options) string {
	return cache.Key(o.next.Name(), o.model, o.scope, opts.Key(), w.Text())
}
