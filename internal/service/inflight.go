package service

import "sync"

// inFlightGuard admits one holder per key at a time.
type inFlightGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInFlightGuard() *inFlightGuard {
	return &inFlightGuard{keys: map[string]struct{}{}}
}

// acquire claims key. The returned release must be called once the holder is done.
func (g *inFlightGuard) acquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.keys[key]; busy {
		return nil, false
	}
	g.keys[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.keys, key)
			g.mu.Unlock()
		})
	}, true
}
