package engine

import "sync"

// guard is the loop- and re-entrancy suppression state shared by the
// projector and the applier. Three pieces of state per session:
//
//   - the in-flight id set: ids currently mid-write in either direction;
//     while an id is in the set no second write for it may start, and
//     scene events for it are echoes, not new information
//   - localSettings: set while this session projects a settings write
//   - remoteSettings: set while this session applies a remote settings write
//
// All clears are deferred to a settle task on the session loop rather than
// done synchronously, so listeners invoked in the same turn as the write
// still observe the state as set. The price is a brief window where a true
// rapid local+remote collision on one id is resolved by last-write-wins at
// the document layer instead of here.
//
// The guard is per-session state, never shared between sessions; two
// documents open in one process suppress independently.
type guard struct {
	mu             sync.Mutex
	inflight       map[string]struct{}
	localSettings  bool
	remoteSettings bool
}

func newGuard() *guard {
	return &guard{inflight: make(map[string]struct{})}
}

// markInflight adds id to the in-flight set. Returns false if the id was
// already in flight, in which case the caller must not start a write.
func (g *guard) markInflight(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[id]; ok {
		return false
	}
	g.inflight[id] = struct{}{}
	return true
}

func (g *guard) clearInflight(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, id)
}

func (g *guard) isInflight(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[id]
	return ok
}

func (g *guard) setLocalSettings(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.localSettings = v
}

func (g *guard) localSettingsActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.localSettings
}

func (g *guard) setRemoteSettings(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.remoteSettings = v
}

func (g *guard) remoteSettingsActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remoteSettings
}
