package engine

import (
	"log"

	"github.com/dyluth/easel/internal/codec"
	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

// Remote-change applier: document change events in, scene mutations out.
//
// Failures here degrade per entry - log, skip, continue. A malformed or
// missing record must never take the canvas down.

// consume forwards document change events onto the session loop until the
// subscription closes or the session stops.
func (s *Session) consume() {
	defer s.wg.Done()

	events := s.sub.Events()
	errs := s.sub.Errors()
	for {
		select {
		case <-s.ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			s.loop.post(func() { s.applyEvent(ev) })

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[Applier] Subscription error: %v", err)
		}
	}
}

// applyEvent applies one change event. Events tagged with this session's
// own origin are echoes of its projector and are ignored wholesale. The
// scene re-renders once per event batch, not once per object.
func (s *Session) applyEvent(ev *document.Event) {
	if ev.Origin == s.origin {
		return
	}

	applied := 0
	for _, key := range ev.ChangedKeys {
		switch key {
		case document.SettingsDimensionsKey, document.SettingsPresetKey:
			if s.applyRemoteSettings(key) {
				applied++
			}
		default:
			if id, ok := document.ObjectID(key); ok {
				if s.applyRemoteObject(id) {
					applied++
				}
			}
		}
	}

	if applied > 0 {
		s.scn.RequestRender()
	}
}

// applyRemoteObject fetches the record for id and applies it onto the
// scene: a patch in place when the object exists locally, a materialization
// when it does not, a removal when the record is gone. Returns true if the
// scene changed.
func (s *Session) applyRemoteObject(id string) bool {
	if !s.guard.markInflight(id) {
		// This replica is mid-write for the same id; the document layer's
		// last-write-wins resolves the collision.
		return false
	}
	defer s.settle(func() { s.guard.clearInflight(id) })

	rec, err := s.store.Get(s.ctx, document.ObjectKey(id))
	if err != nil {
		if document.IsNotFound(err) {
			return s.removeRemote(id)
		}
		log.Printf("[Applier] Failed to fetch record %s: %v", id, err)
		return false
	}

	patch, fillRes, err := codec.FromRecord(rec)
	if err != nil {
		log.Printf("[Applier] Skipping malformed record %s: %v", id, err)
		return false
	}

	if obj, ok := s.registry.Resolve(id); ok {
		// In place; ApplyPatch recomputes the object's bounds.
		s.scn.ApplyPatch(obj, patch)
		if fillRes != nil {
			s.resolveFill(obj, fillRes)
		}
		return true
	}

	obj := &scene.Object{}
	if err := s.registry.Register(id, obj); err != nil {
		log.Printf("[Applier] Cannot materialize %s: %v", id, err)
		return false
	}
	obj.Apply(patch)
	s.scn.Insert(obj)
	if fillRes != nil {
		s.resolveFill(obj, fillRes)
	}
	return true
}

// removeRemote applies a remote deletion. An id with no local object is a
// stale delete race and is skipped silently.
func (s *Session) removeRemote(id string) bool {
	// The delete also wins over a local gesture still mid-debounce; letting
	// that timer fire would rewrite the record and resurrect the object on
	// every other replica.
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}

	obj, ok := s.registry.Resolve(id)
	if !ok {
		return false
	}
	s.scn.Remove(obj)
	s.registry.Unregister(id)
	return true
}

// resolveFill runs the deferred pattern-texture resolution off the loop and
// attaches the materialized fill once ready. The rest of the object's
// properties have already converged; only the fill trails.
func (s *Session) resolveFill(obj *scene.Object, res *codec.FillResolution) {
	if s.resolver == nil {
		obj.Fill = res.Fallback()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		fill, err := res.Resolve(s.ctx, s.resolver)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			log.Printf("[Applier] Pattern %q resolution failed, using flat tint: %v", res.Name, err)
			fill = res.Fallback()
		}

		s.loop.post(func() {
			// The object may have left the scene while the texture loaded.
			if cur, ok := s.registry.Resolve(obj.ID); !ok || cur != obj {
				return
			}
			marked := s.guard.markInflight(obj.ID)
			s.scn.ApplyPatch(obj, scene.Patch{Fill: fill})
			s.scn.RequestRender()
			if marked {
				s.settle(func() { s.guard.clearInflight(obj.ID) })
			}
		})
	}()
}

// applyRemoteSettings applies one remote settings key. The remote-settings
// flag stays set until the next turn so a settings observer reacting
// synchronously cannot re-broadcast what was just received.
func (s *Session) applyRemoteSettings(key string) bool {
	if s.guard.localSettingsActive() {
		return false
	}

	s.guard.setRemoteSettings(true)
	defer s.settle(func() { s.guard.setRemoteSettings(false) })

	rec, err := s.store.Get(s.ctx, key)
	if err != nil {
		if !document.IsNotFound(err) {
			log.Printf("[Applier] Failed to fetch settings %s: %v", key, err)
		}
		return false
	}

	switch key {
	case document.SettingsDimensionsKey:
		w, h, err := codec.RecordToDimensions(rec)
		if err != nil {
			log.Printf("[Applier] Skipping malformed dimensions: %v", err)
			return false
		}
		if w == s.settings.Width && h == s.settings.Height {
			return false
		}
		s.settings.Width, s.settings.Height = w, h

	case document.SettingsPresetKey:
		preset, err := codec.RecordToPreset(rec)
		if err != nil {
			log.Printf("[Applier] Skipping malformed preset: %v", err)
			return false
		}
		if preset == s.settings.Preset {
			return false
		}
		s.settings.Preset = preset
	}

	s.notifySettings()
	return true
}
