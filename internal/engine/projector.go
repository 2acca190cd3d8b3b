package engine

import (
	"log"
	"time"

	"github.com/dyluth/easel/internal/codec"
	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

// Local-change projector: scene events in, tagged document writes out.
//
// Discrete terminal events (creation, path completion, text-edit exit,
// removal) project immediately. In-progress gesture events coalesce through
// a trailing debounce so only the settled state is written.

// onSceneEvent is the listener registered on the scene. It runs on the
// goroutine performing the scene mutation, so the suppression decision is
// made here, synchronously: mutations the applier is producing fire this
// listener while their id is still in flight, and must not bounce back.
func (s *Session) onSceneEvent(ev scene.Event) {
	if ev.Kind == scene.EventSceneCleared {
		s.loop.post(s.projectClear)
		return
	}

	obj := ev.Object
	if obj == nil {
		return
	}
	if obj.ID != "" && s.guard.isInflight(obj.ID) {
		// Echo of a write this session is already settling.
		return
	}

	// The mutating goroutine owns obj's fields right here; copy them before
	// handing off, so serialization on the loop cannot race the next step
	// of an in-progress gesture.
	switch ev.Kind {
	case scene.EventObjectModified:
		snap := *obj
		s.loop.post(func() { s.scheduleProjection(obj, &snap) })
	case scene.EventObjectAdded, scene.EventPathCreated, scene.EventTextEditExited:
		snap := *obj
		s.loop.post(func() { s.projectObject(obj, &snap) })
	case scene.EventObjectRemoved:
		s.loop.post(func() { s.projectRemoval(obj) })
	}
}

// scheduleProjection (re)arms the trailing debounce for obj. A later call
// for the same id supersedes the pending one; only the last scheduled call
// within the window fires. If the object has left the registry by the time
// the window closes (a remote delete landed mid-gesture), the pending
// projection is dropped rather than resurrecting the record.
func (s *Session) scheduleProjection(obj, snap *scene.Object) {
	id := s.registry.EnsureID(obj)
	if s.guard.isInflight(id) {
		return
	}

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(s.debounce, func() {
		s.loop.post(func() {
			delete(s.timers, id)
			if cur, ok := s.registry.Resolve(id); !ok || cur != obj {
				return
			}
			s.projectObject(obj, snap)
		})
	})
}

// projectObject serializes the snapshot and writes its record inside a
// transaction tagged with this session's origin. No-ops if a write for the
// id is still settling; the in-flight mark is cleared on the next turn, not
// here.
func (s *Session) projectObject(obj, snap *scene.Object) {
	id := s.registry.EnsureID(obj)
	snap.ID = id

	// A discrete event supersedes any pending debounced projection.
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}

	if !s.guard.markInflight(id) {
		return
	}

	rec := codec.ToRecord(snap)
	err := s.store.Transact(s.ctx, s.origin, func(tx document.Tx) error {
		tx.Set(document.ObjectKey(id), rec)
		return nil
	})
	if err != nil {
		log.Printf("[Projector] Failed to project object %s: %v", id, err)
	}

	s.settle(func() { s.guard.clearInflight(id) })
}

// projectRemoval deletes the object's record under the same in-flight and
// origin-tag discipline as writes.
func (s *Session) projectRemoval(obj *scene.Object) {
	id := obj.ID
	if id == "" {
		// Never synced; nothing to delete.
		return
	}

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}

	if !s.guard.markInflight(id) {
		return
	}

	err := s.store.Transact(s.ctx, s.origin, func(tx document.Tx) error {
		tx.Delete(document.ObjectKey(id))
		return nil
	})
	if err != nil {
		log.Printf("[Projector] Failed to project removal of %s: %v", id, err)
	}
	s.registry.Unregister(id)

	s.settle(func() { s.guard.clearInflight(id) })
}

// projectClear projects a local scene clear as the deletion of every known
// id in one transaction.
func (s *Session) projectClear() {
	ids := s.registry.IDs()
	if len(ids) == 0 {
		return
	}

	marked := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
		if s.guard.markInflight(id) {
			marked = append(marked, id)
		}
	}

	err := s.store.Transact(s.ctx, s.origin, func(tx document.Tx) error {
		for _, id := range ids {
			tx.Delete(document.ObjectKey(id))
		}
		return nil
	})
	if err != nil {
		log.Printf("[Projector] Failed to project scene clear: %v", err)
	}
	s.registry.Reset()

	s.settle(func() {
		for _, id := range marked {
			s.guard.clearInflight(id)
		}
	})
}
