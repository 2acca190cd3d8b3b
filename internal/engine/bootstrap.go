package engine

import (
	"fmt"
	"log"

	"github.com/dyluth/easel/internal/codec"
	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

// bootstrap runs the initial full sync on the session loop, before either
// direction's steady-state listeners are armed. A non-empty document wins
// over local scene state; an empty document is seeded from it.
func (s *Session) bootstrap() error {
	keys, err := s.store.Keys(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to list document keys: %w", err)
	}

	var objectIDs []string
	haveDims, havePreset := false, false
	for _, key := range keys {
		if id, ok := document.ObjectID(key); ok {
			objectIDs = append(objectIDs, id)
			continue
		}
		switch key {
		case document.SettingsDimensionsKey:
			haveDims = true
		case document.SettingsPresetKey:
			havePreset = true
		}
	}

	if len(objectIDs) > 0 {
		// Full rebuild, bypassing the debounce path entirely.
		s.scn.Clear()
		s.registry.Reset()
		for _, id := range objectIDs {
			s.materialize(id)
		}
		s.scn.RequestRender()
		log.Printf("[Engine] Bootstrapped %d objects from document", len(objectIDs))
	} else if local := s.scn.Objects(); len(local) > 0 {
		// Empty document: local scene state becomes the seed, projected once.
		err := s.store.Transact(s.ctx, s.origin, func(tx document.Tx) error {
			for _, obj := range local {
				id := s.registry.EnsureID(obj)
				tx.Set(document.ObjectKey(id), codec.ToRecord(obj))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to seed document from local scene: %w", err)
		}
		log.Printf("[Engine] Seeded document with %d local objects", len(local))
	}

	// Settings: replicated values win, local defaults fill the gaps and are
	// projected once.
	if haveDims {
		if rec, err := s.store.Get(s.ctx, document.SettingsDimensionsKey); err == nil {
			if w, h, err := codec.RecordToDimensions(rec); err == nil {
				s.settings.Width, s.settings.Height = w, h
			} else {
				log.Printf("[Engine] Ignoring malformed replicated dimensions: %v", err)
			}
		}
	}
	if havePreset {
		if rec, err := s.store.Get(s.ctx, document.SettingsPresetKey); err == nil {
			if preset, err := codec.RecordToPreset(rec); err == nil {
				s.settings.Preset = preset
			} else {
				log.Printf("[Engine] Ignoring malformed replicated preset: %v", err)
			}
		}
	}
	if !haveDims || !havePreset {
		err := s.store.Transact(s.ctx, s.origin, func(tx document.Tx) error {
			if !haveDims {
				tx.Set(document.SettingsDimensionsKey, codec.DimensionsToRecord(s.settings.Width, s.settings.Height))
			}
			if !havePreset {
				tx.Set(document.SettingsPresetKey, codec.PresetToRecord(s.settings.Preset))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to project default settings: %w", err)
		}
	}
	s.notifySettings()

	return nil
}

// materialize constructs a scene object from its replicated record during
// bootstrap. Per-object failures are logged and skipped; one bad record
// must not abort the rebuild.
func (s *Session) materialize(id string) {
	rec, err := s.store.Get(s.ctx, document.ObjectKey(id))
	if err != nil {
		log.Printf("[Engine] Skipping unreadable record %s: %v", id, err)
		return
	}

	patch, fillRes, err := codec.FromRecord(rec)
	if err != nil {
		log.Printf("[Engine] Skipping malformed record %s: %v", id, err)
		return
	}

	obj := &scene.Object{}
	if err := s.registry.Register(id, obj); err != nil {
		log.Printf("[Engine] Skipping record %s: %v", id, err)
		return
	}
	obj.Apply(patch)
	s.scn.Insert(obj)
	if fillRes != nil {
		s.resolveFill(obj, fillRes)
	}
}
