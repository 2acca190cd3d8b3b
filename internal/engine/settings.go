package engine

import (
	"log"

	"github.com/dyluth/easel/internal/codec"
	"github.com/dyluth/easel/pkg/document"
)

// Settings sync: the projector/applier pattern narrowed to two fixed keys.
// The applier half lives in applier.go (applyRemoteSettings).

// UpdateSettings projects a local settings change. Only keys that actually
// differ from the last-known values are written; a patch that changes
// nothing produces no transaction. Ignored while a remote settings update
// is being applied - re-broadcasting what was just received is the settings
// feedback loop this engine exists to prevent.
func (s *Session) UpdateSettings(p SettingsPatch) {
	s.mustBeAttached("UpdateSettings")
	s.loop.post(func() { s.projectSettings(p) })
}

func (s *Session) projectSettings(p SettingsPatch) {
	if s.guard.remoteSettingsActive() {
		return
	}

	next := s.settings
	if p.Width != nil {
		next.Width = *p.Width
	}
	if p.Height != nil {
		next.Height = *p.Height
	}
	if p.Preset != nil {
		next.Preset = *p.Preset
	}

	dimsDirty := next.Width != s.settings.Width || next.Height != s.settings.Height
	presetDirty := next.Preset != s.settings.Preset
	if !dimsDirty && !presetDirty {
		return
	}

	s.guard.setLocalSettings(true)
	err := s.store.Transact(s.ctx, s.origin, func(tx document.Tx) error {
		if dimsDirty {
			tx.Set(document.SettingsDimensionsKey, codec.DimensionsToRecord(next.Width, next.Height))
		}
		if presetDirty {
			tx.Set(document.SettingsPresetKey, codec.PresetToRecord(next.Preset))
		}
		return nil
	})
	if err != nil {
		log.Printf("[Projector] Failed to project settings: %v", err)
	}
	s.settings = next

	s.settle(func() { s.guard.setLocalSettings(false) })
}
