// Package engine implements the bidirectional sync engine: it projects
// local scene mutations into the replicated document and applies remote
// document mutations back onto the scene, guaranteeing each change is
// applied exactly once and never bounces back to its source.
//
// A Session ties one scene to one document store. All sync state lives on a
// single-goroutine run loop; scene events, document change events, debounce
// expirations, and deferred guard clears are serialized through it, which
// makes the ordering and suppression invariants local reasoning instead of
// lock discipline.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dyluth/easel/internal/identity"
	"github.com/dyluth/easel/internal/pattern"
	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

// DefaultDebounce is the trailing-debounce window for in-progress gesture
// events. Only the settled state of a drag or resize is projected.
const DefaultDebounce = 300 * time.Millisecond

// Settings are the replicated session-level canvas settings.
type Settings struct {
	Width  int
	Height int
	Preset string
}

// SettingsPatch is a partial settings update. Nil fields are untouched.
type SettingsPatch struct {
	Width  *int
	Height *int
	Preset *string
}

// Options configures a Session.
type Options struct {
	// Scene is the local scene to sync. Required.
	Scene scene.Scene

	// Store is the replicated document. Required.
	Store document.Store

	// Resolver materializes pattern fills. Optional; without it pattern
	// fills fall back to their flat tint color.
	Resolver pattern.Resolver

	// Debounce overrides DefaultDebounce when > 0.
	Debounce time.Duration

	// Defaults seed the settings when the document has none.
	Defaults Settings

	// OnSettings, if set, is invoked from the session loop whenever settings
	// change (remotely or on bootstrap).
	OnSettings func(Settings)
}

// Session is one scene<->document sync session. Create with New, start with
// Attach, stop with Close. Methods other than Attach panic if the session
// has not been attached - that is a wiring bug, not a runtime condition.
type Session struct {
	origin   string
	scn      scene.Scene
	store    document.Store
	resolver pattern.Resolver
	debounce time.Duration

	registry   *identity.Registry
	guard      *guard
	loop       *loop
	onSettings func(Settings)

	// Loop-owned state: touched only from loop tasks.
	settings Settings
	timers   map[string]*time.Timer

	ctx            context.Context
	cancel         context.CancelFunc
	sub            *document.Subscription
	removeListener func()
	wg             sync.WaitGroup
	attached       atomic.Bool
}

// New creates a session. The session does nothing until Attach is called.
func New(opts Options) (*Session, error) {
	if opts.Scene == nil {
		return nil, fmt.Errorf("scene cannot be nil")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	defaults := opts.Defaults
	if defaults == (Settings{}) {
		defaults = Settings{Width: 800, Height: 600, Preset: "default"}
	}

	return &Session{
		origin:     uuid.NewString(),
		scn:        opts.Scene,
		store:      opts.Store,
		resolver:   opts.Resolver,
		debounce:   debounce,
		registry:   identity.NewRegistry(),
		guard:      newGuard(),
		loop:       newLoop(),
		onSettings: opts.OnSettings,
		settings:   defaults,
		timers:     make(map[string]*time.Timer),
	}, nil
}

// Origin returns the session's origin tag. Every transaction this session
// produces carries it; the session ignores change events that do.
func (s *Session) Origin() string {
	return s.origin
}

// Attach bootstraps the session and arms the steady-state listeners.
//
// If the document already holds objects the scene is cleared and rebuilt
// from it; otherwise the local scene seeds the document. Replicated
// settings win over local defaults; missing settings keys are projected
// once. The bootstrap runs to completion before either direction's
// listeners are armed, so the initial full sync cannot race live edits.
func (s *Session) Attach(ctx context.Context) error {
	if s.attached.Swap(true) {
		return fmt.Errorf("session already attached")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	// Subscribe before bootstrapping so writes committed while we rebuild
	// are not lost; they queue until the consumer starts.
	sub, err := s.store.Subscribe(s.ctx)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to subscribe to document events: %w", err)
	}
	s.sub = sub

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop.run(s.ctx)
	}()

	var bootErr error
	s.loop.call(func() {
		bootErr = s.bootstrap()
	})
	if bootErr != nil {
		s.cancel()
		sub.Close()
		return fmt.Errorf("bootstrap failed: %w", bootErr)
	}

	s.removeListener = s.scn.AddListener(s.onSceneEvent)

	s.wg.Add(1)
	go s.consume()

	return nil
}

// Close detaches from the scene, stops the loop, and waits for in-flight
// goroutines. Pending debounced projections are dropped, not flushed.
func (s *Session) Close() error {
	if !s.attached.Load() {
		return nil
	}
	if s.removeListener != nil {
		s.removeListener()
	}
	s.cancel()
	if s.sub != nil {
		s.sub.Close()
	}
	s.wg.Wait()
	return nil
}

// Settings returns the session's last-known settings.
func (s *Session) Settings() Settings {
	s.mustBeAttached("Settings")
	var out Settings
	s.loop.call(func() { out = s.settings })
	return out
}

// settle schedules fn to run after the current batch of synchronous
// listener invocations has drained - the explicit "next turn" signal guard
// clears ride on.
func (s *Session) settle(fn func()) {
	s.loop.post(fn)
}

func (s *Session) mustBeAttached(op string) {
	if !s.attached.Load() {
		panic(fmt.Sprintf("engine: %s called before Attach", op))
	}
}

func (s *Session) notifySettings() {
	if s.onSettings != nil {
		s.onSettings(s.settings)
	}
}
