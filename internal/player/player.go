// Package player drives time-indexed playback of a session's frame
// sequence through an injected rendering capability.
package player

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/careband/pressure-monitor/internal/heatmap"
	"github.com/careband/pressure-monitor/internal/sensor"
	"github.com/careband/pressure-monitor/internal/session"
)

// DefaultFrameDuration is the playback period between frames.
const DefaultFrameDuration = 200 * time.Millisecond

// State is the player's lifecycle state.
type State int

const (
	// StateIdle means no session is loaded.
	StateIdle State = iota
	// StateReady means a session is loaded and paused at frame zero.
	StateReady
	// StatePlaying means the timer is active and the index advancing.
	StatePlaying
	// StatePaused means the timer is stopped with the index retained.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Renderer is the narrow rendering capability the player invokes for
// every displayed frame.
type Renderer interface {
	RenderFrame(f sensor.Frame, theme heatmap.Theme) error
}

// Player is a stateful playback controller. It holds a borrowed
// reference to the active session's frame sequence and never mutates it.
// A Player owns its timer exclusively: switching sessions or closing the
// player always cancels any pending timer first.
type Player struct {
	renderer Renderer
	frameDur time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	session *session.Session
	index   int
	state   State
	palette heatmap.Theme

	stop chan struct{}
	done chan struct{}
}

// WithFrameDuration sets the playback period between frames.
func WithFrameDuration(d time.Duration) func(*Player) {
	return func(p *Player) {
		if d > 0 {
			p.frameDur = d
		}
	}
}

// WithPalette sets the initial rendering palette.
func WithPalette(theme heatmap.Theme) func(*Player) {
	return func(p *Player) {
		p.palette = theme
	}
}

// WithLogger sets the logger for the player.
func WithLogger(logger *slog.Logger) func(*Player) {
	return func(p *Player) {
		p.logger = logger
	}
}

// New creates an idle player rendering through the given capability.
func New(renderer Renderer, options ...func(*Player)) *Player {
	p := &Player{
		renderer: renderer,
		frameDur: DefaultFrameDuration,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		palette:  heatmap.DefaultTheme,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Index returns the current frame index.
func (p *Player) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Palette returns the active rendering palette.
func (p *Player) Palette() heatmap.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.palette
}

// SetPalette changes the rendering palette and re-renders the current
// frame. The playback state machine is unaffected.
func (p *Player) SetPalette(theme heatmap.Theme) {
	p.mu.Lock()
	p.palette = theme
	frame, active := p.currentLocked()
	p.mu.Unlock()

	p.render(frame, active)
}

// SetSession switches the player onto a new session: any active timer is
// cancelled first and the index resets to zero. If the player was
// playing, playback continues on the new session immediately. A nil
// session returns the player to idle.
func (p *Player) SetSession(sess *session.Session) {
	p.mu.Lock()
	wasPlaying := p.state == StatePlaying
	done := p.stopTimerLocked()

	p.session = sess
	p.index = 0
	switch {
	case sess == nil || len(sess.Frames) == 0:
		p.state = StateIdle
	case wasPlaying:
		p.state = StatePlaying
		p.startTimerLocked()
	default:
		p.state = StateReady
	}
	frame, theme := p.currentLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
	p.render(frame, theme)
}

// Play starts the playback timer. It is a no-op unless the player is
// ready or paused with frames loaded.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateReady && p.state != StatePaused {
		return
	}
	if p.session == nil || len(p.session.Frames) == 0 {
		return
	}

	p.state = StatePlaying
	p.startTimerLocked()
}

// Pause stops the timer and retains the current index for resume.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	p.state = StatePaused
	done := p.stopTimerLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Seek jumps to a frame index, clamped to the loaded sequence, and
// re-renders immediately. The timer state is unaffected.
func (p *Player) Seek(index int) {
	p.mu.Lock()
	if p.session == nil || len(p.session.Frames) == 0 {
		p.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if max := len(p.session.Frames) - 1; index > max {
		index = max
	}
	p.index = index
	frame, theme := p.currentLocked()
	p.mu.Unlock()

	p.render(frame, theme)
}

// RenderCurrent re-renders the frame at the current index without
// touching any state.
func (p *Player) RenderCurrent() {
	p.mu.Lock()
	frame, theme := p.currentLocked()
	p.mu.Unlock()

	p.render(frame, theme)
}

// Close tears the player down, cancelling any pending timer. It is safe
// to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	done := p.stopTimerLocked()
	p.session = nil
	p.index = 0
	p.state = StateIdle
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// currentLocked returns the frame at the current index, or nil when
// nothing is loaded. Callers hold p.mu.
func (p *Player) currentLocked() (sensor.Frame, heatmap.Theme) {
	if p.session == nil || len(p.session.Frames) == 0 {
		return nil, p.palette
	}
	return p.session.Frames[p.index], p.palette
}

// render invokes the rendering capability outside the lock. Rendering
// failures are logged, never surfaced: playback must not hard-fail on a
// bad frame. A nil frame is a no-op.
func (p *Player) render(f sensor.Frame, theme heatmap.Theme) {
	if f == nil {
		return
	}
	if err := p.renderer.RenderFrame(f, theme); err != nil {
		p.logger.Warn("render failed", slog.Any("error", err))
	}
}

// startTimerLocked launches the tick loop. It is a no-op when a timer is
// already running. Callers hold p.mu.
func (p *Player) startTimerLocked() {
	if p.stop != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop = stop
	p.done = done

	go p.run(stop, done)
}

// stopTimerLocked cancels the active timer, if any, and returns a channel
// that closes once the tick loop has exited. Cancelling twice is a
// no-op. Callers hold p.mu and must wait on the returned channel only
// after releasing it; stale ticks are already inert once p.stop is
// cleared.
func (p *Player) stopTimerLocked() <-chan struct{} {
	if p.stop == nil {
		return nil
	}
	close(p.stop)
	done := p.done
	p.stop = nil
	p.done = nil
	return done
}

// run is the tick loop: one frame advance per period until stopped.
func (p *Player) run(stop chan struct{}, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.frameDur)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick(stop)
		}
	}
}

// tick advances the index modulo the frame count (looping playback) and
// renders the new frame. Ticks from a cancelled timer are ignored.
func (p *Player) tick(stop chan struct{}) {
	p.mu.Lock()
	if p.stop != stop || p.state != StatePlaying || p.session == nil || len(p.session.Frames) == 0 {
		p.mu.Unlock()
		return
	}
	p.index = (p.index + 1) % len(p.session.Frames)
	frame, theme := p.currentLocked()
	p.mu.Unlock()

	p.render(frame, theme)
}
