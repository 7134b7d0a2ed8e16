package doremi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/doremi-go/internal/audio"
	intchip "github.com/cbegin/doremi-go/internal/chiptune"
	intfx "github.com/cbegin/doremi-go/internal/effects"
	intfm "github.com/cbegin/doremi-go/internal/fm"
	intseq "github.com/cbegin/doremi-go/internal/sequencer"
)

// PlaybackEvent is delivered on the channel returned by Watch.
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
	Loop int // completed passes so far
}

const (
	EventLoopCompleted = int(intseq.EventLoopCompleted)
	EventPlaybackEnded = int(intseq.EventPlaybackEnded)
)

// Effects configures the reverb and tempo-synced echo applied after the synth.
type Effects = intfx.Settings

// SynthParams tunes the FM voice.
type SynthParams = intfm.Params

func DefaultSynthParams() SynthParams { return intfm.DefaultParams() }

// SynthMode picks the voice: FM, or a chip oscillator.
type SynthMode string

const (
	SynthFM       SynthMode = "fm"
	SynthPulse    SynthMode = "pulse"
	SynthSquare   SynthMode = "square"
	SynthTriangle SynthMode = "triangle"
)

func ParseSynthMode(s string) (SynthMode, error) {
	switch m := SynthMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SynthFM, nil
	case SynthFM, SynthPulse, SynthSquare, SynthTriangle:
		return m, nil
	}
	return "", fmt.Errorf("unknown synth mode %q (want fm, pulse, square or triangle)", s)
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	loopPlayback bool
	sampleTap    func([]float32)
	effects      Effects
	synth        SynthParams
	mode         SynthMode
	transpose    int
	compose      []Option
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{synth: intfm.DefaultParams(), mode: SynthFM}
}

// newEngine builds the voice for cfg.mode and returns its base gain.
func (cfg playerConfig) newEngine(sampleRate int) (intseq.VoiceEngine, float64) {
	if cfg.mode == "" || cfg.mode == SynthFM {
		return intfm.New(sampleRate, cfg.synth), cfg.synth.MasterGain
	}
	chip := intchip.DefaultParams()
	chip.Wave, _ = intchip.ParseWave(string(cfg.mode))
	chip.AttackSec = cfg.synth.AttackSec
	chip.ReleaseSec = cfg.synth.ReleaseSec
	return intchip.New(sampleRate, chip), chip.MasterGain
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

func WithEffects(fx Effects) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = fx
	}
}

func WithSynthParams(params SynthParams) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.synth = params
	}
}

// WithSynthMode switches the voice. Chip modes take their attack and
// release times from the synth params.
func WithSynthMode(mode SynthMode) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.mode = mode
	}
}

// WithTranspose shifts every note by whole octaves.
func WithTranspose(octaves int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.transpose = octaves
	}
}

// WithComposeOptions sets the options PlaySource composes with.
func WithComposeOptions(opts ...Option) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.compose = append(cfg.compose, opts...)
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        playerConfig
	engine     intseq.VoiceEngine
	baseGain   float64
	newBackend func(int, intaudio.SampleSource) (*intaudio.Player, error)
	audio      *intaudio.Player
	volume     float64
	done       chan struct{}
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

// voiceSource wraps a sequencer for the audio stream: it applies the effect
// chain and the sample tap, and reports when non-looping playback ends.
type voiceSource struct {
	seq       *intseq.Sequencer
	finished  atomic.Bool
	loops     atomic.Int64
	effects   *intfx.Chain
	sampleTap func([]float32)
}

func (s *voiceSource) Process(dst []float32) {
	s.seq.Process(dst)
	if s.effects.Len() > 0 {
		for i := 0; i+1 < len(dst); i += 2 {
			dst[i], dst[i+1] = s.effects.Process(dst[i], dst[i+1])
		}
	}
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

func (s *voiceSource) Finished() bool {
	return s.finished.Load()
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := ParseSynthMode(string(cfg.mode)); err != nil {
		return nil, err
	}
	p := &Player{
		sampleRate: sampleRate,
		cfg:        cfg,
		newBackend: intaudio.NewPlayer,
		volume:     1,
	}
	p.engine, p.baseGain = cfg.newEngine(sampleRate)
	return p, nil
}

// PlaySource composes source with the player's compose options and plays it.
func (p *Player) PlaySource(source string) (*Composition, error) {
	p.mu.Lock()
	opts := p.cfg.compose
	p.mu.Unlock()
	comp, err := Compose(source, opts...)
	if err != nil {
		return nil, err
	}
	return comp, p.Play(comp)
}

// Play replaces whatever is playing with comp.
func (p *Player) Play(comp *Composition) error {
	if comp == nil {
		return errors.New("nil composition")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	// A fresh engine per composition keeps voices from ringing across songs.
	engine, baseGain := p.cfg.newEngine(p.sampleRate)
	engine.SetMasterGain(baseGain * p.volume)

	src := &voiceSource{
		effects:   intfx.Build(p.sampleRate, comp.BPM, p.cfg.effects),
		sampleTap: p.cfg.sampleTap,
	}
	src.seq = intseq.NewWithOptions(comp, engine, p.sampleRate, intseq.Options{
		LoopWholeScore:  p.cfg.loopPlayback,
		MasterTranspose: p.cfg.transpose,
		OnEvent: func(kind intseq.EventKind) {
			ev := PlaybackEvent{Kind: int(kind), Loop: int(src.loops.Load())}
			switch kind {
			case intseq.EventLoopCompleted:
				ev.Loop = int(src.loops.Add(1))
			case intseq.EventPlaybackEnded:
				src.finished.Store(true)
			}
			p.sendEvent(ev)
			if kind == intseq.EventPlaybackEnded {
				p.signalDone()
			}
		},
	})

	// On failure the current playback and its engine are left untouched.
	backend, err := p.newBackend(p.sampleRate, src)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})
	p.engine, p.baseGain = engine, baseGain
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends. With loop playback it blocks
// until Stop; use Watch to count loops instead. Wait returns immediately when
// nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 8) and events are dropped when it is full. Only the most
// recent Watch channel receives events; call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// Position is the audible playback position, or 0 when idle.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return 0
	}
	return p.audio.Position()
}

// SetMasterVolume sets the runtime volume scalar. 1.0 is the default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.engine.SetMasterGain(p.baseGain * p.volume)
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetTranspose sets the octave shift applied from the next Play.
func (p *Player) SetTranspose(octaves int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.transpose = octaves
}

func (p *Player) Transpose() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.transpose
}
