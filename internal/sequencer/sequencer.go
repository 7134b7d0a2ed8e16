package sequencer

import (
	"math"
	"sort"

	"github.com/cbegin/doremi-go/internal/concrete"
)

type VoiceEngine interface {
	NoteOn(freq float64, velocity int, pan int) int
	NoteOff(id int)
	RenderFrame() (float32, float32)
	SetMasterGain(gain float64)
	// ActiveVoiceCount returns the number of voices still sounding, release
	// tails included. Used to detect when playback has fully ended.
	ActiveVoiceCount() int
}

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

func (k EventKind) String() string {
	switch k {
	case EventLoopCompleted:
		return "loop-completed"
	case EventPlaybackEnded:
		return "playback-ended"
	}
	return "unknown"
}

type Options struct {
	LoopWholeScore    bool
	OnEvent           func(EventKind)
	ReleaseTailFrames int // silent frames after the last voice ends (0 = half a second)
	MasterTranspose   int // octaves added to every note
}

type scheduled struct {
	start    int
	stop     int
	freq     float64
	velocity int
}

type noteOff struct {
	frame int
	voice int
}

// Sequencer turns a composition into frame-accurate note-on and note-off
// calls on a VoiceEngine and renders interleaved stereo.
type Sequencer struct {
	engine     VoiceEngine
	sampleRate int
	notes      []scheduled
	endFrame   int

	frame              int
	next               int
	noteOffs           []noteOff
	loopWholeScore     bool
	onEvent            func(EventKind)
	transpose          float64
	releaseTailFrames  int
	commandExhausted   bool
	playbackEndedFired bool
}

func New(comp *concrete.Composition, engine VoiceEngine, sampleRate int) *Sequencer {
	return NewWithOptions(comp, engine, sampleRate, Options{})
}

func NewWithOptions(comp *concrete.Composition, engine VoiceEngine, sampleRate int, opts Options) *Sequencer {
	tail := opts.ReleaseTailFrames
	if tail <= 0 {
		tail = sampleRate / 2
	}
	s := &Sequencer{
		engine:            engine,
		sampleRate:        sampleRate,
		loopWholeScore:    opts.LoopWholeScore,
		onEvent:           opts.OnEvent,
		transpose:         math.Pow(2, float64(opts.MasterTranspose)),
		releaseTailFrames: tail,
	}
	if comp != nil {
		s.schedule(comp)
	}
	return s
}

func (s *Sequencer) schedule(comp *concrete.Composition) {
	s.notes = make([]scheduled, 0, len(comp.Notes))
	for _, n := range comp.Notes {
		start := s.toFrame(n.Start)
		stop := max(s.toFrame(n.Stop), start+1)
		s.notes = append(s.notes, scheduled{
			start:    start,
			stop:     stop,
			freq:     n.Frequency,
			velocity: int(n.Velocity),
		})
	}
	sort.SliceStable(s.notes, func(i, j int) bool { return s.notes[i].start < s.notes[j].start })
	s.endFrame = s.toFrame(comp.Duration())
	for _, n := range s.notes {
		s.endFrame = max(s.endFrame, n.stop)
	}
}

func (s *Sequencer) toFrame(seconds float64) int {
	return int(math.Round(seconds * float64(s.sampleRate)))
}

// Process fills dst with interleaved left/right samples.
func (s *Sequencer) Process(dst []float32) {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		s.dispatch()
		l, r := s.engine.RenderFrame()
		dst[f*2] = l
		dst[f*2+1] = r
		s.frame++
		if s.loopWholeScore && s.endFrame > 0 && s.frame >= s.endFrame {
			s.restart()
			continue
		}
		if s.commandExhausted && !s.playbackEndedFired && s.engine.ActiveVoiceCount() == 0 {
			if s.releaseTailFrames <= 0 {
				s.playbackEndedFired = true
				s.emit(EventPlaybackEnded)
			} else {
				s.releaseTailFrames--
			}
		}
	}
}

func (s *Sequencer) dispatch() {
	for s.next < len(s.notes) && s.notes[s.next].start <= s.frame {
		n := s.notes[s.next]
		id := s.engine.NoteOn(n.freq*s.transpose, n.velocity, 0)
		s.noteOffs = append(s.noteOffs, noteOff{frame: n.stop, voice: id})
		s.next++
	}
	kept := s.noteOffs[:0]
	for _, off := range s.noteOffs {
		if off.frame <= s.frame {
			s.engine.NoteOff(off.voice)
			continue
		}
		kept = append(kept, off)
	}
	s.noteOffs = kept
	if s.next >= len(s.notes) && len(s.noteOffs) == 0 && s.frame >= s.endFrame {
		s.commandExhausted = true
	}
}

// restart rewinds to the first frame. Voices still sounding are released so
// the next pass starts clean.
func (s *Sequencer) restart() {
	for _, off := range s.noteOffs {
		s.engine.NoteOff(off.voice)
	}
	s.noteOffs = s.noteOffs[:0]
	s.frame = 0
	s.next = 0
	s.emit(EventLoopCompleted)
}

func (s *Sequencer) emit(kind EventKind) {
	if s.onEvent != nil {
		s.onEvent(kind)
	}
}

// Finished reports whether playback has ended, release tail included.
func (s *Sequencer) Finished() bool {
	return s.playbackEndedFired
}

// Frame is the index of the next frame to render within the current pass.
func (s *Sequencer) Frame() int {
	return s.frame
}

// EndFrame is the length of one pass in frames.
func (s *Sequencer) EndFrame() int {
	return s.endFrame
}
