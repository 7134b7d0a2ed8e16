package sequencer

import (
	"testing"

	"github.com/cbegin/doremi-go/internal/concrete"
	"github.com/cbegin/doremi-go/internal/fm"
	"github.com/cbegin/doremi-go/internal/parsing"
)

type countingEngine struct {
	noteOnCount int
	noteOffs    []int
	freqs       []float64
	nextID      int
	active      int
}

func (e *countingEngine) NoteOn(freq float64, velocity int, pan int) int {
	e.noteOnCount++
	e.freqs = append(e.freqs, freq)
	id := e.nextID
	e.nextID++
	return id
}
func (e *countingEngine) NoteOff(id int)                  { e.noteOffs = append(e.noteOffs, id) }
func (e *countingEngine) RenderFrame() (float32, float32) { return 0, 0 }
func (e *countingEngine) SetMasterGain(gain float64)      {}
func (e *countingEngine) ActiveVoiceCount() int           { return e.active }

func compose(t testing.TB, src string, bpm float64) *concrete.Composition {
	t.Helper()
	coll, err := parsing.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	beats, notes, scope, err := coll.Evaluate(nil)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	scale, err := concrete.GetScale(concrete.DefaultScale)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	comp, err := concrete.NewComposition(scale, bpm, coll, beats, notes, scope)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	return comp
}

func TestSequencerProcessesFrames(t *testing.T) {
	comp := compose(t, "do re mi fa so la ti 'do", 480)
	engine := fm.New(48000, fm.DefaultParams())
	seq := New(comp, engine, 48000)

	buf := make([]float32, 48000/4*2)
	seq.Process(buf)

	var energy float64
	for _, s := range buf {
		if s < 0 {
			energy -= float64(s)
		} else {
			energy += float64(s)
		}
	}
	if energy == 0 {
		t.Fatalf("expected non-zero audio energy")
	}
}

func TestSequencerSchedulesNotesOnFrames(t *testing.T) {
	// 60 bpm: one beat per second, 100 frames per beat.
	comp := compose(t, "do _ mi:2", 60)
	engine := &countingEngine{}
	seq := New(comp, engine, 100)
	if got := seq.EndFrame(); got != 400 {
		t.Fatalf("end frame = %d, want 400", got)
	}

	buf := make([]float32, 2)
	for i := 0; i < 200; i++ {
		seq.Process(buf)
	}
	if engine.noteOnCount != 1 || len(engine.noteOffs) != 1 {
		t.Fatalf("after 2 beats: %d note-ons, %d note-offs", engine.noteOnCount, len(engine.noteOffs))
	}
	seq.Process(buf)
	if engine.noteOnCount != 2 {
		t.Fatalf("mi should start on frame 200, got %d note-ons", engine.noteOnCount)
	}
	for i := 0; i < 200; i++ {
		seq.Process(buf)
	}
	if len(engine.noteOffs) != 2 {
		t.Fatalf("mi should stop on frame 400, got %d note-offs", len(engine.noteOffs))
	}
}

func TestSequencerChordStartsTogether(t *testing.T) {
	comp := compose(t, "do\nmi\nso", 120)
	engine := &countingEngine{}
	seq := New(comp, engine, 48000)
	seq.Process(make([]float32, 2))
	if engine.noteOnCount != 3 {
		t.Fatalf("expected three simultaneous note-ons, got %d", engine.noteOnCount)
	}
}

func TestSequencerTranspose(t *testing.T) {
	comp := compose(t, "la", 120)
	engine := &countingEngine{}
	seq := NewWithOptions(comp, engine, 48000, Options{MasterTranspose: -1})
	seq.Process(make([]float32, 2))
	if len(engine.freqs) != 1 || engine.freqs[0] < 219.99 || engine.freqs[0] > 220.01 {
		t.Fatalf("expected la an octave down at 220 Hz, got %v", engine.freqs)
	}
}

func TestSequencerLoopsWholeScoreWhenEnabled(t *testing.T) {
	comp := compose(t, "do", 120)
	engine := &countingEngine{}
	var loops int
	seq := NewWithOptions(comp, engine, 48000, Options{
		LoopWholeScore: true,
		OnEvent: func(k EventKind) {
			if k == EventLoopCompleted {
				loops++
			}
		},
	})
	// 2 seconds at 120 BPM with one-beat notes should retrigger four times.
	buf := make([]float32, 48000*2*2)
	seq.Process(buf)
	if engine.noteOnCount != 4 {
		t.Fatalf("expected 4 note-ons, got %d", engine.noteOnCount)
	}
	if loops != 4 {
		t.Fatalf("expected 4 loop events, got %d", loops)
	}
	if seq.Finished() {
		t.Fatalf("looping playback never finishes")
	}
}

func TestSequencerFiresPlaybackEndedAfterTail(t *testing.T) {
	comp := compose(t, "do", 60)
	engine := &countingEngine{active: 1}
	var ended int
	seq := NewWithOptions(comp, engine, 100, Options{
		ReleaseTailFrames: 10,
		OnEvent: func(k EventKind) {
			if k == EventPlaybackEnded {
				ended++
			}
		},
	})
	buf := make([]float32, 2*150)
	seq.Process(buf)
	if ended != 0 {
		t.Fatalf("playback must not end while voices are sounding")
	}
	engine.active = 0
	seq.Process(make([]float32, 2*10))
	if ended != 0 || seq.Finished() {
		t.Fatalf("playback ended before the release tail elapsed")
	}
	seq.Process(make([]float32, 2*2))
	if ended != 1 || !seq.Finished() {
		t.Fatalf("expected exactly one playback-ended event, got %d", ended)
	}
	seq.Process(make([]float32, 2*100))
	if ended != 1 {
		t.Fatalf("playback-ended fired again")
	}
}

func TestSequencerEmptyCompositionEndsWithoutLooping(t *testing.T) {
	comp := compose(t, "| only a comment\n", 120)
	engine := &countingEngine{}
	var events []EventKind
	seq := NewWithOptions(comp, engine, 100, Options{
		LoopWholeScore:    true,
		ReleaseTailFrames: 1,
		OnEvent:           func(k EventKind) { events = append(events, k) },
	})
	seq.Process(make([]float32, 2*10))
	if len(events) != 1 || events[0] != EventPlaybackEnded {
		t.Fatalf("expected a single playback-ended event, got %v", events)
	}
}
