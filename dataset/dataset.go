// Package dataset turns played games into labelled training examples: one
// row per player-issued reveal, holding the features of the target cell
// before it was opened and whether it was safe. Cells opened by cascades can
// be recorded too.
package dataset

import (
	"sync"

	"github.com/sirupsen/logrus"

	"sweeper-lite/mines"
)

const (
	LabelMine = 0
	LabelSafe = 1
)

var log = logrus.WithField("component", "dataset")

type Example struct {
	Features mines.FeatureVector `json:"features"`
	Label    int                 `json:"label"`
}

// Sink stores finished games' examples.
type Sink interface {
	WriteExamples(examples []Example) error
}

// Recorder buffers the examples of the game in progress. Attach it to a
// game, then Flush once the game ends.
type Recorder struct {
	// Cascade also records every cell a cascade opens, labelled safe. Set it
	// before Attach.
	Cascade bool

	mu      sync.Mutex
	pending []Example
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach hooks r into every subsequent reveal of g, across resets.
func (r *Recorder) Attach(g *mines.Game) {
	g.OnReveal(r.observe)
	if r.Cascade {
		g.OnCascade(r.observe)
	}
}

func (r *Recorder) observe(b *mines.Board, s *mines.RevealState, target mines.Coord) {
	ex := Example{Features: mines.Extract(b, s, target), Label: LabelSafe}
	if b.IsMine(target) {
		ex.Label = LabelMine
	}
	r.mu.Lock()
	r.pending = append(r.pending, ex)
	r.mu.Unlock()
}

func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Take returns and clears the buffered examples.
func (r *Recorder) Take() []Example {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

// Discard drops the buffered examples, e.g. when a game is abandoned.
func (r *Recorder) Discard() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

// Flush writes the buffered examples to sink and clears the buffer. On a
// write error the examples are kept so the caller may retry.
func (r *Recorder) Flush(sink Sink) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return 0, nil
	}
	if err := sink.WriteExamples(r.pending); err != nil {
		return 0, err
	}
	n := len(r.pending)
	r.pending = nil
	log.WithField("examples", n).Debug("flushed")
	return n, nil
}

// MemorySink collects examples in memory.
type MemorySink struct {
	mu       sync.Mutex
	examples []Example
}

func (m *MemorySink) WriteExamples(examples []Example) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.examples = append(m.examples, examples...)
	return nil
}

func (m *MemorySink) Examples() []Example {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Example(nil), m.examples...)
}
