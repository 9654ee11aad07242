// Package narration plays text aloud through a host speech capability, one
// utterance at a time. A Queue is either idle or speaking fragment i of the
// active playback; every new request preempts the previous one.
package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

var ErrClosed = errors.New("narration queue closed")

const (
	DefaultRate  = 0.8
	DefaultPitch = 1.0
	DefaultPause = 300 * time.Millisecond
)

type Utterance struct {
	Text  string
	Rate  float64
	Pitch float64
}

// Synthesizer speaks one utterance and returns when it has been spoken or ctx
// is cancelled. Cancelling ctx must stop the audio immediately.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance) error
}

// Gate decides whether narration is currently audible.
type Gate interface {
	NarrationEnabled() bool
}

type Phase int

const (
	Idle Phase = iota
	Speaking
)

func (p Phase) String() string {
	if p == Speaking {
		return "speaking"
	}
	return "idle"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = Idle
	case "speaking":
		*p = Speaking
	default:
		return fmt.Errorf("unknown narration phase %q", b)
	}
	return nil
}

type State struct {
	Phase    Phase `json:"phase"`
	Index    int   `json:"index"`
	Total    int   `json:"total"`
	Sequence bool  `json:"sequence"`
}

// Reading reports whether a multi-fragment sequence is playing.
func (s State) Reading() bool {
	return s.Phase == Speaking && s.Sequence
}

type Options struct {
	Rate   float64
	Pitch  float64
	Pause  time.Duration
	Logger *slog.Logger
}

type Queue struct {
	synth  Synthesizer
	gate   Gate
	rate   float64
	pitch  float64
	pause  time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New returns a Queue. A nil synth means the host has no speech capability;
// every operation is then a silent no-op.
func New(synth Synthesizer, gate Gate, opts Options) *Queue {
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.Pitch <= 0 {
		opts.Pitch = DefaultPitch
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Queue{
		synth:  synth,
		gate:   gate,
		rate:   opts.Rate,
		pitch:  opts.Pitch,
		pause:  opts.Pause,
		logger: opts.Logger,
	}
}

// Available reports whether the host can speak at all.
func (q *Queue) Available() bool {
	return q.synth != nil
}

func (q *Queue) audible() bool {
	return q.synth != nil && (q.gate == nil || q.gate.NarrationEnabled())
}

// SpeakOne preempts any playback and speaks text. It does not wait for the
// utterance to finish.
func (q *Queue) SpeakOne(text string) {
	if !q.audible() || strings.TrimSpace(text) == "" {
		return
	}
	q.start([]string{text}, false)
}

// SpeakSequence preempts any playback and speaks fragments strictly in order,
// pausing between them.
func (q *Queue) SpeakSequence(fragments []string) {
	if !q.audible() || len(fragments) == 0 {
		return
	}
	q.start(slices.Clone(fragments), true)
}

// Cancel stops the current utterance and returns the queue to Idle. Calling it
// while idle does nothing.
func (q *Queue) Cancel() {
	q.mu.Lock()
	q.stopLocked()
	q.mu.Unlock()
}

func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Wait blocks until the current playback, if any, has ended.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels playback, waits for it to stop and rejects later requests.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	q.stopLocked()
	done := q.done
	q.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// stopLocked cancels the active playback and bumps the generation so that its
// goroutine can no longer touch the state.
func (q *Queue) stopLocked() {
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.gen++
	q.state = State{}
}

func (q *Queue) start(fragments []string, sequence bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.stopLocked()
	gen := q.gen
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	q.cancel = cancel
	q.done = done
	q.state = State{Phase: Speaking, Index: 0, Total: len(fragments), Sequence: sequence}

	go q.play(ctx, gen, fragments, done)
}

func (q *Queue) play(ctx context.Context, gen uint64, fragments []string, done chan struct{}) {
	defer close(done)

	for i, text := range fragments {
		err := q.synth.Speak(ctx, Utterance{Text: text, Rate: q.rate, Pitch: q.pitch})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			q.logger.Warn("narration fragment failed", "index", i, "error", err)
		}

		last := i == len(fragments)-1
		if last {
			break
		}
		if !q.advance(gen, i+1) {
			return
		}
		if q.pause > 0 {
			timer := time.NewTimer(q.pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}

	q.finish(gen)
}

func (q *Queue) advance(gen uint64, index int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gen != gen {
		return false
	}
	q.state.Index = index
	return true
}

func (q *Queue) finish(gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gen != gen {
		return
	}
	q.cancel()
	q.cancel = nil
	q.state = State{}
}
