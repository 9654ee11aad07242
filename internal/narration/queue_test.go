package narration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSynth records utterances. Unless instant, each utterance blocks until
// the test calls finish with its text, or until it is cancelled.
type fakeSynth struct {
	instant bool

	mu        sync.Mutex
	started   []string
	completed []string
	gates     map[string]chan struct{}
	startedCh chan string
	fail      map[string]bool
}

func newFakeSynth(instant bool) *fakeSynth {
	return &fakeSynth{
		instant:   instant,
		gates:     make(map[string]chan struct{}),
		startedCh: make(chan string, 64),
		fail:      make(map[string]bool),
	}
}

func (f *fakeSynth) gate(text string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[text]
	if !ok {
		g = make(chan struct{})
		f.gates[text] = g
	}
	return g
}

func (f *fakeSynth) finish(text string) { close(f.gate(text)) }

func (f *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	f.mu.Lock()
	f.started = append(f.started, u.Text)
	failing := f.fail[u.Text]
	f.mu.Unlock()
	f.startedCh <- u.Text

	if !f.instant {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.gate(u.Text):
		}
	}
	if failing {
		return errors.New("synthesis failed")
	}

	f.mu.Lock()
	f.completed = append(f.completed, u.Text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSynth) snapshot() (started, completed []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...), append([]string(nil), f.completed...)
}

func (f *fakeSynth) waitStarted(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-f.startedCh:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("utterance %q never started", want)
	}
}

type enabledGate bool

func (g enabledGate) NarrationEnabled() bool { return bool(g) }

func newQueue(t *testing.T, synth Synthesizer, gate Gate, pause time.Duration) *Queue {
	t.Helper()
	q := New(synth, gate, Options{
		Pause:  pause,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func waitIdle(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))
}

func TestSpeakSequence_PlaysInOrder(t *testing.T) {
	synth := newFakeSynth(true)
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b", "c"})
	waitIdle(t, q)

	_, completed := synth.snapshot()
	if diff := cmp.Diff([]string{"a", "b", "c"}, completed); diff != "" {
		t.Errorf("spoken order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, State{}, q.State())
}

func TestSpeakSequence_ExposesIndex(t *testing.T) {
	synth := newFakeSynth(false)
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b"})
	synth.waitStarted(t, "a")
	assert.Equal(t, State{Phase: Speaking, Index: 0, Total: 2, Sequence: true}, q.State())
	assert.True(t, q.State().Reading())

	synth.finish("a")
	synth.waitStarted(t, "b")
	assert.Equal(t, 1, q.State().Index)

	synth.finish("b")
	waitIdle(t, q)
	assert.Equal(t, Idle, q.State().Phase)
}

func TestCancel_BeforeFirstFragmentCompletes(t *testing.T) {
	synth := newFakeSynth(false)
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b", "c"})
	synth.waitStarted(t, "a")
	q.Cancel()

	assert.Equal(t, Idle, q.State().Phase)
	waitIdle(t, q)

	started, completed := synth.snapshot()
	assert.Equal(t, []string{"a"}, started)
	assert.Empty(t, completed)
}

func TestCancel_ImmediatelyAfterStart(t *testing.T) {
	synth := newFakeSynth(false)
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b", "c"})
	q.Cancel()
	waitIdle(t, q)

	started, completed := synth.snapshot()
	assert.Subset(t, []string{"a"}, started)
	assert.Empty(t, completed)
	assert.Equal(t, State{}, q.State())
}

func TestCancel_IdempotentWhenIdle(t *testing.T) {
	q := newQueue(t, newFakeSynth(true), enabledGate(true), 0)
	q.Cancel()
	q.Cancel()
	assert.Equal(t, State{}, q.State())
}

func TestSpeakOne_PreemptsSequence(t *testing.T) {
	synth := newFakeSynth(false)
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b", "c"})
	synth.waitStarted(t, "a")

	q.SpeakOne("x")
	synth.waitStarted(t, "x")
	assert.Equal(t, State{Phase: Speaking, Index: 0, Total: 1, Sequence: false}, q.State())

	synth.finish("x")
	waitIdle(t, q)

	started, completed := synth.snapshot()
	assert.Equal(t, []string{"a", "x"}, started)
	assert.Equal(t, []string{"x"}, completed)
	assert.Equal(t, Idle, q.State().Phase)
}

func TestSpeakSequence_RestartReplacesActiveSequence(t *testing.T) {
	synth := newFakeSynth(false)
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b"})
	synth.waitStarted(t, "a")
	q.SpeakSequence([]string{"c"})
	synth.waitStarted(t, "c")
	synth.finish("c")
	waitIdle(t, q)

	started, completed := synth.snapshot()
	assert.Equal(t, []string{"a", "c"}, started)
	assert.Equal(t, []string{"c"}, completed)
}

func TestNarrationDisabled_NoOp(t *testing.T) {
	synth := newFakeSynth(true)
	q := newQueue(t, synth, enabledGate(false), 0)

	q.SpeakOne("hello")
	q.SpeakSequence([]string{"a", "b"})
	waitIdle(t, q)

	started, _ := synth.snapshot()
	assert.Empty(t, started)
	assert.Equal(t, State{}, q.State())
}

func TestNoSpeechCapability_SilentNoOp(t *testing.T) {
	q := newQueue(t, nil, enabledGate(true), 0)

	assert.False(t, q.Available())
	q.SpeakOne("hello")
	q.SpeakSequence([]string{"a"})
	q.Cancel()
	waitIdle(t, q)
	assert.Equal(t, State{}, q.State())
}

func TestSpeakSequence_FailedFragmentDoesNotStopSequence(t *testing.T) {
	synth := newFakeSynth(true)
	synth.fail["b"] = true
	q := newQueue(t, synth, enabledGate(true), 0)

	q.SpeakSequence([]string{"a", "b", "c"})
	waitIdle(t, q)

	_, completed := synth.snapshot()
	assert.Equal(t, []string{"a", "c"}, completed)
}

func TestSpeakSequence_PausesBetweenFragments(t *testing.T) {
	synth := newFakeSynth(true)
	q := newQueue(t, synth, enabledGate(true), 40*time.Millisecond)

	begin := time.Now()
	q.SpeakSequence([]string{"a", "b", "c"})
	waitIdle(t, q)

	assert.GreaterOrEqual(t, time.Since(begin), 80*time.Millisecond)
}

func TestClose_RejectsFurtherPlayback(t *testing.T) {
	synth := newFakeSynth(false)
	q := New(synth, enabledGate(true), Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	q.SpeakSequence([]string{"a", "b"})
	synth.waitStarted(t, "a")
	require.NoError(t, q.Close())

	q.SpeakOne("late")
	started, _ := synth.snapshot()
	assert.Equal(t, []string{"a"}, started)
	assert.ErrorIs(t, q.Close(), ErrClosed)
}

func TestCommandSynthesizer_Args(t *testing.T) {
	u := Utterance{Text: "Hello", Rate: 0.8, Pitch: 1}

	espeak := &CommandSynthesizer{kind: "espeak-ng"}
	assert.Equal(t, []string{"-s", "140", "-p", "50", "--", "Hello"}, espeak.args(u))

	say := &CommandSynthesizer{kind: "say"}
	assert.Equal(t, []string{"-r", "140", "Hello"}, say.args(u))

	other := &CommandSynthesizer{kind: "festival-say"}
	assert.Equal(t, []string{"Hello"}, other.args(u))
}

func TestHostSynthesizer_AbsentCommand(t *testing.T) {
	assert.Nil(t, HostSynthesizer("", nil))
	assert.Nil(t, HostSynthesizer("ablelink-no-such-tts-binary", nil))
}
