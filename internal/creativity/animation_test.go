package creativity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAnimationState(t *testing.T) {
	var s AnimationState
	assert.False(t, s.Advance())
	assert.Equal(t, 0, s.Iteration)

	s.Playing = true
	assert.True(t, s.Advance())
	assert.True(t, s.Advance())
	assert.Equal(t, 2, s.Iteration)

	s.Reset()
	assert.Equal(t, AnimationState{}, s)
}

func TestAnimatorRender(t *testing.T) {
	engine := NewEngine(NewSequenceSource(0))
	anim := NewAnimator(engine, 4, 3, 0)
	assert.Equal(t, time.Second/DefaultFrameRate, anim.interval)

	state := &AnimationState{Iteration: 12}
	frame := anim.Render(state, DefaultScoreParameters())
	assert.Equal(t, 12, frame.Iteration)
	assert.Equal(t, 12.0, frame.Grid.Iteration)
	assert.Len(t, frame.Grid.Cells, 12)
	assert.Equal(t, 12, state.Iteration, "render must not advance")
}

type frameRecorder struct {
	frames chan Frame
}

func newFrameRecorder() *frameRecorder {
	return &frameRecorder{frames: make(chan Frame, 256)}
}

func (r *frameRecorder) emit(f Frame) error {
	select {
	case r.frames <- f:
	default:
	}
	return nil
}

func (r *frameRecorder) next(t *testing.T) Frame {
	t.Helper()
	select {
	case f := <-r.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestAnimatorRunPlaysAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	anim := NewAnimator(NewEngine(NewSequenceSource(0)), 4, 3, 500)
	state := &AnimationState{}
	commands := make(chan Command, 4)
	rec := newFrameRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- anim.Run(ctx, state, DefaultScoreParameters(), commands, rec.emit)
	}()

	first := rec.next(t)
	assert.Equal(t, 0, first.Iteration)
	assert.False(t, first.Playing)

	commands <- Command{Kind: CommandPlay}
	for {
		f := rec.next(t)
		if f.Iteration >= 3 {
			assert.True(t, f.Playing)
			break
		}
	}

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, state.Iteration, 3)
}

func TestAnimatorRunResetAndParams(t *testing.T) {
	defer goleak.VerifyNone(t)

	anim := NewAnimator(NewEngine(NewSequenceSource(0)), 5, 5, 1)
	state := &AnimationState{Iteration: 40}
	commands := make(chan Command)
	rec := newFrameRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- anim.Run(ctx, state, DefaultScoreParameters(), commands, rec.emit)
	}()

	initial := rec.next(t)
	assert.Equal(t, 40, initial.Iteration)

	commands <- Command{Kind: CommandReset}
	reset := rec.next(t)
	assert.Equal(t, 0, reset.Iteration)
	assert.False(t, reset.Playing)

	quiet := ScoreParameters{Theta: 0.6}
	commands <- Command{Kind: CommandParams, Params: quiet}
	redraw := rec.next(t)
	assert.Equal(t, 0, redraw.Iteration)

	want := NewEngine(NewSequenceSource(0)).ScoreGrid(5, 5, 0, quiet)
	if diff := cmp.Diff(want, redraw.Grid); diff != "" {
		t.Errorf("params redraw mismatch (-want +got):\n%s", diff)
	}

	close(commands)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAnimatorRunStopsOnEmitError(t *testing.T) {
	defer goleak.VerifyNone(t)

	anim := NewAnimator(NewEngine(NewSequenceSource(0)), 2, 2, 1000)
	state := &AnimationState{Playing: true}
	boom := errors.New("client went away")

	calls := 0
	err := anim.Run(context.Background(), state, DefaultScoreParameters(), nil, func(Frame) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, state.Iteration)
}
