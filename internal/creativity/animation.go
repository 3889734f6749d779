package creativity

import (
	"context"
	"time"
)

// DefaultFrameRate matches the canvas sketch
const DefaultFrameRate = 30

// AnimationState is the loop-owned iteration counter and play flag
type AnimationState struct {
	Iteration int  `json:"iteration"`
	Playing   bool `json:"playing"`
}

// Advance moves to the next iteration when playing and reports whether it did
func (s *AnimationState) Advance() bool {
	if !s.Playing {
		return false
	}
	s.Iteration++
	return true
}

// Reset rewinds to iteration zero and pauses
func (s *AnimationState) Reset() {
	s.Iteration = 0
	s.Playing = false
}

// CommandKind identifies a control sent to a running animation
type CommandKind int

const (
	CommandPlay CommandKind = iota
	CommandPause
	CommandReset
	CommandParams
)

// Command is a control message; Params is read only for CommandParams
type Command struct {
	Kind   CommandKind
	Params ScoreParameters
}

// Frame is one rendered step of the animation
type Frame struct {
	Iteration int        `json:"iteration"`
	Playing   bool       `json:"playing"`
	Grid      GridResult `json:"grid"`
}

// Animator drives the frame loop over a fixed grid
type Animator struct {
	engine   *Engine
	cols     int
	rows     int
	interval time.Duration
}

// NewAnimator creates an animator ticking frameRate times per second
func NewAnimator(engine *Engine, cols, rows, frameRate int) *Animator {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Animator{
		engine:   engine,
		cols:     cols,
		rows:     rows,
		interval: time.Second / time.Duration(frameRate),
	}
}

// Render scores the grid for the current state without advancing it
func (a *Animator) Render(state *AnimationState, params ScoreParameters) Frame {
	return Frame{
		Iteration: state.Iteration,
		Playing:   state.Playing,
		Grid:      a.engine.ScoreGrid(a.cols, a.rows, float64(state.Iteration), params),
	}
}

// Run draws the current iteration, then on every tick advances and draws
// while playing. Frames run one at a time on the calling goroutine;
// parameter updates redraw the current iteration. Run returns when ctx is
// done (between frames) or when emit fails
func (a *Animator) Run(ctx context.Context, state *AnimationState, params ScoreParameters, commands <-chan Command, emit func(Frame) error) error {
	if err := emit(a.Render(state, params)); err != nil {
		return err
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			redraw := false
			switch cmd.Kind {
			case CommandPlay:
				state.Playing = true
			case CommandPause:
				state.Playing = false
			case CommandReset:
				state.Reset()
				redraw = true
			case CommandParams:
				params = cmd.Params
				redraw = true
			}
			if redraw {
				if err := emit(a.Render(state, params)); err != nil {
					return err
				}
			}
		case <-ticker.C:
			if !state.Advance() {
				continue
			}
			if err := emit(a.Render(state, params)); err != nil {
				return err
			}
		}
	}
}
