// internal/solver/solver.go
//
// Deduction engine for the code-breaking game.
// A session runs in two phases against a board.Board:
//   1. Census: count each symbol's occurrences (see runCensus).
//   2. Resolve: repeatedly plan an isolation guess, submit it, read the
//      feedback and prune the candidate model, until every slot is resolved.
// The resolved code is then submitted as the final guess.
//
// The solver is synchronous: each attempt is one submit followed by one read,
// and nothing is planned until the previous feedback has been folded in.

package solver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/KhashayarKhm/chameleon/internal/board"
	"github.com/KhashayarKhm/chameleon/internal/game"
)

// State is the driver's position in its state machine.
type State string

const (
	StateCensus    State = "census"
	StateResolving State = "resolving"
	StateSolved    State = "solved"
	StateFailed    State = "failed"
)

const (
	phaseCensus  = "census"
	phaseResolve = "resolve"
	phaseFinal   = "final"
)

// Round records one attempt.
type Round struct {
	Phase    string        `json:"phase"`
	Guess    game.Code     `json:"guess"`
	Feedback game.Feedback `json:"feedback"`
}

// Outcome is the terminal result of a session.
type Outcome struct {
	Solved   bool      `json:"solved"`
	Attempts int       `json:"attempts"`
	Code     game.Code `json:"code,omitempty"` // the winning guess when Solved
	Census   Census    `json:"census,omitempty"`
	Rounds   []Round   `json:"rounds"`
}

func (o Outcome) String() string {
	if o.Solved {
		return fmt.Sprintf("solved %s in %d attempts", o.Code, o.Attempts)
	}
	return fmt.Sprintf("failed after %d attempts", o.Attempts)
}

// Solver owns the census and candidate model for one session.
// A Solver must not be reused; create one per board.
type Solver struct {
	b   board.Board
	cfg game.Config
	log zerolog.Logger

	state    State
	census   Census
	model    *Model
	attempts int
	solved   bool
	winning  game.Code
	rounds   []Round
}

// New prepares a solver for b. cfg carries the board's dimensions.
func New(b board.Board, cfg game.Config, logger zerolog.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{
		b:      b,
		cfg:    cfg,
		log:    logger,
		state:  StateCensus,
		census: make(Census, cfg.Colors),
		model:  NewModel(cfg),
	}, nil
}

// State reports where the driver currently is.
func (s *Solver) State() State { return s.state }

// Solve plays the session to completion.
// Budget exhaustion is reported as an unsolved Outcome, not an error.
// Errors are board contract violations, cancellation, or planning invariant
// violations; the session is abandoned in each case.
func (s *Solver) Solve(ctx context.Context) (Outcome, error) {
	if s.state != StateCensus || s.attempts > 0 {
		return Outcome{}, fmt.Errorf("solver: session already played")
	}

	done, err := s.runCensus(ctx)
	if err != nil {
		return s.abort(err)
	}
	if !done {
		s.state = StateResolving
		s.log.Debug().Ints("census", s.census).Str("model", s.model.String()).Msg("census complete")
		if err := s.resolve(ctx); err != nil {
			return s.abort(err)
		}
	}
	return s.finish(), nil
}

// resolve runs the position-resolution loop until solved or out of budget.
func (s *Solver) resolve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.model.Solved() {
			return s.submitFinal(ctx)
		}
		if s.attempts >= s.cfg.MaxAttempts {
			return nil
		}

		plan, err := nextPlan(s.model, s.census)
		if err != nil {
			return err
		}
		if plan.Deduced {
			s.log.Debug().Int("slot", plan.Slot).Int("symbol", int(plan.Target)).Msg("deduced last slot")
			s.model.Assign(plan.Slot, plan.Target)
			s.model.Settle(s.census)
			continue
		}

		pointwise := s.census.Count(plan.Target)-s.model.placed(plan.Target) != 1
		fb, err := s.attempt(ctx, phaseResolve, plan.Guess)
		if err != nil {
			return err
		}
		if fb.Hits == s.cfg.Length {
			s.solved = true
			return nil
		}
		iso, padAt, err := plan.isolate(fb)
		if err != nil {
			return err
		}
		s.model.Prune(plan.Target, &iso, []int{plan.Slot}, pointwise)
		if padAt {
			s.model.Assign(plan.Slot, plan.Pad)
		}
		s.model.Settle(s.census)
		if !s.model.Consistent() {
			return invariantf("candidate model emptied after %s on %s", fb, plan.Guess)
		}
	}
}

// submitFinal plays the fully resolved code.
func (s *Solver) submitFinal(ctx context.Context) error {
	if s.attempts >= s.cfg.MaxAttempts {
		return nil
	}
	code := s.model.Code()
	fb, err := s.attempt(ctx, phaseFinal, code)
	if err != nil {
		return err
	}
	if fb.Hits == s.cfg.Length {
		s.solved = true
		return nil
	}
	if s.attempts >= s.cfg.MaxAttempts {
		return nil
	}
	return invariantf("resolved code %s scored %s", code, fb)
}

// attempt is one atomic submit-then-read exchange with the board.
func (s *Solver) attempt(ctx context.Context, phase string, guess game.Code) (game.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return game.Feedback{}, err
	}
	concluded, err := s.b.IsConcluded(ctx)
	if err != nil {
		return game.Feedback{}, fmt.Errorf("check board: %w", err)
	}
	if concluded {
		return game.Feedback{}, board.ErrConcluded
	}
	if err := s.b.SubmitGuess(ctx, guess); err != nil {
		return game.Feedback{}, fmt.Errorf("submit %s: %w", guess, err)
	}
	fb, err := s.b.ReadFeedback(ctx)
	if err != nil {
		return game.Feedback{}, fmt.Errorf("read feedback: %w", err)
	}

	s.attempts++
	s.rounds = append(s.rounds, Round{Phase: phase, Guess: guess, Feedback: fb})
	if fb.Hits == s.cfg.Length {
		s.winning = guess
	}
	guessesTotal.WithLabelValues(phase).Inc()
	s.log.Debug().
		Str("phase", phase).
		Int("attempt", s.attempts).
		Str("guess", guess.String()).
		Int("hits", fb.Hits).
		Int("partials", fb.Partials).
		Msg("attempt")
	return fb, nil
}

// finish moves to a terminal state and builds the outcome.
func (s *Solver) finish() Outcome {
	out := Outcome{
		Solved:   s.solved,
		Attempts: s.attempts,
		Census:   append(Census(nil), s.census...),
		Rounds:   s.rounds,
	}
	if s.solved {
		s.state = StateSolved
		out.Code = s.winning
		solvesTotal.WithLabelValues("solved").Inc()
		solveAttempts.Observe(float64(s.attempts))
		s.log.Info().Int("attempts", s.attempts).Str("code", s.winning.String()).Msg("solved")
	} else {
		s.state = StateFailed
		solvesTotal.WithLabelValues("failed").Inc()
		s.log.Info().Int("attempts", s.attempts).Msg("attempt budget exhausted")
	}
	return out
}

// abort ends the session on an error.
func (s *Solver) abort(err error) (Outcome, error) {
	s.state = StateFailed
	solvesTotal.WithLabelValues("error").Inc()
	s.log.Error().Err(err).Int("attempts", s.attempts).Msg("solve aborted")
	return Outcome{Attempts: s.attempts, Census: append(Census(nil), s.census...), Rounds: s.rounds}, err
}
