// Package selector walks the generation tiers for a plan request. The walk
// is an explicit state machine over the local model, the hosted model, and
// the deterministic fallback. The fallback cannot fail, so Generate always
// returns a plan.
package selector

import (
	"context"
	"log"
	"time"

	"github.com/fentz26/planora/internal/assemble"
	"github.com/fentz26/planora/internal/goal"
	"github.com/fentz26/planora/internal/llm"
	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/planner"
)

type state int

const (
	stateStart state = iota
	stateTryLocal
	stateTryHosted
	stateTryFallback
	stateDone
)

const (
	tierOllama   = "ollama"
	tierHosted   = "hosted"
	tierFallback = "fallback"
)

const defaultTierTimeout = 60 * time.Second

// AttemptSink receives the attempt trail after a generation run, keyed by
// the plan it produced. Implementations must not block generation.
type AttemptSink interface {
	RecordAttempts(planID, goalText string, attempts []models.Attempt)
}

// Selector holds the tier providers and their per-attempt time budgets.
// Zero-value fields degrade gracefully: a nil provider is skipped as
// unconfigured and a zero timeout falls back to a default.
type Selector struct {
	Local  llm.Provider
	Hosted llm.Provider

	LocalTimeout  time.Duration
	HostedTimeout time.Duration

	// Sink, when set, is handed the attempt trail of every run.
	Sink AttemptSink
}

// New wires a selector from tier configuration, constructing the real
// Ollama and hosted clients. Tests assemble the struct directly with stub
// providers instead.
func New(cfg *llm.Config) *Selector {
	return &Selector{
		Local:         llm.NewOllamaClient(cfg.Ollama),
		Hosted:        llm.NewHostedClient(cfg.Hosted),
		LocalTimeout:  cfg.Ollama.Timeout(),
		HostedTimeout: cfg.Hosted.Timeout(),
	}
}

// Generate produces a plan for the goal, trying each tier in order and
// settling on the fallback if no model tier yields a usable plan. The
// returned plan carries the full attempt trail in its metadata.
func (s *Selector) Generate(ctx context.Context, goalText string) *models.Plan {
	started := time.Now()
	profile := goal.Parse(goalText)

	var (
		plan     *models.Plan
		attempts []models.Attempt
	)

	st := stateStart
	for st != stateDone {
		switch st {
		case stateStart:
			st = stateTryLocal

		case stateTryLocal:
			if s.Local == nil {
				attempts = append(attempts, models.Attempt{Tier: tierOllama, Reason: "not configured"})
				st = stateTryHosted
				break
			}
			p, att := s.tryModel(ctx, s.Local, s.LocalTimeout, models.MethodOllama, goalText, profile, started)
			attempts = append(attempts, att)
			if p != nil {
				plan = p
				st = stateDone
			} else {
				st = stateTryHosted
			}

		case stateTryHosted:
			if s.Hosted == nil {
				attempts = append(attempts, models.Attempt{Tier: tierHosted, Reason: "not configured"})
				st = stateTryFallback
				break
			}
			p, att := s.tryModel(ctx, s.Hosted, s.HostedTimeout, models.MethodHosted, goalText, profile, started)
			attempts = append(attempts, att)
			if p != nil {
				plan = p
				st = stateDone
			} else {
				st = stateTryFallback
			}

		case stateTryFallback:
			began := time.Now()
			tasks := planner.Build(goalText, profile, started)
			milestones := planner.Milestones(tasks, profile.DurationDays)
			plan = assemble.FromTasks(goalText, profile, models.MethodFallback, tasks, milestones, started)
			attempts = append(attempts, models.Attempt{
				Tier:      tierFallback,
				OK:        true,
				ElapsedMS: time.Since(began).Milliseconds(),
			})
			st = stateDone
		}
	}

	plan.Metadata = models.Metadata{
		GeneratedInMS: time.Since(started).Milliseconds(),
		Attempts:      attempts,
	}

	if s.Sink != nil {
		s.Sink.RecordAttempts(plan.ID, goalText, attempts)
	}
	return plan
}

// tryModel runs one model tier under its time budget and normalizes the
// output. Any failure, from transport errors to unusable JSON, is folded
// into the attempt record so the state machine can move on.
func (s *Selector) tryModel(ctx context.Context, p llm.Provider, timeout time.Duration, method models.Method, goalText string, profile goal.Profile, started time.Time) (*models.Plan, models.Attempt) {
	att := models.Attempt{Tier: p.Name()}
	began := time.Now()

	if timeout <= 0 {
		timeout = defaultTierTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := p.Generate(tctx, llm.BuildPrompt(goalText, profile, started))
	if err != nil {
		att.Reason = err.Error()
		att.ElapsedMS = time.Since(began).Milliseconds()
		log.Printf("selector: %s generation failed: %v", p.Name(), err)
		return nil, att
	}

	plan, err := assemble.FromModelText(goalText, profile, method, raw, started)
	if err == nil {
		err = assemble.Validate(plan)
	}
	if err != nil {
		att.Reason = err.Error()
		att.ElapsedMS = time.Since(began).Milliseconds()
		log.Printf("selector: %s output unusable: %v", p.Name(), err)
		return nil, att
	}

	att.OK = true
	att.ElapsedMS = time.Since(began).Milliseconds()
	return plan, att
}
