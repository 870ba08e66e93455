package pipeline

import (
	"context"
	"fmt"

	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/state"
)

// Interactive runs the synchronous half of a turn: decide the strategy, then
// word the reply. A stage failure aborts the turn and surfaces to the caller.
type Interactive struct {
	decide  stage.Stage
	respond stage.Stage
	gen     stage.Generator

	// OnDecided receives a snapshot of the record right after the decide
	// update is merged and before respond runs. The background recompute
	// works from the decision context, not the final wording.
	OnDecided func(snapshot *state.Record)
}

func NewInteractive(decide, respond stage.Stage, gen stage.Generator) *Interactive {
	return &Interactive{decide: decide, respond: respond, gen: gen}
}

// Run mutates rec through both stages and returns the reply text.
func (p *Interactive) Run(ctx context.Context, rec *state.Record) (string, error) {
	u, err := p.decide.Run(ctx, rec, p.gen)
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", p.decide.Name(), err)
	}
	rec.Trace(p.decide.Name(), u.Raw)
	state.Apply(rec, u)

	if p.OnDecided != nil {
		p.OnDecided(rec.Clone())
	}

	u, err = p.respond.Run(ctx, rec, p.gen)
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", p.respond.Name(), err)
	}
	rec.Trace(p.respond.Name(), u.Raw)
	state.Apply(rec, u)

	return u.Reply, nil
}
