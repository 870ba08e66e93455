package stage

import (
	"context"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Score re-evaluates the progress table against the latest dialogue. It only
// ever writes current_progress, and only when the generation parses, so an
// established table survives a bad generation untouched.
type Score struct{}

func NewScore() *Score { return &Score{} }

func (s *Score) Name() string { return "score" }

func (s *Score) Run(ctx context.Context, rec *state.Record, gen Generator) (state.Update, error) {
	out, err := gen.Generate(ctx, scorePrompt(rec))
	if err != nil {
		return state.Update{}, err
	}
	res := firstResult(out)
	if res == nil {
		return state.Update{}, nil
	}
	return state.Update{
		CurrentProgress: strField(res, "current_progress"),
		Raw:             res,
	}, nil
}
