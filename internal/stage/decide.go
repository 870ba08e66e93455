package stage

import (
	"context"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Decide produces the strategy the respond stage follows. Its completion is
// the turn boundary: the pipeline snapshots the record for background work
// right after this stage's update is merged.
type Decide struct {
	settings *Settings
}

func NewDecide(settings *Settings) *Decide {
	return &Decide{settings: settings}
}

func (d *Decide) Name() string { return "decide" }

func (d *Decide) Run(ctx context.Context, rec *state.Record, gen Generator) (state.Update, error) {
	out, err := gen.Generate(ctx, decidePrompt(d.settings.CatalogText(), rec))
	if err != nil {
		return state.Update{}, err
	}
	res := firstResult(out)
	if res == nil {
		return state.Update{}, nil
	}
	return state.Update{
		GuidanceStrategy: strField(res, "Guidance_and_Strategy", "guidance_and_strategy", "guidance_strategy"),
		Raw:              res,
	}, nil
}
