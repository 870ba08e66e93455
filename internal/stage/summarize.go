package stage

import (
	"context"
	"strings"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Summarize maintains the narrative fields and the stage number. It is the
// only stage allowed to move the stage number, in either direction.
type Summarize struct {
	settings *Settings
}

func NewSummarize(settings *Settings) *Summarize {
	return &Summarize{settings: settings}
}

func (s *Summarize) Name() string { return "summarize" }

func (s *Summarize) Run(ctx context.Context, rec *state.Record, gen Generator) (state.Update, error) {
	out, err := gen.Generate(ctx, summarizePrompt(s.settings.CatalogText(), rec))
	if err != nil {
		return state.Update{}, err
	}
	res := firstResult(out)
	if res == nil {
		return state.Update{}, nil
	}

	u := state.Update{
		ProjectContent: strField(res, "project_content"),
		ActionPlan:     strField(res, "ACTION_PLAN", "action_plan"),
		HistoricalLog:  strField(res, "HISTORICAL_LOG", "historical_log"),
		Raw:            res,
	}

	// An absent or unparsable stage number keeps the prior one. The resolved
	// number is always set so the caller can detect transitions.
	next := rec.StageNumber
	if next < 1 {
		next = 1
	}
	if n, ok := intField(res, "stage_number"); ok && n >= 1 {
		next = n
	}
	u.StageNumber = &next

	// Entering a different stage, or having no table at all, resets the
	// progress table to the new stage's scoring criteria.
	if next != rec.StageNumber || strings.TrimSpace(rec.CurrentProgress) == "" {
		u.CurrentProgress = s.settings.ProgressScaffold(next)
	}
	return u, nil
}
