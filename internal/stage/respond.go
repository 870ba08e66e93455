package stage

import (
	"context"
	"strings"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Respond turns the decided strategy into the actual assistant message. The
// generation is used verbatim as the reply; the content token, if present, is
// expanded to the stored project content so a stage wrap-up can show the
// students their own summary.
type Respond struct{}

func NewRespond() *Respond { return &Respond{} }

func (r *Respond) Name() string { return "respond" }

func (r *Respond) Run(ctx context.Context, rec *state.Record, gen Generator) (state.Update, error) {
	out, err := gen.Generate(ctx, respondPrompt(rec))
	if err != nil {
		return state.Update{}, err
	}
	reply := strings.TrimSpace(out)
	if reply == "" {
		return state.Update{}, nil
	}
	reply = strings.ReplaceAll(reply, ContentToken, rec.ProjectContent)
	return state.Update{
		Reply: reply,
		Raw:   map[string]any{"reply": reply},
	}, nil
}
