package stage

import (
	"context"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Generator produces text from a prompt. Implementations may be slow and may
// fail; stages treat the returned text as untrusted.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Stage is one named computation step over a session record. Run builds a
// fixed-format prompt from the record, invokes the generator once, and parses
// the result into a sparse update. A malformed generation yields an empty
// update, never an error; only generator failures propagate.
type Stage interface {
	Name() string
	Run(ctx context.Context, rec *state.Record, gen Generator) (state.Update, error)
}
