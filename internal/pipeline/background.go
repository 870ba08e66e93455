package pipeline

import (
	"context"
	"log"

	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/state"
)

// Saver persists a full record. The background pipeline only ever writes
// wholesale; it never reads back from storage.
type Saver interface {
	Save(ctx context.Context, rec *state.Record) error
}

// Background recomputes the summary and score off the caller's request path.
// It operates on the snapshot taken at decide-completion and persists the
// merged result. Any failure is logged and the snapshot is discarded, leaving
// the previously persisted record in place.
type Background struct {
	summarize stage.Stage
	score     stage.Stage
	gen       stage.Generator
	store     Saver
	logger    *log.Logger
}

func NewBackground(summarize, score stage.Stage, gen stage.Generator, store Saver) *Background {
	return &Background{
		summarize: summarize,
		score:     score,
		gen:       gen,
		store:     store,
		logger:    log.New(log.Writer(), "[BACKGROUND] ", log.LstdFlags),
	}
}

// Run executes Summarize then Score on the snapshot and saves the result.
func (b *Background) Run(ctx context.Context, snap *state.Record) {
	for _, st := range []stage.Stage{b.summarize, b.score} {
		u, err := st.Run(ctx, snap, b.gen)
		if err != nil {
			b.logger.Printf("session %s turn %d: %s stage failed, discarding: %v",
				snap.SessionID, snap.Turn, st.Name(), err)
			return
		}
		snap.Trace(st.Name(), u.Raw)
		state.Apply(snap, u)
	}
	if err := b.store.Save(ctx, snap); err != nil {
		b.logger.Printf("session %s turn %d: save failed, discarding: %v",
			snap.SessionID, snap.Turn, err)
	}
}
