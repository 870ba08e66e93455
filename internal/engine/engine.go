package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/projectflow-ai/projectflow/internal/pipeline"
	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/state"
	"github.com/projectflow-ai/projectflow/internal/store"
)

// messageTail is how much dialogue history a turn result carries back.
const messageTail = 12

// Engine owns one turn of the mentoring loop: resolve the session record,
// append the incoming messages, run the interactive pipeline, hand the
// decide-time snapshot to the background dispatcher and persist the result.
type Engine struct {
	store       store.Store
	interactive *pipeline.Interactive
	dispatcher  *pipeline.Dispatcher
	logger      *log.Logger
}

// TurnRequest is one caller turn. PriorAssistant carries the previous reply
// back from the caller; appending it is guarded against duplicates so callers
// that echo an already persisted reply do no harm.
type TurnRequest struct {
	SessionID      string `json:"session_id"`
	GroupID        string `json:"group_id,omitempty"`
	PriorAssistant string `json:"prior_assistant,omitempty"`
	UserText       string `json:"user_text"`
}

// TurnResult mirrors the record's structured fields plus the reply and a
// bounded tail of the dialogue.
type TurnResult struct {
	SessionID        string          `json:"session_id"`
	GroupID          string          `json:"group_id,omitempty"`
	Turn             int             `json:"turn"`
	StageNumber      int             `json:"stage_number"`
	ProjectContent   string          `json:"project_content"`
	ActionPlan       string          `json:"action_plan"`
	HistoricalLog    string          `json:"historical_log"`
	CurrentProgress  string          `json:"current_progress"`
	GuidanceStrategy string          `json:"guidance_strategy"`
	Score            string          `json:"score"`
	Reply            string          `json:"reply"`
	Messages         []state.Message `json:"messages"`
}

// Options sizes the background dispatcher. WrapStage, when set, decorates
// every stage, typically for telemetry.
type Options struct {
	Workers   int
	QueueSize int
	WrapStage func(stage.Stage) stage.Stage
}

func New(st store.Store, settings *stage.Settings, gen stage.Generator, opts Options) *Engine {
	wrap := opts.WrapStage
	if wrap == nil {
		wrap = func(s stage.Stage) stage.Stage { return s }
	}
	bg := pipeline.NewBackground(wrap(stage.NewSummarize(settings)), wrap(stage.NewScore()), gen, st)
	d := pipeline.NewDispatcher(bg, opts.Workers, opts.QueueSize)
	ia := pipeline.NewInteractive(wrap(stage.NewDecide(settings)), wrap(stage.NewRespond()), gen)
	ia.OnDecided = d.Dispatch
	return &Engine{
		store:       st,
		interactive: ia,
		dispatcher:  d,
		logger:      log.New(log.Writer(), "[ENGINE] ", log.LstdFlags),
	}
}

// Turn runs one interactive turn. A text-generation failure aborts the turn
// and surfaces; the caller may retry the same turn. A persistence failure
// after a successful turn is logged, not surfaced, since the reply is already
// committed from the caller's point of view.
func (e *Engine) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("turn: empty session id")
	}
	if strings.TrimSpace(req.UserText) == "" {
		return nil, fmt.Errorf("turn: empty user text")
	}

	rec, err := e.store.Load(ctx, req.GroupID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("turn: load session: %w", err)
	}
	rec.Turn++
	if strings.TrimSpace(req.PriorAssistant) != "" {
		rec.AppendAssistant(req.PriorAssistant)
	}
	rec.AppendUser(req.UserText)

	reply, err := e.interactive.Run(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("turn %d session %s: %w", rec.Turn, rec.SessionID, err)
	}

	if err := e.store.Save(ctx, rec); err != nil {
		e.logger.Printf("session %s turn %d: save failed: %v", rec.SessionID, rec.Turn, err)
	}

	return &TurnResult{
		SessionID:        rec.SessionID,
		GroupID:          rec.GroupID,
		Turn:             rec.Turn,
		StageNumber:      rec.StageNumber,
		ProjectContent:   rec.ProjectContent,
		ActionPlan:       rec.ActionPlan,
		HistoricalLog:    rec.HistoricalLog,
		CurrentProgress:  rec.CurrentProgress,
		GuidanceStrategy: rec.GuidanceStrategy,
		Score:            rec.Score,
		Reply:            reply,
		Messages:         rec.Tail(messageTail),
	}, nil
}

// Close drains the background dispatcher. Call on shutdown.
func (e *Engine) Close() {
	e.dispatcher.Close()
}
