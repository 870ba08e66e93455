package state

import (
	"reflect"
	"testing"
)

func TestFlattenScoreBeatsTopLevel(t *testing.T) {
	raw := map[string]any{
		"session_id":       "s1",
		"current_progress": "old table",
		"score": map[string]any{
			"current_progress": "corrected table",
		},
	}

	out := Flatten(raw)

	if out["current_progress"] != "corrected table" {
		t.Fatalf("score stage output must win over top-level, got %v", out["current_progress"])
	}
	if _, ok := out["score"].(map[string]any); ok {
		t.Fatalf("nested score map must be moved out of canonical fields")
	}
}

func TestFlattenScoreBeatsSummarize(t *testing.T) {
	raw := map[string]any{
		"summary_agent": map[string]any{
			"current_progress": "summarize view",
			"historical_log":   "entered stage 2",
		},
		"score_agent": map[string]any{
			"current_progress": "score view",
		},
	}

	out := Flatten(raw)

	if out["current_progress"] != "score view" {
		t.Fatalf("expected score precedence, got %v", out["current_progress"])
	}
	if out["historical_log"] != "entered stage 2" {
		t.Fatalf("summarize-only field must still be lifted, got %v", out["historical_log"])
	}
}

func TestFlattenEmptyNestedValueDoesNotErase(t *testing.T) {
	raw := map[string]any{
		"project_content": "community food waste",
		"summarize": map[string]any{
			"project_content": "",
			"stage_number":    float64(0),
		},
	}

	out := Flatten(raw)

	if out["project_content"] != "community food waste" {
		t.Fatalf("empty nested value erased top-level field: %v", out["project_content"])
	}
	if _, ok := out["stage_number"]; ok {
		t.Fatalf("zero stage number must not be lifted")
	}
}

func TestFlattenIdempotent(t *testing.T) {
	raw := map[string]any{
		"session_id":      "s1",
		"action_plan":     "plan",
		"summary_agent":   map[string]any{"historical_log": "log", "stage_number": float64(2)},
		"score_agent":     map[string]any{"current_progress": "table"},
		"project_content": "content",
	}

	once := Flatten(raw)
	onceCopy := deepCopy(once)
	twice := Flatten(once)

	if !reflect.DeepEqual(onceCopy, twice) {
		t.Fatalf("flatten not idempotent:\nonce:  %v\ntwice: %v", onceCopy, twice)
	}
}

func TestFlattenScalarScoreFieldLeftAlone(t *testing.T) {
	raw := map[string]any{"score": "4/5 overall"}

	out := Flatten(raw)

	if out["score"] != "4/5 overall" {
		t.Fatalf("scalar score text must survive flatten, got %v", out["score"])
	}
}

func TestFlattenMovesStagePayloadsToDebugTrace(t *testing.T) {
	raw := map[string]any{
		"summarize": map[string]any{"historical_log": "log"},
	}

	out := Flatten(raw)

	trace, ok := out["debug_trace"].(map[string]any)
	if !ok {
		t.Fatalf("expected debug_trace, got %v", out["debug_trace"])
	}
	if _, ok := trace["summarize"]; !ok {
		t.Fatalf("summarize payload missing from trace: %v", trace)
	}
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if inner, ok := v.(map[string]any); ok {
			out[k] = deepCopy(inner)
			continue
		}
		out[k] = v
	}
	return out
}
