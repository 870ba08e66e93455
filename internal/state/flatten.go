package state

// Historical on-disk records can carry a per-stage map (keyed by stage name)
// next to top-level fields, left over from runs that persisted stage outputs
// without merging them first. Flatten lifts those nested values to the top
// level with fixed precedence Score > Summarize > existing top-level value,
// then parks the nested maps in the debug trace so canonical fields and
// observability data stay separate.

var (
	summarizeKeys = []string{"summarize", "summary_agent"}
	scoreKeys     = []string{"score", "score_agent"}

	// flattenable names the record fields a nested stage map may supply.
	// Identity, history and trace keys are never lifted.
	flattenable = []string{
		"project_content",
		"action_plan",
		"historical_log",
		"current_progress",
		"guidance_strategy",
		"score",
		"stage_number",
	}
)

// Flatten normalizes a raw decoded record in place and returns it.
// It is idempotent: once the nested stage maps are moved aside, a second
// pass finds nothing to lift.
func Flatten(raw map[string]any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}

	summarize := takeStageMaps(raw, summarizeKeys)
	score := takeStageMaps(raw, scoreKeys)

	// Summarize first, Score second: the later lift overwrites, which gives
	// Score authority over Summarize over the existing top-level value.
	for _, m := range summarize {
		lift(raw, m)
	}
	for _, m := range score {
		lift(raw, m)
	}

	if len(summarize) > 0 || len(score) > 0 {
		trace, _ := raw["debug_trace"].(map[string]any)
		if trace == nil {
			trace = map[string]any{}
		}
		for _, m := range summarize {
			trace["summarize"] = m
		}
		for _, m := range score {
			trace["score"] = m
		}
		raw["debug_trace"] = trace
	}
	return raw
}

// takeStageMaps removes and returns any nested stage maps stored under the
// given keys. A scalar under the same key (e.g. the "score" text field) is
// left alone.
func takeStageMaps(raw map[string]any, keys []string) []map[string]any {
	var out []map[string]any
	for _, k := range keys {
		if m, ok := raw[k].(map[string]any); ok {
			out = append(out, m)
			delete(raw, k)
		}
	}
	return out
}

func lift(dst map[string]any, src map[string]any) {
	for _, field := range flattenable {
		v, ok := src[field]
		if !ok || isEmptyValue(v) {
			continue
		}
		// A nested map under "score" is a stage payload, not the score text.
		if _, isMap := v.(map[string]any); isMap {
			continue
		}
		dst[field] = v
	}
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case int:
		return x == 0
	default:
		return false
	}
}
