package state

import "strings"

// Update is the sparse result of one stage run. Zero values mean "no change";
// only explicitly produced, non-empty values overwrite record fields, so a
// malformed generation can never erase established project state.
type Update struct {
	ProjectContent   string
	ActionPlan       string
	HistoricalLog    string
	CurrentProgress  string
	GuidanceStrategy string
	Score            string

	// StageNumber is honored whenever set, including explicit decreases
	// ("restart the topic" flows lower it on purpose).
	StageNumber *int

	// Reply is an assistant message to append (Respond stage only).
	Reply string

	// Raw carries the stage's parsed output for the debug trace; it takes no
	// part in merging.
	Raw map[string]any
}

// textReducers is the per-field reducer table: each entry pairs an update
// source with its record destination, and the non-empty-overwrites rule is
// applied uniformly.
var textReducers = []struct {
	name string
	src  func(Update) string
	dst  func(*Record) *string
}{
	{"project_content", func(u Update) string { return u.ProjectContent }, func(r *Record) *string { return &r.ProjectContent }},
	{"action_plan", func(u Update) string { return u.ActionPlan }, func(r *Record) *string { return &r.ActionPlan }},
	{"historical_log", func(u Update) string { return u.HistoricalLog }, func(r *Record) *string { return &r.HistoricalLog }},
	{"current_progress", func(u Update) string { return u.CurrentProgress }, func(r *Record) *string { return &r.CurrentProgress }},
	{"guidance_strategy", func(u Update) string { return u.GuidanceStrategy }, func(r *Record) *string { return &r.GuidanceStrategy }},
	{"score", func(u Update) string { return u.Score }, func(r *Record) *string { return &r.Score }},
}

// Apply merges a partial update into the record. Fields absent or empty in
// the update are left untouched.
func Apply(r *Record, u Update) {
	for _, f := range textReducers {
		if v := f.src(u); strings.TrimSpace(v) != "" {
			*f.dst(r) = v
		}
	}
	if u.StageNumber != nil && *u.StageNumber >= 1 {
		r.StageNumber = *u.StageNumber
	}
	if u.Reply != "" {
		r.AppendAssistant(u.Reply)
	}
}
