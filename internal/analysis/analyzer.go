package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/state"
	"github.com/projectflow-ai/projectflow/models"
)

// Analyzer reads a group's session record and produces intervention hints for
// the teacher: where the students are stuck and what to try next.
type Analyzer struct {
	gen stage.Generator
}

func New(gen stage.Generator) *Analyzer {
	return &Analyzer{gen: gen}
}

// Analyze asks the model for a structured read of the group's state. A
// malformed generation degrades to a summary built from the record itself;
// only a generator failure surfaces.
func (a *Analyzer) Analyze(ctx context.Context, group *models.Group, rec *state.Record) (*models.TeacherAnalysis, error) {
	out, err := a.gen.Generate(ctx, analysisPrompt(group, rec))
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	result := &models.TeacherAnalysis{
		GroupID:     group.GroupID,
		GeneratedAt: time.Now().UTC(),
	}
	list := stage.ExtractFirstJSONList(out)
	if len(list) == 0 {
		result.AnalysisSummary = fallbackSummary(rec)
		return result, nil
	}
	res := list[0]
	result.Difficulties = strList(res, "difficulties")
	result.Suggestions = strList(res, "suggestions")
	if s, ok := res["analysis_summary"].(string); ok && strings.TrimSpace(s) != "" {
		result.AnalysisSummary = s
	} else {
		result.AnalysisSummary = fallbackSummary(rec)
	}
	return result, nil
}

func analysisPrompt(group *models.Group, rec *state.Record) string {
	var b strings.Builder
	b.WriteString("You advise the teacher overseeing project-based learning groups. ")
	b.WriteString("Read one group's state and point out where they struggle and how the teacher could intervene.\n\n")
	fmt.Fprintf(&b, "Group: %s\n", group.GroupName)
	fmt.Fprintf(&b, "stage_number: %d\n", rec.StageNumber)
	fmt.Fprintf(&b, "project_content: %s\n", rec.ProjectContent)
	fmt.Fprintf(&b, "action_plan: %s\n", rec.ActionPlan)
	fmt.Fprintf(&b, "historical_log: %s\n", rec.HistoricalLog)
	fmt.Fprintf(&b, "current_progress: %s\n", rec.CurrentProgress)
	b.WriteString("\nRecent dialogue:\n")
	b.WriteString(rec.DialogTail(10))
	b.WriteString("\n\n" + `Keys: "difficulties" (list of strings), "suggestions" (list of strings), "analysis_summary" (string).` + "\n")
	b.WriteString("Return your answer as a JSON list containing exactly one object. Do not add any text outside the JSON list.")
	return b.String()
}

func fallbackSummary(rec *state.Record) string {
	return fmt.Sprintf("Stage %d. Project: %s. Plan: %s.",
		rec.StageNumber, rec.ProjectContent, rec.ActionPlan)
}

func strList(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
