package stage

import (
	"fmt"
	"strings"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// ContentToken is the literal marker the respond prompt lets the model emit
// when it wants the stored project content inlined into the reply.
const ContentToken = "[CURRENT_PROJECT_CONTENT]"

const jsonListContract = `Return your answer as a JSON list containing exactly one object, for example:
[{"key": "value"}]
Do not add any text outside the JSON list.`

func summarizePrompt(catalog string, rec *state.Record) string {
	var b strings.Builder
	b.WriteString("You are the record keeper for a project-based learning mentor. ")
	b.WriteString("Update the project notes from the latest dialogue.\n\n")
	b.WriteString("Stage catalog:\n")
	b.WriteString(catalog)
	b.WriteString("\nCurrent state:\n")
	fmt.Fprintf(&b, "stage_number: %d\n", rec.StageNumber)
	fmt.Fprintf(&b, "project_content: %s\n", rec.ProjectContent)
	fmt.Fprintf(&b, "action_plan: %s\n", rec.ActionPlan)
	fmt.Fprintf(&b, "historical_log: %s\n", rec.HistoricalLog)
	fmt.Fprintf(&b, "guidance_strategy: %s\n", rec.GuidanceStrategy)
	b.WriteString("\nRecent dialogue:\n")
	b.WriteString(rec.DialogTail(3))
	b.WriteString("\n\nUpdate project_content, ACTION_PLAN and HISTORICAL_LOG to reflect the dialogue. ")
	b.WriteString("Set stage_number to the stage the students are actually in; lower it if they restarted. ")
	b.WriteString("Leave a field out if nothing changed.\n\n")
	b.WriteString(`Keys: "project_content", "ACTION_PLAN", "HISTORICAL_LOG", "stage_number".` + "\n")
	b.WriteString(jsonListContract)
	return b.String()
}

func scorePrompt(rec *state.Record) string {
	var b strings.Builder
	b.WriteString("You are the assessor for a project-based learning mentor. ")
	b.WriteString("Re-score the progress table using the latest dialogue as evidence.\n\n")
	fmt.Fprintf(&b, "project_content: %s\n", rec.ProjectContent)
	fmt.Fprintf(&b, "action_plan: %s\n", rec.ActionPlan)
	b.WriteString("\nCurrent progress table:\n")
	b.WriteString(rec.CurrentProgress)
	b.WriteString("\n\nRecent dialogue:\n")
	b.WriteString(rec.DialogTail(3))
	b.WriteString("\n\nReturn the full updated table as current_progress. ")
	b.WriteString("Scores may rise or stay, never fall.\n\n")
	b.WriteString(`Keys: "current_progress".` + "\n")
	b.WriteString(jsonListContract)
	return b.String()
}

func decidePrompt(catalog string, rec *state.Record) string {
	var b strings.Builder
	b.WriteString("You are the pedagogy director for a project-based learning mentor. ")
	b.WriteString("Decide how the mentor should steer the next reply.\n\n")
	b.WriteString("Stage catalog:\n")
	b.WriteString(catalog)
	b.WriteString("\nCurrent state:\n")
	fmt.Fprintf(&b, "stage_number: %d\n", rec.StageNumber)
	fmt.Fprintf(&b, "project_content: %s\n", rec.ProjectContent)
	fmt.Fprintf(&b, "action_plan: %s\n", rec.ActionPlan)
	fmt.Fprintf(&b, "historical_log: %s\n", rec.HistoricalLog)
	fmt.Fprintf(&b, "current_progress: %s\n", rec.CurrentProgress)
	b.WriteString("\nRecent dialogue:\n")
	b.WriteString(rec.DialogTail(3))
	b.WriteString("\n\nState the strategy for the next reply: what to probe, what to withhold, ")
	b.WriteString("and whether to close out the current stage. Guide, never hand over solutions.\n\n")
	b.WriteString(`Keys: "Guidance_and_Strategy".` + "\n")
	b.WriteString(jsonListContract)
	return b.String()
}

func respondPrompt(rec *state.Record) string {
	var b strings.Builder
	b.WriteString("You are a friendly mentor for a student project team. ")
	b.WriteString("Write the next reply in the conversation.\n\n")
	fmt.Fprintf(&b, "Strategy from the pedagogy director: %s\n", rec.GuidanceStrategy)
	fmt.Fprintf(&b, "project_content: %s\n", rec.ProjectContent)
	fmt.Fprintf(&b, "action_plan: %s\n", rec.ActionPlan)
	b.WriteString("\nDialogue so far:\n")
	b.WriteString(rec.DialogTail(10))
	b.WriteString("\n\nFollow the strategy. Ask questions and guide; do not solve the project for the students. ")
	fmt.Fprintf(&b, "If you need to show the students their full project summary, write the token %s and it will be expanded.\n", ContentToken)
	b.WriteString("Reply with the message text only.")
	return b.String()
}
