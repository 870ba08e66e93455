package stage

import "testing"

func TestExtractFirstJSONListDirect(t *testing.T) {
	list := ExtractFirstJSONList(`[{"current_progress": "table"}]`)
	if len(list) != 1 || list[0]["current_progress"] != "table" {
		t.Fatalf("unexpected parse result: %v", list)
	}
}

func TestExtractFirstJSONListWrappedInProse(t *testing.T) {
	text := "Sure, here is the update:\n```json\n[{\"stage_number\": 2}]\n```\nLet me know."
	list := ExtractFirstJSONList(text)
	if len(list) != 1 {
		t.Fatalf("expected one object, got %v", list)
	}
	if n, ok := intField(list[0], "stage_number"); !ok || n != 2 {
		t.Fatalf("expected stage_number 2, got %v", list[0])
	}
}

func TestExtractFirstJSONListMalformed(t *testing.T) {
	for _, text := range []string{
		"",
		"I could not produce JSON this time.",
		`{"not": "a list"}`,
		`[{"unclosed": `,
	} {
		if got := ExtractFirstJSONList(text); got != nil {
			t.Fatalf("expected nil for %q, got %v", text, got)
		}
	}
}

func TestIntFieldTolerance(t *testing.T) {
	m := map[string]any{
		"num":    float64(3),
		"digits": " 4 ",
		"word":   "three",
	}
	if n, ok := intField(m, "num"); !ok || n != 3 {
		t.Fatalf("float64 field: got %d, %v", n, ok)
	}
	if n, ok := intField(m, "digits"); !ok || n != 4 {
		t.Fatalf("digit string field: got %d, %v", n, ok)
	}
	if _, ok := intField(m, "word"); ok {
		t.Fatalf("non-numeric string must not parse")
	}
	if _, ok := intField(m, "absent"); ok {
		t.Fatalf("absent key must not parse")
	}
}

func TestStrFieldAliases(t *testing.T) {
	m := map[string]any{"ACTION_PLAN": "survey the cafeteria", "action_plan": ""}
	if got := strField(m, "action_plan", "ACTION_PLAN"); got != "survey the cafeteria" {
		t.Fatalf("expected alias fallback, got %q", got)
	}
}
