package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/state"
	"github.com/projectflow-ai/projectflow/models"
)

func fixed(text string) stage.Generator {
	return stage.GeneratorFunc(func(context.Context, string) (string, error) { return text, nil })
}

func TestAnalyzeParsesStructuredResult(t *testing.T) {
	group := &models.Group{GroupID: "g1", GroupName: "Team Compost"}
	rec := state.NewRecord("g1", "s1")
	rec.StageNumber = 2

	out := `[{"difficulties": ["scope too broad"], "suggestions": ["narrow to one cafeteria"], "analysis_summary": "ambitious but unfocused"}]`
	got, err := New(fixed(out)).Analyze(context.Background(), group, rec)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(got.Difficulties) != 1 || got.Difficulties[0] != "scope too broad" {
		t.Fatalf("unexpected difficulties: %v", got.Difficulties)
	}
	if got.AnalysisSummary != "ambitious but unfocused" {
		t.Fatalf("unexpected summary: %q", got.AnalysisSummary)
	}
	if got.GroupID != "g1" {
		t.Fatalf("group id not carried: %q", got.GroupID)
	}
}

func TestAnalyzeMalformedFallsBackToRecordSummary(t *testing.T) {
	group := &models.Group{GroupID: "g1", GroupName: "Team Compost"}
	rec := state.NewRecord("g1", "s1")
	rec.StageNumber = 3
	rec.ProjectContent = "cafeteria food waste"

	got, err := New(fixed("no json here")).Analyze(context.Background(), group, rec)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(got.AnalysisSummary, "Stage 3") ||
		!strings.Contains(got.AnalysisSummary, "cafeteria food waste") {
		t.Fatalf("fallback summary missing record fields: %q", got.AnalysisSummary)
	}
}

func TestAnalyzeGeneratorErrorSurfaces(t *testing.T) {
	boom := errors.New("provider down")
	gen := stage.GeneratorFunc(func(context.Context, string) (string, error) { return "", boom })

	_, err := New(gen).Analyze(context.Background(),
		&models.Group{GroupID: "g1"}, state.NewRecord("g1", "s1"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
}
