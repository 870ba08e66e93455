package stage

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Setting describes one curriculum stage: what it is called, what the
// students work on, and the criteria their progress is scored against.
type Setting struct {
	Sequence    int      `yaml:"-"`
	Name        string   `yaml:"name"`
	MainIssue   string   `yaml:"main_issue"`
	Description string   `yaml:"description"`
	ScoreList   []string `yaml:"score_list"`
}

// Settings is the ordered stage catalog loaded from YAML. Keys in the file
// follow the stage_<n> convention.
type Settings struct {
	stages []Setting
}

// LoadSettings reads a stage catalog file. Unknown keys are skipped so the
// file can carry commentary blocks alongside the stages.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes stage catalog YAML.
func ParseSettings(data []byte) (*Settings, error) {
	var doc map[string]Setting
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stage settings: %w", err)
	}
	s := &Settings{}
	for key, setting := range doc {
		var seq int
		if _, err := fmt.Sscanf(key, "stage_%d", &seq); err != nil || seq < 1 {
			continue
		}
		setting.Sequence = seq
		s.stages = append(s.stages, setting)
	}
	sort.Slice(s.stages, func(i, j int) bool { return s.stages[i].Sequence < s.stages[j].Sequence })
	if len(s.stages) == 0 {
		return nil, fmt.Errorf("parse stage settings: no stage_<n> entries")
	}
	return s, nil
}

// Get returns the setting for a stage number. Numbers outside the catalog get
// a synthetic placeholder so prompts and scaffolds still render.
func (s *Settings) Get(n int) Setting {
	for _, st := range s.stages {
		if st.Sequence == n {
			return st
		}
	}
	return Setting{Sequence: n, Name: fmt.Sprintf("Stage %d", n)}
}

// Count reports how many stages the catalog defines.
func (s *Settings) Count() int { return len(s.stages) }

// CatalogText renders the full stage list as a prompt preamble.
func (s *Settings) CatalogText() string {
	var b strings.Builder
	for _, st := range s.stages {
		fmt.Fprintf(&b, "Stage %d: %s\n", st.Sequence, st.Name)
		if st.MainIssue != "" {
			fmt.Fprintf(&b, "  Main issue: %s\n", st.MainIssue)
		}
		if st.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", st.Description)
		}
	}
	return b.String()
}

// ProgressScaffold builds the empty scoring table for a stage. It seeds
// current_progress whenever the stage changes or no table exists yet.
func (s *Settings) ProgressScaffold(n int) string {
	st := s.Get(n)
	var b strings.Builder
	fmt.Fprintf(&b, "## Stage %d: %s\n\n", st.Sequence, st.Name)
	b.WriteString("| Criteria | Score (0-5) | Evidence |\n")
	b.WriteString("| --- | --- | --- |\n")
	if len(st.ScoreList) == 0 {
		b.WriteString("| Overall progress | 0 | |\n")
		return b.String()
	}
	for _, c := range st.ScoreList {
		fmt.Fprintf(&b, "| %s | 0 | |\n", c)
	}
	return b.String()
}
