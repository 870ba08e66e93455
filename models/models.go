package models

import (
	"errors"
	"time"
)

var (
	// ErrGroupNotFound is returned when a group id does not resolve.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupExists is returned when creating a group whose id is taken.
	ErrGroupExists = errors.New("group already exists")
)

// Group represents a student team sharing one mentoring conversation.
type Group struct {
	GroupID   string    `json:"group_id"`
	GroupName string    `json:"group_name"`
	Students  []string  `json:"students,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// SessionID is the conversation currently in use for this group.
	SessionID string `json:"session_id,omitempty"`
}

// GroupProgress is the teacher-facing view of a group's project state.
type GroupProgress struct {
	GroupID         string    `json:"group_id"`
	GroupName       string    `json:"group_name"`
	StageNumber     int       `json:"stage_number"`
	ProjectContent  string    `json:"project_content"`
	ActionPlan      string    `json:"action_plan"`
	CurrentProgress string    `json:"current_progress"`
	MessageCount    int       `json:"message_count"`
	LastUpdated     time.Time `json:"last_updated"`
}

// TeacherAnalysis is the result of analyzing a group's record for intervention hints.
type TeacherAnalysis struct {
	GroupID         string    `json:"group_id"`
	Difficulties    []string  `json:"difficulties"`
	Suggestions     []string  `json:"suggestions"`
	AnalysisSummary string    `json:"analysis_summary"`
	GeneratedAt     time.Time `json:"generated_at"`
}
