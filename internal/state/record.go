package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn fragment in a session's conversation history.
// Insertion order is meaningful: stage prompts read recency windows.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Record is the canonical per-session project state. One live record exists
// per (group_id, session_id) key at any persisted instant; writers replace it
// wholesale.
type Record struct {
	SessionID string `json:"session_id"`
	GroupID   string `json:"group_id,omitempty"`

	// Turn increases once per user turn and is persisted, so an out-of-order
	// background write (an accepted race, see store) can be spotted in logs.
	Turn int `json:"turn"`

	StageNumber int       `json:"stage_number"`
	Messages    []Message `json:"messages"`

	ProjectContent   string `json:"project_content"`
	ActionPlan       string `json:"action_plan"`
	HistoricalLog    string `json:"historical_log"`
	CurrentProgress  string `json:"current_progress"`
	GuidanceStrategy string `json:"guidance_strategy"`
	Score            string `json:"score,omitempty"`

	// DebugTrace keeps each stage's raw parsed output for observability only;
	// pipeline logic never reads it.
	DebugTrace map[string]map[string]any `json:"debug_trace,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord returns a fully populated default record for an unseen session.
func NewRecord(groupID, sessionID string) *Record {
	return &Record{
		SessionID:   sessionID,
		GroupID:     groupID,
		StageNumber: 1,
		Messages:    []Message{},
	}
}

// Clone returns a deep copy used as the background pipeline's dispatch
// snapshot. Later appends to the live record never reach the copy.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Messages = make([]Message, len(r.Messages))
	copy(cp.Messages, r.Messages)
	if r.DebugTrace != nil {
		cp.DebugTrace = make(map[string]map[string]any, len(r.DebugTrace))
		for name, raw := range r.DebugTrace {
			inner := make(map[string]any, len(raw))
			for k, v := range raw {
				inner[k] = v
			}
			cp.DebugTrace[name] = inner
		}
	}
	return &cp
}

// AppendUser appends a user message. Empty input is ignored.
func (r *Record) AppendUser(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	r.Messages = append(r.Messages, Message{Role: RoleUser, Text: text})
}

// AppendAssistant appends an assistant message unless it repeats the last
// message verbatim. Callers replay the prior reply on every turn, so the
// guard keeps the history free of duplicates.
func (r *Record) AppendAssistant(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if n := len(r.Messages); n > 0 && r.Messages[n-1].Text == text {
		return
	}
	r.Messages = append(r.Messages, Message{Role: RoleAssistant, Text: text})
}

// Tail returns up to n trailing messages.
func (r *Record) Tail(n int) []Message {
	if n <= 0 || len(r.Messages) == 0 {
		return nil
	}
	if len(r.Messages) > n {
		return r.Messages[len(r.Messages)-n:]
	}
	return r.Messages
}

// DialogTail joins the text of the last n messages, one per line, for prompt
// recency windows.
func (r *Record) DialogTail(n int) string {
	tail := r.Tail(n)
	parts := make([]string, 0, len(tail))
	for _, m := range tail {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

// LastText returns the text of the most recent message, or "".
func (r *Record) LastText() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Text
}

// Trace records a stage's raw parsed output in the debug side channel.
func (r *Record) Trace(stage string, raw map[string]any) {
	if len(raw) == 0 {
		return
	}
	if r.DebugTrace == nil {
		r.DebugTrace = map[string]map[string]any{}
	}
	r.DebugTrace[stage] = raw
}

// Decode builds a Record from a raw decoded map (after Flatten) and fills
// defaults for missing fields.
func Decode(raw map[string]any) (*Record, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.StageNumber < 1 {
		rec.StageNumber = 1
	}
	if rec.Messages == nil {
		rec.Messages = []Message{}
	}
	return &rec, nil
}
