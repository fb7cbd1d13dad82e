package state

import (
	contractx "github.com/supportops/triage-pipeline/agent/contract"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the single value threaded through a pipeline run. It is
// never mutated in place: every stage works on its own copy and returns a new
// value with Messages extended by exactly one audit entry. A Conversation has
// no lifecycle beyond one run.
type Conversation struct {
	Messages   []Message            `json:"messages"`
	CustomerID *int64               `json:"customer_id,omitempty"`
	Intent     contractx.Intent     `json:"intent,omitempty"`
	Urgency    contractx.Urgency    `json:"urgency,omitempty"`
	Route      contractx.Route      `json:"route,omitempty"`
	Snapshot   *contractx.Customer  `json:"customer_snapshot,omitempty"`
	Tickets    []contractx.Ticket   `json:"tickets,omitempty"`
	Roster     []contractx.Customer `json:"customer_roster,omitempty"`
	Response   string               `json:"response,omitempty"`
}

// New builds the initial conversation for a run from the user's message and
// an optionally known customer id.
func New(text string, customerID *int64) Conversation {
	return Conversation{
		Messages:   []Message{{Role: RoleUser, Content: text}},
		CustomerID: customerID,
	}
}

// WithAudit returns a copy of the conversation whose transcript is extended
// by one agent-authored audit entry. The receiver's Messages slice is never
// shared with the result, so earlier stages keep their view of the transcript.
func (c Conversation) WithAudit(note string) Conversation {
	messages := make([]Message, 0, len(c.Messages)+1)
	messages = append(messages, c.Messages...)
	messages = append(messages, Message{Role: RoleAgent, Content: note})

	out := c
	out.Messages = messages
	return out
}

// LastUserMessage returns the most recent user-authored entry, or "" when the
// transcript holds none.
func (c Conversation) LastUserMessage() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}

// AuditCount reports how many agent-authored entries the transcript holds.
func (c Conversation) AuditCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleAgent {
			n++
		}
	}
	return n
}
