package run

import "encoding/json"

// Role discriminates the message union. The set is closed; every consumer
// switches over it exhaustively.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// RequestedAction is a model-issued request to invoke a named tool, before
// translation into a ToolInvocation. ID is the provider's correlation id and
// may be empty.
type RequestedAction struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Message is one entry in a run's conversation history. Role selects which
// fields are meaningful: Actions only appears on assistant messages, CallID
// and ToolName only on tool messages.
type Message struct {
	Role     Role              `json:"role"`
	Content  string            `json:"content,omitempty"`
	Actions  []RequestedAction `json:"actions,omitempty"`
	CallID   string            `json:"call_id,omitempty"`
	ToolName string            `json:"tool_name,omitempty"`
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string, actions []RequestedAction) Message {
	return Message{Role: RoleAssistant, Content: content, Actions: actions}
}

// NewToolMessage answers the invocation identified by callID.
func NewToolMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, CallID: callID, ToolName: toolName, Content: content}
}

// CloneMessages deep-copies a history slice so step snapshots cannot alias
// later appends or payload reuse.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = cloneMessage(m)
	}
	return out
}

func cloneMessage(m Message) Message {
	c := m
	if m.Actions != nil {
		c.Actions = make([]RequestedAction, len(m.Actions))
		for i, a := range m.Actions {
			c.Actions[i] = a
			if a.Args != nil {
				c.Actions[i].Args = append(json.RawMessage(nil), a.Args...)
			}
		}
	}
	return c
}
