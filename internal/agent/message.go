// Package agent submits prompts to a coding agent and streams its messages
// back. The only implementation drives the claude CLI in stream-json mode.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Message types emitted on the stream
const (
	TypeSystem    = "system"
	TypeAssistant = "assistant"
	TypeUser      = "user"
	TypeResult    = "result"

	SubtypeSuccess = "success"
)

// ErrNoResult is returned when the stream ends without a result message
var ErrNoResult = errors.New("no result received from agent")

// ResultError is a result message whose subtype is not success
type ResultError struct {
	Subtype string
	Detail  string
}

func (e *ResultError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("evaluation failed: %s: %s", e.Subtype, e.Detail)
	}
	return fmt.Sprintf("evaluation failed: %s", e.Subtype)
}

// Usage holds token counts reported by the agent
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// ContentBlock is one block of an assistant message
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"` // tool name for tool_use blocks
}

// Body is the payload of an assistant message
type Body struct {
	Content []ContentBlock `json:"content"`
}

// Message is one line of the stream-json output
type Message struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// assistant
	Message *Body `json:"message,omitempty"`

	// result
	Result       string  `json:"result,omitempty"`
	IsError      bool    `json:"is_error,omitempty"`
	NumTurns     int     `json:"num_turns,omitempty"`
	DurationMS   int64   `json:"duration_ms,omitempty"`
	TotalCostUSD float64 `json:"total_cost_usd,omitempty"`
	CostUSD      float64 `json:"cost_usd,omitempty"` // older CLI versions
	Usage        Usage   `json:"usage,omitempty"`
}

// Text returns the concatenated text blocks of an assistant message
func (m *Message) Text() string {
	if m.Message == nil {
		return ""
	}
	var parts []string
	for _, c := range m.Message.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Cost returns the reported cost in USD
func (m *Message) Cost() float64 {
	if m.TotalCostUSD != 0 {
		return m.TotalCostUSD
	}
	return m.CostUSD
}

// Success reports whether a result message completed successfully
func (m *Message) Success() bool {
	return m.Type == TypeResult && m.Subtype == SubtypeSuccess && !m.IsError
}

func parseMessage(line []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
