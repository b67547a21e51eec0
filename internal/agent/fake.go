package agent

import "context"

// Scripted is a Querier that replays fixed messages
type Scripted struct {
	Messages []*Message
	Err      error

	Requests []Request
}

// Query implements Querier
func (s *Scripted) Query(ctx context.Context, req Request, fn Handler) error {
	s.Requests = append(s.Requests, req)
	for _, m := range s.Messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return s.Err
}

// AssistantText builds an assistant message with one text block
func AssistantText(text string) *Message {
	return &Message{Type: TypeAssistant, Message: &Body{Content: []ContentBlock{{Type: "text", Text: text}}}}
}

// SuccessResult builds a successful result message
func SuccessResult(text string, usage Usage, cost float64) *Message {
	return &Message{Type: TypeResult, Subtype: SubtypeSuccess, Result: text, Usage: usage, TotalCostUSD: cost}
}
