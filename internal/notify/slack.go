package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackNotifier posts results to a Slack incoming webhook
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// SlackMessage is a webhook payload: a fallback text plus one coloured
// attachment carrying Block Kit blocks
type SlackMessage struct {
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

// SlackAttachment colours the left bar of the blocks it holds
type SlackAttachment struct {
	Color  string       `json:"color"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a header, section or context block
type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Fields   []SlackText `json:"fields,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

// SlackText is a plain_text or mrkdwn text object
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SlackColor returns the Slack color for a notification type
func SlackColor(t NotificationType) string {
	switch t {
	case NotifySuccess:
		return "good"
	case NotifyWarning:
		return "warning"
	case NotifyError:
		return "danger"
	default:
		return "#439FE0"
	}
}

// BuildSlackMessage lays a notification out as a header, one field per
// fact, the message and a footer linking the PR or comment
func BuildSlackMessage(n Notification) SlackMessage {
	blocks := []SlackBlock{
		{Type: "header", Text: &SlackText{Type: "plain_text", Text: n.Title}},
	}

	if len(n.Facts) > 0 {
		fields := make([]SlackText, 0, len(n.Facts))
		for _, f := range n.Facts {
			fields = append(fields, SlackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", f.Label, f.Value)})
		}
		// Slack renders at most 10 fields per section
		for len(fields) > 0 {
			chunk := fields[:min(10, len(fields))]
			fields = fields[len(chunk):]
			blocks = append(blocks, SlackBlock{Type: "section", Fields: chunk})
		}
	}

	if n.Message != "" {
		text := n.Message
		if n.Type == NotifyError {
			text = "```" + text + "```"
		}
		blocks = append(blocks, SlackBlock{Type: "section", Text: &SlackText{Type: "mrkdwn", Text: text}})
	}

	footer := "Wizard Workbench"
	if n.Link != "" {
		footer += fmt.Sprintf(" | <%s|View on GitHub>", n.Link)
	}
	blocks = append(blocks, SlackBlock{Type: "context", Elements: []SlackText{{Type: "mrkdwn", Text: footer}}})

	return SlackMessage{
		Text:        n.Title,
		Attachments: []SlackAttachment{{Color: SlackColor(n.Type), Blocks: blocks}},
	}
}

// Send posts a notification to the webhook
func (s *SlackNotifier) Send(n Notification) error {
	if s.webhookURL == "" {
		return nil // Disabled
	}

	payload, err := json.Marshal(BuildSlackMessage(n))
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}

	return nil
}
