package review

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractJSON_FencedBlockWithProse(t *testing.T) {
	text := "I looked at the diff {briefly}.\n\n```json\n{\"overallScore\": 4, \"note\": \"uses } inside\"}\n```\n\nLet me know if you need more."

	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["overallScore"] != float64(4) || got["note"] != "uses } inside" {
		t.Errorf("got %v", got)
	}
}

func TestExtractJSON_BareObject(t *testing.T) {
	text := `Here is the result: {"a": {"b": "{not a brace}"}, "c": [1, 2]} and that is all.`

	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"a": {"b": "{not a brace}"}, "c": [1, 2]}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_SkipsInvalidSpans(t *testing.T) {
	text := "Scores in {curly braces} are wrong. Real answer: {\"ok\": true}"

	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"ok": true}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	for _, text := range []string{"", "The PR looks fine to me.", "```json\nnot json\n```", "{unclosed"} {
		if _, err := ExtractJSON(text); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrNoJSON", text, err)
		}
	}
}

func TestExtractJSON_FullPayloadInFence(t *testing.T) {
	raw, err := ExtractJSON("Evaluation:\n```json\n" + validPayload + "\n```")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(raw); err != nil {
		t.Errorf("Decode: %v", err)
	}
}
