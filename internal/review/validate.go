package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// payloadDumpLimit bounds how much of a rejected payload is kept for diagnosis
const payloadDumpLimit = 1000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterAlias("score", "min=1,max=5")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError reports every schema problem found in one payload
type ValidationError struct {
	Problems []string
	Payload  string // truncated
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("evaluation does not match schema v%d: %s", SchemaVersion, strings.Join(e.Problems, "; "))
}

// Decode parses raw JSON into an Evaluation and validates it. Unknown
// fields, missing fields and out-of-range values are all rejected, inside
// arrays as well as at the top level.
func Decode(raw []byte) (*Evaluation, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &ValidationError{Problems: []string{"not a JSON object: " + err.Error()}, Payload: truncate(raw)}
	}
	problems := missingFields(raw, reflect.TypeOf(Evaluation{}), "")

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var ev Evaluation
	if err := dec.Decode(&ev); err != nil {
		problems = append(problems, err.Error())
	} else {
		problems = append(problems, ev.Validate()...)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems, Payload: truncate(raw)}
	}
	return &ev, nil
}

// Validate checks value ranges and enumerations and returns every problem found
func (ev *Evaluation) Validate() []string {
	err := validate.Struct(ev)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return problems
}

func describe(fe validator.FieldError) string {
	// namespace is "Evaluation.codeQuality.score"
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "score":
		return fmt.Sprintf("%s: score %v out of range 1-5", path, fe.Value())
	case "required":
		return path + ": required"
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of %s", path, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s: %v must not be below %s", path, fe.Value(), fe.Param())
	case "eq":
		return fmt.Sprintf("%s: %v is not supported (want %s)", path, fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s: fails %s", path, fe.Tag())
}

// missingFields walks raw alongside t and reports every field whose json
// tag lacks omitempty but which is absent or null. Type mismatches are left
// to the decoder.
func missingFields(raw json.RawMessage, t reflect.Type, path string) []string {
	var problems []string
	switch t.Kind() {
	case reflect.Struct:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			fieldPath := name
			if path != "" {
				fieldPath = path + "." + name
			}
			v, ok := obj[name]
			if !ok || string(v) == "null" {
				if !strings.Contains(opts, "omitempty") {
					problems = append(problems, fieldPath+": required")
				}
				continue
			}
			problems = append(problems, missingFields(v, f.Type, fieldPath)...)
		}
	case reflect.Slice:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for i, item := range items {
			problems = append(problems, missingFields(item, t.Elem(), fmt.Sprintf("%s[%d]", path, i))...)
		}
	}
	return problems
}

func truncate(raw []byte) string {
	s := string(raw)
	if len(s) > payloadDumpLimit {
		return s[:payloadDumpLimit] + "..."
	}
	return s
}
