package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/praxis-ai/praxis/internal/types"
)

// DocumentType identifies the response shape of an interpreter document.
type DocumentType string

const (
	DocumentTypeMultiStep     DocumentType = "multi_step"
	DocumentTypeDirectCommand DocumentType = "direct_command"
	DocumentTypeFileOperation DocumentType = "file_operation"
	DocumentTypeError         DocumentType = "error"
	DocumentTypeInformational DocumentType = "informational"
)

// rawDocument mirrors the interpreter's JSON output before normalization.
// Step ids arrive as either integers or strings, so they are decoded with
// json.Number and normalized to strings.
type rawDocument struct {
	Type              DocumentType   `json:"type"`
	Plan              []rawStep      `json:"plan"`
	OverallConfidence float64        `json:"overall_confidence"`
	Language          string         `json:"language"`
	Alternatives      []string       `json:"alternatives"`
	Message           string         `json:"message"`
	Operation         string         `json:"operation"`
	Parameters        map[string]any `json:"parameters"`
	Confidence        float64        `json:"confidence"`
}

type rawStep struct {
	Step        flexID          `json:"step"`
	Description string          `json:"description"`
	Operation   string          `json:"operation"`
	Parameters  map[string]any  `json:"parameters"`
	Confidence  float64         `json:"confidence"`
	Condition   string          `json:"condition"`
	OnSuccess   []flexID        `json:"on_success"`
	OnFailure   []flexID        `json:"on_failure"`
	Explanation string          `json:"explanation"`
	Retry       *rawRetryPolicy `json:"retry"`
}

// flexID accepts step ids as either JSON integers or strings and
// normalizes them to their string form.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("step id must be a string or integer: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type rawRetryPolicy struct {
	MaxRetries      int     `json:"max_retries"`
	BackoffStrategy string  `json:"backoff_strategy"`
	InitialDelayMS  int64   `json:"initial_delay_ms"`
	MaxDelayMS      int64   `json:"max_delay_ms"`
	Multiplier      float64 `json:"multiplier"`
}

// Parse decodes a raw interpreter document into a Plan and validates it.
// It accepts the documented response shapes: multi_step plans, single
// direct_command / file_operation responses (normalized to one-step plans),
// error responses (rejected with the interpreter's message), and
// informational responses (normalized to an empty plan).
//
// Parse is pure: the same document always yields a structurally identical
// plan, apart from the generated plan id and creation timestamp.
func Parse(doc []byte) (*Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var raw rawDocument
	if err := dec.Decode(&raw); err != nil {
		return nil, types.WrapError(types.PLAN_PARSE_FAILED, "failed to decode plan document", err)
	}

	docType := raw.Type
	if docType == "" {
		// Untyped documents carrying a plan array are treated as multi_step.
		if raw.Plan != nil {
			docType = DocumentTypeMultiStep
		} else {
			return nil, types.NewError(types.PLAN_PARSE_FAILED, "document has no type and no plan array")
		}
	}

	switch docType {
	case DocumentTypeError:
		msg := raw.Message
		if msg == "" {
			msg = "interpreter returned an error response"
		}
		return nil, types.NewError(types.PLAN_PARSE_FAILED, msg)

	case DocumentTypeInformational:
		p := &Plan{
			ID:                types.NewID(),
			Steps:             nil,
			OverallConfidence: raw.OverallConfidence,
			Language:          raw.Language,
			Alternatives:      raw.Alternatives,
			CreatedAt:         time.Now().UTC(),
		}
		return p, nil

	case DocumentTypeDirectCommand, DocumentTypeFileOperation:
		if raw.Operation == "" {
			return nil, types.NewError(types.PLAN_PARSE_FAILED,
				fmt.Sprintf("%s document missing operation field", docType))
		}
		p := &Plan{
			ID: types.NewID(),
			Steps: []Step{{
				ID:         "1",
				Operation:  raw.Operation,
				Parameters: raw.Parameters,
				Confidence: raw.Confidence,
			}},
			OverallConfidence: raw.OverallConfidence,
			Language:          raw.Language,
			Alternatives:      raw.Alternatives,
			CreatedAt:         time.Now().UTC(),
		}
		if err := Validate(p); err != nil {
			return nil, err
		}
		return p, nil

	case DocumentTypeMultiStep:
		steps := make([]Step, 0, len(raw.Plan))
		for i, rs := range raw.Plan {
			id := string(rs.Step)
			if id == "" {
				return nil, types.NewError(types.PLAN_VALIDATION_FAILED,
					fmt.Sprintf("step at index %d has no id", i))
			}
			steps = append(steps, Step{
				ID:          id,
				Description: rs.Description,
				Operation:   rs.Operation,
				Parameters:  rs.Parameters,
				Confidence:  rs.Confidence,
				Condition:   rs.Condition,
				OnSuccess:   numbersToIDs(rs.OnSuccess),
				OnFailure:   numbersToIDs(rs.OnFailure),
				Explanation: rs.Explanation,
				Retry:       rs.Retry.toPolicy(),
			})
		}
		p := &Plan{
			ID:                types.NewID(),
			Steps:             steps,
			OverallConfidence: raw.OverallConfidence,
			Language:          raw.Language,
			Alternatives:      raw.Alternatives,
			CreatedAt:         time.Now().UTC(),
		}
		if err := Validate(p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, types.NewError(types.PLAN_PARSE_FAILED,
			fmt.Sprintf("unknown document type %q", docType))
	}
}

func numbersToIDs(nums []flexID) []string {
	if len(nums) == 0 {
		return nil
	}
	ids := make([]string, len(nums))
	for i, n := range nums {
		ids[i] = string(n)
	}
	return ids
}

func (r *rawRetryPolicy) toPolicy() *RetryPolicy {
	if r == nil {
		return nil
	}
	return &RetryPolicy{
		MaxRetries:      r.MaxRetries,
		BackoffStrategy: BackoffStrategy(r.BackoffStrategy),
		InitialDelay:    time.Duration(r.InitialDelayMS) * time.Millisecond,
		MaxDelay:        time.Duration(r.MaxDelayMS) * time.Millisecond,
		Multiplier:      r.Multiplier,
	}
}
