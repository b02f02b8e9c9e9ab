package domain

import (
	"encoding/json"
	"fmt"
)

// ParseAnswers decodes submitted answers and validates them against the
// parsed question set. Questions left unanswered are simply absent; absence
// is not an error and such questions score zero.
func ParseAnswers(raw []byte, questions []Question) ([]Answer, error) {
	var answers []Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
	}

	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: answer for unknown question %q", ErrMalformedAnswers, a.QuestionID)
		}
		if _, ok := seen[a.QuestionID]; ok {
			return nil, fmt.Errorf("%w: duplicate answer for question %q", ErrMalformedAnswers, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}

		if err := validateAnswerShape(a, q); err != nil {
			return nil, err
		}
	}
	return answers, nil
}

func validateAnswerShape(a Answer, q Question) error {
	switch q.Type {
	case SingleChoice:
		if a.OptionID == "" || len(a.OptionIDs) > 0 || a.Text != "" {
			return fmt.Errorf("%w: question %q expects a single option id", ErrMalformedAnswers, q.ID)
		}
		if !hasOption(q, a.OptionID) {
			return fmt.Errorf("%w: question %q has no option %q", ErrMalformedAnswers, q.ID, a.OptionID)
		}
	case MultiChoice:
		if len(a.OptionIDs) == 0 || a.OptionID != "" || a.Text != "" {
			return fmt.Errorf("%w: question %q expects a set of option ids", ErrMalformedAnswers, q.ID)
		}
		seen := make(map[string]struct{}, len(a.OptionIDs))
		for _, id := range a.OptionIDs {
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: question %q selects option %q twice", ErrMalformedAnswers, q.ID, id)
			}
			seen[id] = struct{}{}
			if !hasOption(q, id) {
				return fmt.Errorf("%w: question %q has no option %q", ErrMalformedAnswers, q.ID, id)
			}
		}
	case FreeText:
		if a.OptionID != "" || len(a.OptionIDs) > 0 {
			return fmt.Errorf("%w: question %q expects free text", ErrMalformedAnswers, q.ID)
		}
	}
	return nil
}

func hasOption(q Question, optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
