package domain

import (
	"encoding/json"
	"fmt"
)

// ParseQuestionSet decodes a serialized question set and validates it.
// It is the only place question-set text is parsed; callers treat the raw
// form as an opaque blob.
func ParseQuestionSet(raw []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuestionSet, err)
	}

	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question with empty identifier", ErrMalformedQuestionSet)
		}
		if _, ok := seen[q.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate question %q", ErrMalformedQuestionSet, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Points < 0 {
			return nil, fmt.Errorf("%w: question %q has negative points", ErrMalformedQuestionSet, q.ID)
		}
		if err := validateQuestionShape(q); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

// SerializeQuestionSet is the inverse of ParseQuestionSet; the round trip
// is exact for any valid question set.
func SerializeQuestionSet(questions []Question) ([]byte, error) {
	return json.Marshal(questions)
}

func validateQuestionShape(q Question) error {
	switch q.Type {
	case SingleChoice, MultiChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %q needs at least 2 options", ErrMalformedQuestionSet, q.ID)
		}
		optionIDs := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, ok := optionIDs[opt.ID]; ok {
				return fmt.Errorf("%w: question %q has duplicate option %q", ErrMalformedQuestionSet, q.ID, opt.ID)
			}
			optionIDs[opt.ID] = struct{}{}
		}
		if q.Type == SingleChoice && len(q.Correct) != 1 {
			return fmt.Errorf("%w: question %q must have exactly one correct option", ErrMalformedQuestionSet, q.ID)
		}
		if q.Type == MultiChoice && len(q.Correct) == 0 {
			return fmt.Errorf("%w: question %q has no correct options", ErrMalformedQuestionSet, q.ID)
		}
		for _, id := range q.Correct {
			if _, ok := optionIDs[id]; !ok {
				return fmt.Errorf("%w: question %q marks unknown option %q correct", ErrMalformedQuestionSet, q.ID, id)
			}
		}
	case FreeText:
		if len(q.Options) > 0 || len(q.Correct) > 0 {
			return fmt.Errorf("%w: free-text question %q carries options", ErrMalformedQuestionSet, q.ID)
		}
	default:
		return fmt.Errorf("%w: question %q has unknown type %q", ErrMalformedQuestionSet, q.ID, q.Type)
	}
	return nil
}
