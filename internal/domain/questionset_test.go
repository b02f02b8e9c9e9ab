package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestQuestionSetRoundTrip(t *testing.T) {
	original := []Question{
		{
			ID:     "q1",
			Type:   SingleChoice,
			Prompt: "What is 2 + 2?",
			Options: []Option{
				{ID: "o1", Text: "3"},
				{ID: "o2", Text: "4"},
			},
			Correct: []string{"o2"},
			Points:  10,
		},
		{
			ID:     "q2",
			Type:   MultiChoice,
			Prompt: "Pick the even numbers",
			Options: []Option{
				{ID: "a", Text: "1"},
				{ID: "b", Text: "2"},
				{ID: "c", Text: "4"},
			},
			Correct: []string{"b", "c"},
			Points:  5,
		},
		{
			ID:     "q3",
			Type:   FreeText,
			Prompt: "Explain your reasoning",
			Points: 20,
		},
	}

	raw, err := SerializeQuestionSet(original)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := ParseQuestionSet(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(original, parsed) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", parsed, original)
	}
}

func TestParseQuestionSetRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"duplicate ids", `[
			{"id":"q1","type":"free_text","prompt":"a","points":1},
			{"id":"q1","type":"free_text","prompt":"b","points":1}
		]`},
		{"empty id", `[{"id":"","type":"free_text","prompt":"a","points":1}]`},
		{"negative points", `[{"id":"q1","type":"free_text","prompt":"a","points":-1}]`},
		{"single option", `[{"id":"q1","type":"single_choice","prompt":"a","options":[{"id":"o1","text":"x"}],"correct":["o1"],"points":1}]`},
		{"correct references missing option", `[{"id":"q1","type":"single_choice","prompt":"a","options":[{"id":"o1","text":"x"},{"id":"o2","text":"y"}],"correct":["o9"],"points":1}]`},
		{"two correct for single choice", `[{"id":"q1","type":"single_choice","prompt":"a","options":[{"id":"o1","text":"x"},{"id":"o2","text":"y"}],"correct":["o1","o2"],"points":1}]`},
		{"multi choice without correct set", `[{"id":"q1","type":"multi_choice","prompt":"a","options":[{"id":"o1","text":"x"},{"id":"o2","text":"y"}],"points":1}]`},
		{"duplicate option ids", `[{"id":"q1","type":"single_choice","prompt":"a","options":[{"id":"o1","text":"x"},{"id":"o1","text":"y"}],"correct":["o1"],"points":1}]`},
		{"free text with options", `[{"id":"q1","type":"free_text","prompt":"a","options":[{"id":"o1","text":"x"},{"id":"o2","text":"y"}],"points":1}]`},
		{"unknown type", `[{"id":"q1","type":"essay","prompt":"a","points":1}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuestionSet([]byte(tc.raw))
			if !errors.Is(err, ErrMalformedQuestionSet) {
				t.Fatalf("expected ErrMalformedQuestionSet, got %v", err)
			}
		})
	}
}
