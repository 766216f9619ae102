package question

import (
	"encoding/json"
	"testing"
)

func TestRawCandidate_Shapes(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantOptions []string
		wantAnswer  string
	}{
		{
			name:        "list with text answer",
			payload:     `{"stem":"Q","options":["a","b","c"],"correct_answer":"b"}`,
			wantOptions: []string{"a", "b", "c"},
			wantAnswer:  "b",
		},
		{
			name:        "keyed options with letter answer",
			payload:     `{"stem":"Q","options":{"B":"beta","A":"alpha"},"correct_answer":"B"}`,
			wantOptions: []string{"alpha", "beta"},
			wantAnswer:  "B",
		},
		{
			name:        "text options with index answer",
			payload:     `{"stem":"Q","options":"A. one\nB) two\n\nC: three","correct_answer":2}`,
			wantOptions: []string{"one", "two", "three"},
			wantAnswer:  "three",
		},
		{
			name:        "index out of range",
			payload:     `{"stem":"Q","options":["x","y"],"correct_answer":7}`,
			wantOptions: []string{"x", "y"},
			wantAnswer:  "",
		},
		{
			name:        "numeric options",
			payload:     `{"stem":"Q","options":[1, 2.5],"correct_answer":"2.5"}`,
			wantOptions: []string{"1", "2.5"},
			wantAnswer:  "2.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw RawCandidate
			if err := json.Unmarshal([]byte(tt.payload), &raw); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			q := raw.ToQuestion()
			if len(q.Options) != len(tt.wantOptions) {
				t.Fatalf("options = %v, want %v", q.Options, tt.wantOptions)
			}
			for i := range q.Options {
				if q.Options[i] != tt.wantOptions[i] {
					t.Errorf("option %d = %q, want %q", i, q.Options[i], tt.wantOptions[i])
				}
			}
			if q.CorrectAnswer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", q.CorrectAnswer, tt.wantAnswer)
			}
			if q.Source != SourceGenerated {
				t.Errorf("source = %q, want generated", q.Source)
			}
			if q.Type != TypeMultipleChoice {
				t.Errorf("type = %q, want default multiple_choice", q.Type)
			}
		})
	}
}

func TestRawAnswer_RejectsObjects(t *testing.T) {
	var raw RawCandidate
	err := json.Unmarshal([]byte(`{"stem":"Q","options":["a"],"correct_answer":{"x":1}}`), &raw)
	if err == nil {
		t.Fatal("expected error for object answer")
	}
}

func TestClone_IsDeep(t *testing.T) {
	q := Question{Options: []string{"a", "b"}, Concepts: []string{"x"}}
	c := q.Clone()
	c.Options[0] = "changed"
	c.Concepts[0] = "changed"
	if q.Options[0] != "a" || q.Concepts[0] != "x" {
		t.Error("Clone shares backing arrays with the original")
	}
}
