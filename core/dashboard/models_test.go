package dashboard_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	. "github.com/zugate/teacherdash/core/dashboard"
)

func TestValidateQuestions(t *testing.T) {
	opts := []Option{{Text: "a"}, {Text: "b"}}
	tests := []struct {
		name       string
		questions  []Question
		wantFields []string
	}{
		{name: "valid", questions: []Question{{Text: "q", Options: opts, CorrectAnswer: "b"}}},
		{name: "no questions", wantFields: []string{"questions"}},
		{name: "blank text", questions: []Question{{Text: "  ", Options: opts, CorrectAnswer: "a"}}, wantFields: []string{"questions[0].questionText"}},
		{name: "no matching option", questions: []Question{{Text: "q", Options: opts, CorrectAnswer: "c"}}, wantFields: []string{"questions[0].correctAnswer"}},
		{
			name: "ambiguous answer",
			questions: []Question{
				{Text: "q", Options: opts, CorrectAnswer: "a"},
				{Text: "", Options: []Option{{Text: "a"}, {Text: "a"}}, CorrectAnswer: "a"},
			},
			wantFields: []string{"questions[1].questionText", "questions[1].correctAnswer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestions(tt.questions)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateQuestions() error = %v, want nil", err)
				}
				return
			}
			vErr, ok := errors.Cause(err).(*core.ValidationError)
			if !ok {
				t.Fatalf("ValidateQuestions() error = %v, want a validation error", err)
			}
			var got []string
			for _, f := range vErr.Fields {
				got = append(got, f.Field)
			}
			if len(got) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want %v", got, tt.wantFields)
			}
			for i := range got {
				if got[i] != tt.wantFields[i] {
					t.Errorf("fields = %v, want %v", got, tt.wantFields)
				}
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-03-01", want: "2024-03-01"},
		{in: " 2024-02-29 ", want: "2024-02-29"},
		{in: "2023-02-29", wantErr: true},
		{in: "01/03/2024", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.Format(DateLayout) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format(DateLayout), tt.want)
			}
		})
	}
}

func TestStatus_text(t *testing.T) {
	for _, st := range []Status{StatusIdle, StatusLoading, StatusLoaded, StatusFailed} {
		text, _ := st.MarshalText()
		var got Status
		if err := got.UnmarshalText(text); err != nil || got != st {
			t.Errorf("UnmarshalText(%s) = %v, %v", text, got, err)
		}
	}
	var st Status
	if err := st.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText(bogus) error = nil")
	}
}
