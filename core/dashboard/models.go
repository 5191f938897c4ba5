package dashboard

import (
	"fmt"
	"io"
	"time"

	"github.com/zugate/teacherdash/core"
)

// DateLayout is the wire format of lesson dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

type (
	Class struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}

	Lesson struct {
		ID          string   `json:"_id"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Date        string   `json:"date"`
		Time        string   `json:"time"`
		Class       Class    `json:"class"`
		QuizIDs     []string `json:"quizzes"`
		PDFPath     string   `json:"pdfPath,omitempty"`
	}

	Option struct {
		Text string `json:"text"`
	}

	Question struct {
		Text          string   `json:"questionText"`
		Options       []Option `json:"options"`
		CorrectAnswer string   `json:"correctAnswer"`
	}

	Quiz struct {
		ID           string     `json:"_id"`
		Questions    []Question `json:"questions"`
		Approved     bool       `json:"approved"`
		OriginalText string     `json:"originalText,omitempty"`
	}

	AnalysisPoint struct {
		Point       string `json:"point"`
		Description string `json:"description"`
	}

	QuizAnalysis struct {
		AverageScore     float64         `json:"averageScore"`
		TotalStudents    int             `json:"totalStudents"`
		AnalysisPoints   []AnalysisPoint `json:"analysisPoints"`
		RecommendedFocus []string        `json:"recommendedFocus"`
	}

	WrongAnswer struct {
		Answer string `json:"answer"`
		Count  int    `json:"count"`
	}

	QuizStatistics struct {
		QuestionID         string        `json:"questionId"`
		QuestionText       string        `json:"questionText"`
		Correct            int           `json:"correct"`
		Incorrect          int           `json:"incorrect"`
		CommonWrongAnswers []WrongAnswer `json:"commonWrongAnswers"`
	}

	Feedback struct {
		LessonID string `json:"lesson"`
		Summary  string `json:"summary"`
	}

	UploadConfig struct {
		NumQuestions int `json:"numQuestions" validate:"required,min=1,max=50"`
		NumAnswers   int `json:"numAnswers" validate:"required,min=2,max=10"`
	}

	// Upload is the PDF handed to the quiz generator.
	Upload struct {
		FileName    string    `json:"pdf" validate:"required,pdf"`
		ContentType string    `json:"-"`
		Content     io.Reader `json:"-"`
	}
)

// Clone returns a deep copy; drafts never share slices with the cache.
func (q Quiz) Clone() Quiz {
	c := q
	if q.Questions != nil {
		c.Questions = make([]Question, len(q.Questions))
		for i, qu := range q.Questions {
			c.Questions[i] = qu.Clone()
		}
	}
	return c
}

func (qu Question) Clone() Question {
	c := qu
	if qu.Options != nil {
		c.Options = append([]Option(nil), qu.Options...)
	}
	return c
}

// CorrectIndex returns the index of the option matching CorrectAnswer, or -1.
func (qu Question) CorrectIndex() int {
	for i, opt := range qu.Options {
		if opt.Text == qu.CorrectAnswer {
			return i
		}
	}
	return -1
}

// Validate checks that CorrectAnswer equals the text of exactly one option.
func (qu Question) Validate() error {
	matches := 0
	for _, opt := range qu.Options {
		if opt.Text == qu.CorrectAnswer {
			matches++
		}
	}
	if matches != 1 {
		return fmt.Errorf("correct answer must match exactly one option (matches %d)", matches)
	}
	return nil
}

// ValidateQuestions reports every malformed question as a field error.
func ValidateQuestions(questions []Question) error {
	var flds []core.FieldError
	if len(questions) == 0 {
		flds = append(flds, core.FieldError{Field: "questions", Error: "at least one question is required"})
	}
	for i, qu := range questions {
		if core.CleanString(qu.Text) == "" {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("questions[%d].questionText", i), Error: "this field is required"})
		}
		if err := qu.Validate(); err != nil {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("questions[%d].correctAnswer", i), Error: err.Error()})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD lesson date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, core.CleanString(s))
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be formatted as YYYY-MM-DD"})
	}
	return d, nil
}
