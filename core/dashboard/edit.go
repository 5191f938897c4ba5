package dashboard

import (
	"context"
	"fmt"

	"github.com/zugate/teacherdash/core"
)

// errors
var (
	errNoDraft       = core.NewValidationError(nil, core.FieldError{Field: "draft", Error: "no quiz is being edited"})
	errQuizApproved  = core.NewValidationError(nil, core.FieldError{Field: "quizId", Error: "approved quizzes cannot be edited"})
	errQuizNotLoaded = core.NewValidationError(nil, core.FieldError{Field: "quizId", Error: "quiz is not loaded"})
)

// BeginEdit copies a cached quiz into a draft. Edits never touch the cache until CommitEdit succeeds.
func (c *Controller) BeginEdit(quizID string) (Quiz, error) {
	quizID = core.CleanString(quizID)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range c.quizzes.Data {
		if q.ID != quizID {
			continue
		}
		if q.Approved {
			return Quiz{}, errQuizApproved
		}
		draft := q.Clone()
		c.draft = &draft
		return draft.Clone(), nil
	}
	return Quiz{}, errQuizNotLoaded
}

// Draft returns a copy of the quiz being edited.
func (c *Controller) Draft() (Quiz, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return Quiz{}, false
	}
	return c.draft.Clone(), true
}

func (c *Controller) SetQuestionText(q int, text string) error {
	return c.editQuestion(q, func(qu *Question) error {
		qu.Text = text
		return nil
	})
}

// SetOptionText renames option o of question q; a renamed correct option stays the correct one.
func (c *Controller) SetOptionText(q, o int, text string) error {
	return c.editQuestion(q, func(qu *Question) error {
		if o < 0 || o >= len(qu.Options) {
			return optionRangeError(q, o)
		}
		if qu.Options[o].Text == qu.CorrectAnswer {
			qu.CorrectAnswer = text
		}
		qu.Options[o].Text = text
		return nil
	})
}

// SetCorrectAnswer marks option o of question q as the correct one.
func (c *Controller) SetCorrectAnswer(q, o int) error {
	return c.editQuestion(q, func(qu *Question) error {
		if o < 0 || o >= len(qu.Options) {
			return optionRangeError(q, o)
		}
		qu.CorrectAnswer = qu.Options[o].Text
		return nil
	})
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
}

// CommitEdit saves the draft through UpdateQuiz. The draft survives a failed save.
func (c *Controller) CommitEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return errNoDraft
	}
	draft := c.draft.Clone()
	c.mu.Unlock()

	return c.UpdateQuiz(ctx, draft.ID, draft.Questions)
}

func (c *Controller) editQuestion(q int, fn func(*Question) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft == nil {
		return errNoDraft
	}
	if q < 0 || q >= len(c.draft.Questions) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "question",
			Error: fmt.Sprintf("question %d does not exist", q),
		})
	}
	return fn(&c.draft.Questions[q])
}

func optionRangeError(q, o int) error {
	return core.NewValidationError(nil, core.FieldError{
		Field: fmt.Sprintf("questions[%d].options", q),
		Error: fmt.Sprintf("option %d does not exist", o),
	})
}
