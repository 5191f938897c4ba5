package dashboard_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zugate/teacherdash/core"
	. "github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/tests"
)

func TestController_BeginEdit(t *testing.T) {
	api := new(testutil.FakeAPI)
	withQuizzes(api, sampleQuiz("q1", false), sampleQuiz("q2", true))
	ctrl := newController(api)
	require.NoError(t, ctrl.SelectLesson(context.Background(), "l1"))

	tests := []struct {
		name    string
		quizID  string
		wantErr bool
	}{
		{name: "draft quiz", quizID: "q1"},
		{name: "approved quiz", quizID: "q2", wantErr: true},
		{name: "unknown quiz", quizID: "q9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl.CancelEdit()
			draft, err := ctrl.BeginEdit(tt.quizID)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err), "BeginEdit() error = %v", err)
				_, ok := ctrl.Draft()
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quizID, draft.ID)
		})
	}
}

func TestController_editDraft(t *testing.T) {
	api := new(testutil.FakeAPI)
	withQuizzes(api, sampleQuiz("q1", false))
	ctrl := newController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.SelectLesson(ctx, "l1"))

	assert.True(t, core.IsValidationError(ctrl.SetQuestionText(0, "x")), "editing without a draft")
	assert.True(t, core.IsValidationError(ctrl.CommitEdit(ctx)), "committing without a draft")

	_, err := ctrl.BeginEdit("q1")
	require.NoError(t, err)

	require.NoError(t, ctrl.SetQuestionText(0, "2+2 = ?"))
	require.NoError(t, ctrl.SetOptionText(0, 1, "four"))
	draft, _ := ctrl.Draft()
	assert.Equal(t, "four", draft.Questions[0].CorrectAnswer, "renaming the correct option keeps it correct")

	require.NoError(t, ctrl.SetCorrectAnswer(0, 2))
	require.NoError(t, ctrl.SetOptionText(0, 1, "4"))
	draft, _ = ctrl.Draft()
	assert.Equal(t, "5", draft.Questions[0].CorrectAnswer)
	assert.Equal(t, []Option{{Text: "3"}, {Text: "4"}, {Text: "5"}}, draft.Questions[0].Options)

	assert.True(t, core.IsValidationError(ctrl.SetQuestionText(3, "x")))
	assert.True(t, core.IsValidationError(ctrl.SetOptionText(0, 7, "x")))
	assert.True(t, core.IsValidationError(ctrl.SetCorrectAnswer(0, -1)))

	// the cache is untouched until the draft is committed
	cached := ctrl.View().Quizzes.Data[0]
	assert.Equal(t, "2+2?", cached.Questions[0].Text)
	assert.Equal(t, "4", cached.Questions[0].CorrectAnswer)

	api.UpdateQuizFunc = func(context.Context, string, []Question) (Quiz, error) {
		return Quiz{}, errBackend
	}
	err = ctrl.CommitEdit(ctx)
	assert.Equal(t, errBackend, errors.Cause(err))
	_, ok := ctrl.Draft()
	assert.True(t, ok, "a failed save keeps the draft")
	assert.Equal(t, StatusFailed, ctrl.View().Mutation.Status)

	api.UpdateQuizFunc = nil
	require.NoError(t, ctrl.CommitEdit(ctx))
	_, ok = ctrl.Draft()
	assert.False(t, ok)

	view := ctrl.View()
	assert.Nil(t, view.Draft)
	assert.Equal(t, "2+2 = ?", view.Quizzes.Data[0].Questions[0].Text)
	assert.Equal(t, "5", view.Quizzes.Data[0].Questions[0].CorrectAnswer)
	assert.Equal(t, Mutation{QuizID: "q1", Op: OpUpdate}, view.Mutation.Data)
}

func TestController_CommitEdit_invalidDraft(t *testing.T) {
	api := new(testutil.FakeAPI)
	withQuizzes(api, sampleQuiz("q1", false))
	ctrl := newController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.SelectLesson(ctx, "l1"))
	_, err := ctrl.BeginEdit("q1")
	require.NoError(t, err)

	// two options sharing the correct answer's text
	require.NoError(t, ctrl.SetOptionText(0, 0, "4"))
	err = ctrl.CommitEdit(ctx)
	assert.True(t, core.IsValidationError(err), "CommitEdit() error = %v", err)
	assert.NotContains(t, api.Calls(), "UpdateQuiz(q1)")
}
