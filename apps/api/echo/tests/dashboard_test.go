package tests

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/services/teacherapi"
	"github.com/zugate/teacherdash/tests"
)

func newTeacherFixture(t *testing.T) *fixture {
	fx := setup(t)
	fx.signIn(t, testutil.MakeToken(t, "t1", session.RoleTeacher, time.Time{}))

	fx.api.GetLessonsFunc = func(_ context.Context, date string) ([]dashboard.Lesson, error) {
		return []dashboard.Lesson{{ID: "l1", Title: "Fractions", Date: date, QuizIDs: []string{"q1"}}}, nil
	}
	fx.api.GetQuizzesFunc = func(_ context.Context, lessonID string) ([]dashboard.Quiz, error) {
		return []dashboard.Quiz{{
			ID: "q1",
			Questions: []dashboard.Question{{
				Text:          "2+2?",
				Options:       []dashboard.Option{{Text: "3"}, {Text: "4"}},
				CorrectAnswer: "4",
			}},
		}}, nil
	}
	return fx
}

func Test_dashboardApi_view(t *testing.T) {
	fx := newTeacherFixture(t)
	dashboard.NowFunc = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	defer func() { dashboard.NowFunc = time.Now }()

	rec := fx.do(http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, "2024-03-01", view.Date)
	assert.Equal(t, dashboard.StatusLoaded, view.Lessons.Status)
	require.Len(t, view.Lessons.Data, 1)
	assert.Equal(t, "l1", view.Lessons.Data[0].ID)

	rec = fx.do(http.MethodPut, "/dashboard/date", []byte(`{"shift":1}`))
	view = decodeView(t, rec)
	assert.Equal(t, "2024-03-02", view.Date)
	assert.Equal(t, []string{"GetLessons(2024-03-01)", "GetLessons(2024-03-02)"}, fx.api.Calls())
}

func Test_dashboardApi_validation(t *testing.T) {
	fx := newTeacherFixture(t)

	tests := []httpTest{
		{
			name:     "bad date",
			method:   http.MethodPut,
			path:     "/dashboard/date",
			body:     []byte(`{"date":"01/03/2024"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"must be formatted as YYYY-MM-DD"}`),
		},
		{
			name:     "upload without file",
			method:   http.MethodPost,
			path:     "/dashboard/lessons/l1/upload",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"pdf":"please select a PDF file"}`),
		},
		{
			name:     "invalid questions",
			method:   http.MethodPut,
			path:     "/dashboard/quizzes/q1",
			body:     []byte(`{"questions":[{"questionText":"2+2?","options":[{"text":"3"},{"text":"4"}],"correctAnswer":"5"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"questions[0].correctAnswer":"correct answer must match exactly one option (matches 0)"}`),
		},
		{
			name:     "edit without draft",
			method:   http.MethodPut,
			path:     "/dashboard/draft/questions/0",
			body:     []byte(`{"text":"x"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"draft":"no quiz is being edited"}`),
		},
		{
			name:     "bad question index",
			method:   http.MethodPut,
			path:     "/dashboard/draft/questions/x",
			body:     []byte(`{"text":"x"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"q":"must be a non-negative integer"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fx.do(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
	assert.Empty(t, fx.api.Calls())
}

func Test_dashboardApi_approve(t *testing.T) {
	tests := []struct {
		name         string
		approveErr   error
		wantApproved bool
		wantStatus   dashboard.Status
		wantError    string
	}{
		{name: "confirmed", wantApproved: true, wantStatus: dashboard.StatusLoaded},
		{
			name:       "rejected",
			approveErr: &teacherapi.APIError{Status: http.StatusInternalServerError, Message: "boom"},
			wantStatus: dashboard.StatusFailed,
			wantError:  "500: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newTeacherFixture(t)
			fx.api.ApproveQuizFunc = func(context.Context, string) error { return tt.approveErr }

			fx.do(http.MethodPut, "/dashboard/lesson", []byte(`{"lessonId":"l1"}`))
			rec := fx.do(http.MethodPost, "/dashboard/quizzes/q1/approve")
			require.Equal(t, http.StatusOK, rec.Code)

			view := decodeView(t, rec)
			require.Len(t, view.Quizzes.Data, 1)
			assert.Equal(t, tt.wantApproved, view.Quizzes.Data[0].Approved)
			assert.Equal(t, tt.wantStatus, view.Mutation.Status)
			assert.Equal(t, tt.wantError, view.Mutation.Error)
		})
	}
}

func Test_dashboardApi_upload(t *testing.T) {
	fx := newTeacherFixture(t)
	var gotCfg dashboard.UploadConfig
	var gotName string
	fx.api.UploadPDFFunc = func(_ context.Context, _ string, file dashboard.Upload, cfg dashboard.UploadConfig) error {
		gotCfg, gotName = cfg, file.FileName
		return nil
	}
	fx.do(http.MethodPut, "/dashboard/lesson", []byte(`{"lessonId":"l1"}`))

	upload := func(name string, fields map[string]string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("pdf", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("%PDF-1.4"))
		for k, v := range fields {
			_ = mw.WriteField(k, v)
		}
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/dashboard/lessons/l1/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		fx.app.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("notes.txt", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"pdf":"only PDF files are accepted"}`, rec.Body.String())

	rec = upload("lesson.pdf", map[string]string{"numQuestions": "0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload("lesson.pdf", map[string]string{"numQuestions": "8"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dashboard.UploadConfig{NumQuestions: 8, NumAnswers: 4}, gotCfg)
	assert.Equal(t, "lesson.pdf", gotName)

	view := decodeView(t, rec)
	assert.Equal(t, dashboard.StatusLoaded, view.Upload.Status)
	assert.Equal(t, []string{"GetQuizzes(l1)", "UploadPDF(l1)", "GetQuizzes(l1)"}, fx.api.Calls())
}

func Test_dashboardApi_editDraft(t *testing.T) {
	fx := newTeacherFixture(t)
	var saved []dashboard.Question
	fx.api.UpdateQuizFunc = func(_ context.Context, quizID string, questions []dashboard.Question) (dashboard.Quiz, error) {
		saved = questions
		return dashboard.Quiz{ID: quizID, Questions: questions}, nil
	}
	fx.do(http.MethodPut, "/dashboard/lesson", []byte(`{"lessonId":"l1"}`))

	steps := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/dashboard/quizzes/q1/draft", ""},
		{http.MethodPut, "/dashboard/draft/questions/0", `{"text":"3+1?"}`},
		{http.MethodPut, "/dashboard/draft/questions/0/options/1", `{"text":"four"}`},
		{http.MethodPut, "/dashboard/draft/questions/0/correct", `{"option":1}`},
	}
	var rec *httptest.ResponseRecorder
	for _, s := range steps {
		rec = fx.do(s.method, s.path, []byte(s.body))
		require.Equal(t, http.StatusOK, rec.Code, "%s %s: %s", s.method, s.path, rec.Body.String())
	}

	view := decodeView(t, rec)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "3+1?", view.Draft.Questions[0].Text)
	assert.Equal(t, "four", view.Draft.Questions[0].CorrectAnswer)
	assert.Equal(t, "2+2?", view.Quizzes.Data[0].Questions[0].Text, "cache untouched before commit")

	rec = fx.do(http.MethodPost, "/dashboard/draft/commit")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Nil(t, view.Draft)
	assert.Equal(t, "3+1?", view.Quizzes.Data[0].Questions[0].Text)
	require.Len(t, saved, 1)
	assert.Equal(t, "four", saved[0].CorrectAnswer)
}
