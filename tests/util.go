package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
)

var signingKey = []byte("test-secret")

// MakeToken mints a signed token for a user. A zero exp leaves the token without expiry.
func MakeToken(t *testing.T, id, role string, exp time.Time) string {
	t.Helper()
	claims := session.Claims{User: session.Subject{ID: id, Role: role}}
	if !exp.IsZero() {
		claims.ExpiresAt = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	return token
}

// FakeAPI is a dashboard.API whose responses are set per test. Unset hooks return zero values.
type FakeAPI struct {
	mu    sync.Mutex
	calls []string

	GetLessonsFunc           func(ctx context.Context, date string) ([]dashboard.Lesson, error)
	GetQuizzesFunc           func(ctx context.Context, lessonID string) ([]dashboard.Quiz, error)
	UploadPDFFunc            func(ctx context.Context, lessonID string, file dashboard.Upload, cfg dashboard.UploadConfig) error
	UpdateQuizFunc           func(ctx context.Context, quizID string, questions []dashboard.Question) (dashboard.Quiz, error)
	ApproveQuizFunc          func(ctx context.Context, quizID string) error
	GetQuizAnalysisFunc      func(ctx context.Context, quizID string) (dashboard.QuizAnalysis, error)
	GenerateQuizAnalysisFunc func(ctx context.Context, quizID string) error
	GetQuizStatisticsFunc    func(ctx context.Context, quizID string) ([]dashboard.QuizStatistics, error)
	GetFeedbackFunc          func(ctx context.Context, lessonID string) (dashboard.Feedback, error)
}

var _ dashboard.API = (*FakeAPI)(nil)

// Calls returns the recorded calls as "Method(arg)".
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeAPI) record(method, arg string) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s(%s)", method, arg))
	f.mu.Unlock()
}

func (f *FakeAPI) GetLessons(ctx context.Context, date string) ([]dashboard.Lesson, error) {
	f.record("GetLessons", date)
	if f.GetLessonsFunc == nil {
		return nil, nil
	}
	return f.GetLessonsFunc(ctx, date)
}

func (f *FakeAPI) GetQuizzes(ctx context.Context, lessonID string) ([]dashboard.Quiz, error) {
	f.record("GetQuizzes", lessonID)
	if f.GetQuizzesFunc == nil {
		return nil, nil
	}
	return f.GetQuizzesFunc(ctx, lessonID)
}

func (f *FakeAPI) UploadPDF(ctx context.Context, lessonID string, file dashboard.Upload, cfg dashboard.UploadConfig) error {
	f.record("UploadPDF", lessonID)
	if f.UploadPDFFunc == nil {
		_, err := io.Copy(io.Discard, file.Content)
		return err
	}
	return f.UploadPDFFunc(ctx, lessonID, file, cfg)
}

func (f *FakeAPI) UpdateQuiz(ctx context.Context, quizID string, questions []dashboard.Question) (dashboard.Quiz, error) {
	f.record("UpdateQuiz", quizID)
	if f.UpdateQuizFunc == nil {
		return dashboard.Quiz{ID: quizID, Questions: questions}, nil
	}
	return f.UpdateQuizFunc(ctx, quizID, questions)
}

func (f *FakeAPI) ApproveQuiz(ctx context.Context, quizID string) error {
	f.record("ApproveQuiz", quizID)
	if f.ApproveQuizFunc == nil {
		return nil
	}
	return f.ApproveQuizFunc(ctx, quizID)
}

func (f *FakeAPI) GetQuizAnalysis(ctx context.Context, quizID string) (dashboard.QuizAnalysis, error) {
	f.record("GetQuizAnalysis", quizID)
	if f.GetQuizAnalysisFunc == nil {
		return dashboard.QuizAnalysis{}, nil
	}
	return f.GetQuizAnalysisFunc(ctx, quizID)
}

func (f *FakeAPI) GenerateQuizAnalysis(ctx context.Context, quizID string) error {
	f.record("GenerateQuizAnalysis", quizID)
	if f.GenerateQuizAnalysisFunc == nil {
		return nil
	}
	return f.GenerateQuizAnalysisFunc(ctx, quizID)
}

func (f *FakeAPI) GetQuizStatistics(ctx context.Context, quizID string) ([]dashboard.QuizStatistics, error) {
	f.record("GetQuizStatistics", quizID)
	if f.GetQuizStatisticsFunc == nil {
		return nil, nil
	}
	return f.GetQuizStatisticsFunc(ctx, quizID)
}

func (f *FakeAPI) GetFeedback(ctx context.Context, lessonID string) (dashboard.Feedback, error) {
	f.record("GetFeedback", lessonID)
	if f.GetFeedbackFunc == nil {
		return dashboard.Feedback{LessonID: lessonID}, nil
	}
	return f.GetFeedbackFunc(ctx, lessonID)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
