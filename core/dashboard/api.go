package dashboard

import (
	"context"
	"errors"
)

// ErrNotFound signals that the backend has no such resource (yet).
// It is used to tell "analysis not generated" apart from a real failure.
var ErrNotFound = errors.New("not found")

// API is the external teacher REST API the dashboard reads from and writes to.
type API interface {
	GetLessons(ctx context.Context, date string) ([]Lesson, error)
	GetQuizzes(ctx context.Context, lessonID string) ([]Quiz, error)
	UploadPDF(ctx context.Context, lessonID string, file Upload, cfg UploadConfig) error
	UpdateQuiz(ctx context.Context, quizID string, questions []Question) (Quiz, error)
	ApproveQuiz(ctx context.Context, quizID string) error
	GetQuizAnalysis(ctx context.Context, quizID string) (QuizAnalysis, error)
	GenerateQuizAnalysis(ctx context.Context, quizID string) error
	GetQuizStatistics(ctx context.Context, quizID string) ([]QuizStatistics, error)
	GetFeedback(ctx context.Context, lessonID string) (Feedback, error)
}
