package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/storage/tokenstore/inmem"
	"github.com/zugate/teacherdash/tests"
)

var errBadCredentials = errors.New("invalid credentials")

type fakeAuth map[string]string // password -> token

func (a fakeAuth) Login(_ context.Context, _, password string) (string, error) {
	if token, ok := a[password]; ok {
		return token, nil
	}
	return "", errBadCredentials
}

func setup(t *testing.T) (*commandLine, *testutil.FakeAPI, *bytes.Buffer) {
	validate := validator.New()
	translator := core.NewTranslator()
	dashboard.InitValidators(validate, translator)

	api := new(testutil.FakeAPI)
	out := new(bytes.Buffer)
	cli := &commandLine{
		out:  out,
		sess: session.New(inmem.NewTokenStore(), session.NewDecoder()),
		auth: fakeAuth{
			"teacher-pwd": testutil.MakeToken(t, "t1", session.RoleTeacher, time.Now().Add(time.Hour)),
			"student-pwd": testutil.MakeToken(t, "s1", session.RoleStudent, time.Now().Add(time.Hour)),
		},
		ctrl: dashboard.NewController(dashboard.Deps{
			API:        api,
			Logger:     testutil.NopLogger{},
			Validate:   validate,
			Translator: translator,
		}),
	}
	return cli, api, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) check(t *testing.T, err error, out string) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if tt.wantOut != "" && !strings.Contains(out, tt.wantOut) {
		t.Errorf("cli.run() output = %q, want it to contain %q", out, tt.wantOut)
	}
}

func Test_commandLine_session(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `"lol": no such command`},
		{name: "login without username", args: []string{"login"}, wantErr: errHelp},
		{name: "login without password", args: []string{"login", "-username", "t"}, wantErr: errEmptyPassword},
		{name: "login with bad password", args: []string{"login", "-username", "t"}, pwd: "nope", wantErr: errBadCredentials},
		{name: "whoami anonymous", args: []string{"whoami"}, wantOut: "anonymous"},
		{name: "lessons anonymous", args: []string{"lessons"}, wantErr: errNotTeacher},
		{name: "login as student", args: []string{"login", "-username", "s"}, pwd: "student-pwd", wantOut: "only available to teachers"},
		{name: "lessons as student", args: []string{"lessons"}, wantErr: errNotTeacher},
		{name: "login as teacher", args: []string{"login", "-username", "t"}, pwd: "teacher-pwd", wantOut: "signed in as t1 (teacher)"},
		{name: "whoami teacher", args: []string{"whoami"}, wantOut: "t1 (teacher)"},
		{name: "logout", args: []string{"logout"}, wantOut: "signed out"},
		{name: "logout again", args: []string{"logout"}, wantOut: "signed out"},
		{name: "lessons after logout", args: []string{"lessons"}, wantErr: errNotTeacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.pwd), nil }
			err := cli.run(append([]string{"teacherdash"}, tt.args...))
			tt.check(t, err, out.String())
		})
	}
}

func Test_commandLine_dashboard(t *testing.T) {
	cli, api, out := setup(t)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("teacher-pwd"), nil }
	if err := cli.run([]string{"teacherdash", "login", "-username", "t"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	api.GetLessonsFunc = func(_ context.Context, date string) ([]dashboard.Lesson, error) {
		return []dashboard.Lesson{{ID: "l1", Title: "Fractions", Time: "09:00", Date: date, QuizIDs: []string{"q1"}}}, nil
	}
	api.GetQuizzesFunc = func(context.Context, string) ([]dashboard.Quiz, error) {
		return []dashboard.Quiz{{ID: "q1", Questions: []dashboard.Question{{
			Text: "2+2?", Options: []dashboard.Option{{Text: "3"}, {Text: "4"}}, CorrectAnswer: "4",
		}}}}, nil
	}
	api.GetQuizAnalysisFunc = func(context.Context, string) (dashboard.QuizAnalysis, error) {
		return dashboard.QuizAnalysis{AverageScore: 80, TotalStudents: 12, RecommendedFocus: []string{"carrying"}}, nil
	}
	api.GetFeedbackFunc = func(_ context.Context, lessonID string) (dashboard.Feedback, error) {
		return dashboard.Feedback{LessonID: lessonID, Summary: "Students enjoyed the lesson."}, nil
	}

	dir := t.TempDir()
	pdf := filepath.Join(dir, "lesson.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("notes"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []cliTest{
		{name: "lessons bad date", args: []string{"lessons", "-date", "yesterday"}, wantErrStr: "date: must be formatted as YYYY-MM-DD"},
		{name: "lessons", args: []string{"lessons", "-date", "2024-03-01"}, wantOut: "Fractions"},
		{name: "quizzes without lesson", args: []string{"quizzes"}, wantErr: errHelp},
		{name: "quizzes", args: []string{"quizzes", "-lesson", "l1"}, wantOut: "* 4"},
		{name: "upload not a pdf", args: []string{"upload", "-lesson", "l1", "-file", txt}, wantErrStr: "pdf: only PDF files are accepted"},
		{name: "upload", args: []string{"upload", "-lesson", "l1", "-file", pdf, "-questions", "3"}, wantOut: "uploaded lesson.pdf"},
		{name: "approve", args: []string{"approve", "-quiz", "q1"}, wantOut: "quiz q1 approved"},
		{name: "analysis", args: []string{"analysis", "-quiz", "q1"}, wantOut: "focus on: carrying"},
		{name: "statistics", args: []string{"statistics", "-quiz", "q1"}, wantOut: "QUESTION"},
		{name: "feedback", args: []string{"feedback", "-lesson", "l1"}, wantOut: "Students enjoyed the lesson."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"teacherdash"}, tt.args...))
			tt.check(t, err, out.String())
		})
	}

	err := cli.run([]string{"teacherdash", "upload", "-lesson", "l1", "-file", filepath.Join(dir, "nope.pdf")})
	if err == nil || !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("cli.run() error = %v, want a not-exist error", err)
	}

	want := []string{
		"GetLessons(2024-03-01)",
		"GetQuizzes(l1)",
		"UploadPDF(l1)",
		"GetQuizzes(l1)",
		"ApproveQuiz(q1)",
		"GetQuizAnalysis(q1)",
		"GetQuizStatistics(q1)",
		"GetFeedback(l1)",
	}
	if got := api.Calls(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("api calls = %v, want %v", got, want)
	}
}

func Test_commandLine_printQuizzes(t *testing.T) {
	tests := []struct {
		name    string
		quiz    dashboard.Quiz
		wantOut string
	}{
		{
			name:    "marks the correct option",
			quiz:    dashboard.Quiz{ID: "q1", Questions: []dashboard.Question{{Text: "2+2?", Options: []dashboard.Option{{Text: "3"}, {Text: "4"}}, CorrectAnswer: "4"}}},
			wantOut: "       3\n     * 4\n",
		},
		{
			name:    "no option matches",
			quiz:    dashboard.Quiz{ID: "q1", Approved: true, Questions: []dashboard.Question{{Text: "2+2?", Options: []dashboard.Option{{Text: "3"}}, CorrectAnswer: "4"}}},
			wantOut: "quiz q1 [approved]\n  1. 2+2?\n     (no option matches the correct answer)\n       3\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, out := setup(t)
			cli.printQuizzes([]dashboard.Quiz{tt.quiz})
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("printQuizzes() output = %q, want it to contain %q", out.String(), tt.wantOut)
			}
		})
	}
}
