package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core/dashboard"
)

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

func (cli *commandLine) lessons(ctx context.Context, date string) error {
	var err error
	if date == "" {
		err = cli.ctrl.EnsureLoaded(ctx)
	} else {
		err = cli.ctrl.SelectDate(ctx, date)
	}
	if err != nil {
		return err
	}

	view := cli.ctrl.View()
	if len(view.Lessons.Data) == 0 {
		fmt.Fprintf(cli.out, "no lessons on %s\n", view.Date)
		return nil
	}
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tTIME\tCLASS\tTITLE\tQUIZZES")
	for _, l := range view.Lessons.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", l.ID, l.Time, l.Class.Name, l.Title, len(l.QuizIDs))
	}
	return tw.Flush()
}

func (cli *commandLine) quizzes(ctx context.Context, lessonID string) error {
	if err := cli.ctrl.SelectLesson(ctx, lessonID); err != nil {
		return err
	}
	cli.printQuizzes(cli.ctrl.View().Quizzes.Data)
	return nil
}

func (cli *commandLine) printQuizzes(quizzes []dashboard.Quiz) {
	if len(quizzes) == 0 {
		fmt.Fprintln(cli.out, "no quizzes yet")
		return
	}
	for _, q := range quizzes {
		status := "draft"
		if q.Approved {
			status = "approved"
		}
		fmt.Fprintf(cli.out, "quiz %s [%s]\n", q.ID, status)
		for i, qu := range q.Questions {
			fmt.Fprintf(cli.out, "  %d. %s\n", i+1, qu.Text)
			correct := qu.CorrectIndex()
			if correct < 0 {
				fmt.Fprintln(cli.out, "     (no option matches the correct answer)")
			}
			for j, opt := range qu.Options {
				mark := " "
				if j == correct {
					mark = "*"
				}
				fmt.Fprintf(cli.out, "     %s %s\n", mark, opt.Text)
			}
		}
	}
}

func (cli *commandLine) upload(ctx context.Context, lessonID, path string, cfg dashboard.UploadConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening pdf")
	}
	defer f.Close()

	file := dashboard.Upload{
		FileName:    filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Content:     f,
	}
	if err = cli.ctrl.UploadPDF(ctx, lessonID, file, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "uploaded %s\n", file.FileName)
	cli.printQuizzes(cli.ctrl.View().Quizzes.Data)
	return nil
}

func (cli *commandLine) approve(ctx context.Context, quizID string) error {
	if err := cli.ctrl.ApproveQuiz(ctx, quizID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "quiz %s approved\n", quizID)
	return nil
}

func (cli *commandLine) analysis(ctx context.Context, quizID string, regenerate bool) error {
	var err error
	if regenerate {
		err = cli.ctrl.RegenerateAnalysis(ctx, quizID)
	} else {
		err = cli.ctrl.SelectQuiz(ctx, quizID)
	}
	if err != nil {
		return err
	}

	a := cli.ctrl.View().Analysis.Data
	fmt.Fprintf(cli.out, "average score: %.1f%%\n", a.AverageScore)
	fmt.Fprintf(cli.out, "students: %d\n", a.TotalStudents)
	for _, p := range a.AnalysisPoints {
		fmt.Fprintf(cli.out, "- %s: %s\n", p.Point, p.Description)
	}
	if len(a.RecommendedFocus) > 0 {
		fmt.Fprintf(cli.out, "focus on: %s\n", strings.Join(a.RecommendedFocus, ", "))
	}
	return nil
}

func (cli *commandLine) statistics(ctx context.Context, quizID string) error {
	if err := cli.ctrl.LoadStatistics(ctx, quizID); err != nil {
		return err
	}

	tw := cli.table()
	fmt.Fprintln(tw, "QUESTION\tCORRECT\tINCORRECT\tCOMMON WRONG ANSWERS")
	for _, s := range cli.ctrl.View().Statistics.Data {
		wrong := make([]string, 0, len(s.CommonWrongAnswers))
		for _, w := range s.CommonWrongAnswers {
			wrong = append(wrong, fmt.Sprintf("%s (%d)", w.Answer, w.Count))
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.QuestionText, s.Correct, s.Incorrect, strings.Join(wrong, ", "))
	}
	return tw.Flush()
}

func (cli *commandLine) feedback(ctx context.Context, lessonID string) error {
	if err := cli.ctrl.LoadFeedback(ctx, lessonID); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, cli.ctrl.View().Feedback.Data.Summary)
	return nil
}
