package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errNotTeacher    = errors.New("not signed in as a teacher: run `login` first")
	errUnknownCmd    = errors.New("no such command")
	errEmptyPassword = errors.New("password is required")
)

type authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type commandLine struct {
	out  io.Writer
	sess *session.Session
	auth authenticator
	ctrl *dashboard.Controller
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME                       - sign in (the password is prompted)")
	fmt.Fprintln(cli.out, "  logout                                         - sign out")
	fmt.Fprintln(cli.out, "  whoami                                         - show the signed in user")
	fmt.Fprintln(cli.out, "  lessons [-date YYYY-MM-DD]                     - list the lessons of a day (today by default)")
	fmt.Fprintln(cli.out, "  quizzes -lesson ID                             - list the quizzes of a lesson")
	fmt.Fprintln(cli.out, "  upload -lesson ID -file PDF [-questions N] [-answers N] - generate quizzes from a PDF")
	fmt.Fprintln(cli.out, "  approve -quiz ID                               - approve a quiz")
	fmt.Fprintln(cli.out, "  analysis -quiz ID [-regenerate]                - show the analysis of a quiz")
	fmt.Fprintln(cli.out, "  statistics -quiz ID                            - show per-question answer counts")
	fmt.Fprintln(cli.out, "  feedback -lesson ID                            - show the students' feedback summary")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	loginCmd := cli.newFlagSet("login")
	loginUname := loginCmd.String("username", "", "The teacher's username. The password will be prompted next.")

	lessonsCmd := cli.newFlagSet("lessons")
	lessonsDate := lessonsCmd.String("date", "", "The day, as YYYY-MM-DD. Defaults to today.")

	quizzesCmd := cli.newFlagSet("quizzes")
	quizzesLesson := quizzesCmd.String("lesson", "", "The lesson ID.")

	uploadCmd := cli.newFlagSet("upload")
	uploadLesson := uploadCmd.String("lesson", "", "The lesson ID.")
	uploadFile := uploadCmd.String("file", "", "Path to the lesson PDF.")
	defaults := cli.ctrl.DefaultUploadConfig()
	uploadQuestions := uploadCmd.Int("questions", defaults.NumQuestions, "Number of questions to generate.")
	uploadAnswers := uploadCmd.Int("answers", defaults.NumAnswers, "Number of answers per question.")

	approveCmd := cli.newFlagSet("approve")
	approveQuiz := approveCmd.String("quiz", "", "The quiz ID.")

	analysisCmd := cli.newFlagSet("analysis")
	analysisQuiz := analysisCmd.String("quiz", "", "The quiz ID.")
	analysisRegen := analysisCmd.Bool("regenerate", false, "Generate a fresh analysis first.")

	statisticsCmd := cli.newFlagSet("statistics")
	statisticsQuiz := statisticsCmd.String("quiz", "", "The quiz ID.")

	feedbackCmd := cli.newFlagSet("feedback")
	feedbackLesson := feedbackCmd.String("lesson", "", "The lesson ID.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			return errEmptyPassword
		}
		return cli.login(ctx, *loginUname, string(pwd))
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami()
	case "lessons":
		if err := lessonsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.guarded(func() error { return cli.lessons(ctx, *lessonsDate) })
	case "quizzes":
		if err := quizzesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *quizzesLesson == "" {
			quizzesCmd.Usage()
			return errHelp
		}
		return cli.guarded(func() error { return cli.quizzes(ctx, *quizzesLesson) })
	case "upload":
		if err := uploadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uploadLesson == "" || *uploadFile == "" {
			uploadCmd.Usage()
			return errHelp
		}
		cfg := dashboard.UploadConfig{NumQuestions: *uploadQuestions, NumAnswers: *uploadAnswers}
		return cli.guarded(func() error { return cli.upload(ctx, *uploadLesson, *uploadFile, cfg) })
	case "approve":
		if err := approveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveQuiz == "" {
			approveCmd.Usage()
			return errHelp
		}
		return cli.guarded(func() error { return cli.approve(ctx, *approveQuiz) })
	case "analysis":
		if err := analysisCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *analysisQuiz == "" {
			analysisCmd.Usage()
			return errHelp
		}
		return cli.guarded(func() error { return cli.analysis(ctx, *analysisQuiz, *analysisRegen) })
	case "statistics":
		if err := statisticsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *statisticsQuiz == "" {
			statisticsCmd.Usage()
			return errHelp
		}
		return cli.guarded(func() error { return cli.statistics(ctx, *statisticsQuiz) })
	case "feedback":
		if err := feedbackCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *feedbackLesson == "" {
			feedbackCmd.Usage()
			return errHelp
		}
		return cli.guarded(func() error { return cli.feedback(ctx, *feedbackLesson) })
	default:
		cli.printUsage()
		return fmt.Errorf("%q: %w", args[1], errUnknownCmd)
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// guarded runs fn only when the session is a teacher session.
func (cli *commandLine) guarded(fn func() error) error {
	if !session.Authorize(cli.sess, session.RoleTeacher).Allow {
		return errNotTeacher
	}
	return fn()
}
