package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
)

type dashboardApi struct {
	ctrl *dashboard.Controller
}

func registerDashboardAPI(g *echo.Group, ctrl *dashboard.Controller) {
	api := dashboardApi{ctrl: ctrl}

	g.GET("", api.view)
	g.PUT("/date", api.selectDate)
	g.PUT("/lesson", api.selectLesson)
	g.PUT("/quiz", api.selectQuiz)

	lg := g.Group("/lessons/:id")
	lg.POST("/upload", api.upload)
	lg.GET("/feedback", api.feedback)

	qg := g.Group("/quizzes/:id")
	qg.PUT("", api.updateQuiz)
	qg.POST("/approve", api.approve)
	qg.POST("/analysis", api.regenerateAnalysis)
	qg.GET("/statistics", api.statistics)
	qg.POST("/draft", api.beginEdit)

	dg := g.Group("/draft")
	dg.DELETE("", api.cancelEdit)
	dg.PUT("/questions/:q", api.setQuestionText)
	dg.PUT("/questions/:q/options/:o", api.setOptionText)
	dg.PUT("/questions/:q/correct", api.setCorrectAnswer)
	dg.POST("/commit", api.commitEdit)
}

// render answers with the current view. Request failures are part of the view;
// only client-side validation errors are surfaced as HTTP errors.
func (api *dashboardApi) render(ctx echo.Context, err error) error {
	if err != nil && core.IsValidationError(err) {
		return err
	}
	return ctx.JSON(http.StatusOK, api.ctrl.View())
}

// Handlers

func (api *dashboardApi) view(ctx echo.Context) error {
	return api.render(ctx, api.ctrl.EnsureLoaded(ctx.Request().Context()))
}

func (api *dashboardApi) selectDate(ctx echo.Context) error {
	var data DateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DateRequest")
	}
	if data.Date == "" {
		return api.render(ctx, api.ctrl.ShiftDate(ctx.Request().Context(), data.Shift))
	}
	return api.render(ctx, api.ctrl.SelectDate(ctx.Request().Context(), data.Date))
}

func (api *dashboardApi) selectLesson(ctx echo.Context) error {
	var data LessonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonRequest")
	}
	return api.render(ctx, api.ctrl.SelectLesson(ctx.Request().Context(), data.LessonID))
}

func (api *dashboardApi) selectQuiz(ctx echo.Context) error {
	var data QuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizRequest")
	}
	return api.render(ctx, api.ctrl.SelectQuiz(ctx.Request().Context(), data.QuizID))
}

func (api *dashboardApi) upload(ctx echo.Context) error {
	cfg, err := bindUploadConfig(ctx, api.ctrl.DefaultUploadConfig())
	if err != nil {
		return err
	}

	var file dashboard.Upload
	fh, err := ctx.FormFile("pdf")
	switch {
	case err == nil:
		f, oErr := fh.Open()
		if oErr != nil {
			return errors.Wrap(oErr, "opening uploaded pdf")
		}
		defer f.Close()
		file = dashboard.Upload{FileName: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Content: f}
	case errors.Cause(err) == http.ErrMissingFile, errors.Cause(err) == http.ErrNotMultipart:
		// reported by the controller's validation
	default:
		return errors.Wrap(err, "reading uploaded pdf")
	}

	return api.render(ctx, api.ctrl.UploadPDF(ctx.Request().Context(), ctx.Param("id"), file, cfg))
}

func (api *dashboardApi) feedback(ctx echo.Context) error {
	return api.render(ctx, api.ctrl.LoadFeedback(ctx.Request().Context(), ctx.Param("id")))
}

func (api *dashboardApi) approve(ctx echo.Context) error {
	return api.render(ctx, api.ctrl.ApproveQuiz(ctx.Request().Context(), ctx.Param("id")))
}

func (api *dashboardApi) updateQuiz(ctx echo.Context) error {
	var data QuestionsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuestionsRequest")
	}
	return api.render(ctx, api.ctrl.UpdateQuiz(ctx.Request().Context(), ctx.Param("id"), data.Questions))
}

func (api *dashboardApi) regenerateAnalysis(ctx echo.Context) error {
	return api.render(ctx, api.ctrl.RegenerateAnalysis(ctx.Request().Context(), ctx.Param("id")))
}

func (api *dashboardApi) statistics(ctx echo.Context) error {
	return api.render(ctx, api.ctrl.LoadStatistics(ctx.Request().Context(), ctx.Param("id")))
}

// Draft

func (api *dashboardApi) beginEdit(ctx echo.Context) error {
	_, err := api.ctrl.BeginEdit(ctx.Param("id"))
	return api.render(ctx, err)
}

func (api *dashboardApi) cancelEdit(ctx echo.Context) error {
	api.ctrl.CancelEdit()
	return api.render(ctx, nil)
}

func (api *dashboardApi) setQuestionText(ctx echo.Context) error {
	q, err := intParam(ctx, "q")
	if err != nil {
		return err
	}
	var data TextRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TextRequest")
	}
	return api.render(ctx, api.ctrl.SetQuestionText(q, data.Text))
}

func (api *dashboardApi) setOptionText(ctx echo.Context) error {
	q, err := intParam(ctx, "q")
	if err != nil {
		return err
	}
	o, err := intParam(ctx, "o")
	if err != nil {
		return err
	}
	var data TextRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TextRequest")
	}
	return api.render(ctx, api.ctrl.SetOptionText(q, o, data.Text))
}

func (api *dashboardApi) setCorrectAnswer(ctx echo.Context) error {
	q, err := intParam(ctx, "q")
	if err != nil {
		return err
	}
	var data CorrectRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CorrectRequest")
	}
	if data.Option == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "option", Error: "this field is required"})
	}
	return api.render(ctx, api.ctrl.SetCorrectAnswer(q, *data.Option))
}

func (api *dashboardApi) commitEdit(ctx echo.Context) error {
	return api.render(ctx, api.ctrl.CommitEdit(ctx.Request().Context()))
}
