package echoapi

import (
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenRequest struct {
		Token string `json:"token" validate:"required"`
	}

	SessionResponse struct {
		App           string          `json:"app,omitempty"`
		Authenticated bool            `json:"authenticated"`
		User          session.Subject `json:"user"`
		Redirect      string          `json:"redirect,omitempty"`
	}

	redirectResponse struct {
		Redirect string `json:"redirect"`
	}

	// DateRequest selects a date, or shifts the current one by Shift days when Date is empty.
	DateRequest struct {
		Date  string `json:"date"`
		Shift int    `json:"shift"`
	}

	LessonRequest struct {
		LessonID string `json:"lessonId"`
	}

	QuizRequest struct {
		QuizID string `json:"quizId"`
	}

	QuestionsRequest struct {
		Questions []dashboard.Question `json:"questions"`
	}

	TextRequest struct {
		Text string `json:"text"`
	}

	CorrectRequest struct {
		Option *int `json:"option"`
	}
)

func validateRequest(validate *validator.Validate, translator ut.Translator, req interface{}) error {
	return core.TranslateValidation(validate.Struct(req), translator)
}

// intParam reads a non-negative integer path parameter.
func intParam(ctx echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(ctx.Param(name))
	if err != nil || n < 0 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a non-negative integer"})
	}
	return n, nil
}

// bindUploadConfig reads numQuestions & numAnswers from the form, defaulting absent ones.
func bindUploadConfig(ctx echo.Context, defaults dashboard.UploadConfig) (dashboard.UploadConfig, error) {
	cfg := defaults
	var flds []core.FieldError
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"numQuestions", &cfg.NumQuestions},
		{"numAnswers", &cfg.NumAnswers},
	} {
		v := ctx.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			flds = append(flds, core.FieldError{Field: f.name, Error: "must be a number"})
			continue
		}
		*f.dst = n
	}
	if len(flds) > 0 {
		return cfg, core.NewValidationError(nil, flds...)
	}
	return cfg, nil
}
