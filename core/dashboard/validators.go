package dashboard

import (
	"mime"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/zugate/teacherdash/core"
)

const (
	pdfTag         = "pdf"
	pdfText        = "only PDF files are accepted"
	pdfContentType = "application/pdf"
)

// InitValidators registers the dashboard's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.InitValidators(validate, translator)

	_ = validate.RegisterValidation(pdfTag, func(fl validator.FieldLevel) bool {
		return strings.EqualFold(filepath.Ext(fl.Field().String()), ".pdf")
	})
	core.RegisterCustomTranslation(validate, translator, pdfTag, pdfText)

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		u := sl.Current().Interface().(Upload)
		if !acceptedContentType(u.ContentType) {
			sl.ReportError(u.ContentType, "pdf", "ContentType", pdfTag, "")
		}
	}, Upload{})
}

// acceptedContentType also lets through empty and generic binary content types.
func acceptedContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == pdfContentType || mt == "application/octet-stream"
}

func (c *Controller) validateUpload(lessonID string, file Upload, cfg UploadConfig) error {
	var flds []core.FieldError
	if lessonID == "" {
		flds = append(flds, core.FieldError{Field: "lessonId", Error: "lesson ID is missing"})
	}
	if file.Content == nil {
		flds = append(flds, core.FieldError{Field: "pdf", Error: "please select a PDF file"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}

	if c.validate == nil {
		return nil
	}
	if err := c.validate.Struct(file); err != nil {
		return core.TranslateValidation(err, c.translator)
	}
	if err := c.validate.Struct(cfg); err != nil {
		return core.TranslateValidation(err, c.translator)
	}
	return nil
}
