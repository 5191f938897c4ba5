package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	errAnalysisNotGenerated = errors.New("failed to generate analysis")
)

// Mutation operations
const (
	OpApprove = "approve"
	OpUpdate  = "update"
)

// Mutation describes the last confirmed (or failed) write on a quiz.
type Mutation struct {
	QuizID string `json:"quizId"`
	Op     string `json:"op"`
}

type (
	Deps struct {
		API        API
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Defaults   UploadConfig
	}

	// View is a deep copy of the dashboard state, safe to render.
	View struct {
		Date       string                     `json:"date"`
		LessonID   string                     `json:"lessonId,omitempty"`
		QuizID     string                     `json:"quizId,omitempty"`
		Lessons    Stage[[]Lesson]            `json:"lessons"`
		Quizzes    Stage[[]Quiz]              `json:"quizzes"`
		Upload     Stage[string]              `json:"upload"`
		Analysis   Stage[QuizAnalysis]        `json:"analysis"`
		Generating bool                       `json:"generating"`
		Statistics Stage[[]QuizStatistics]    `json:"statistics"`
		Feedback   Stage[Feedback]            `json:"feedback"`
		Mutation   Stage[Mutation]            `json:"mutation"`
		Mutations  map[string]Stage[Mutation] `json:"mutations,omitempty"`
		Draft      *Quiz                      `json:"draft,omitempty"`
	}
)

// Controller orchestrates the dependent fetch chain date → lessons → quizzes → analysis.
// Reads and writes go through the API outside the lock; results are applied only while
// the key that produced them is still the current selection.
type Controller struct {
	mu         sync.Mutex
	api        API
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	defaults   UploadConfig

	date     string
	lessonID string
	quizID   string

	lessons    Stage[[]Lesson]
	quizzes    Stage[[]Quiz]
	upload     Stage[string]
	analysis   Stage[QuizAnalysis]
	generating bool
	statistics Stage[[]QuizStatistics]
	feedback   Stage[Feedback]
	draft      *Quiz

	// one stage per quiz, so overlapping writes on different quizzes each keep their outcome
	mutations    map[string]*Stage[Mutation]
	lastMutation string
}

func NewController(deps Deps) *Controller {
	defaults := deps.Defaults
	if defaults.NumQuestions == 0 {
		defaults.NumQuestions = 5
	}
	if defaults.NumAnswers == 0 {
		defaults.NumAnswers = 4
	}
	return &Controller{
		api:        deps.API,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		defaults:   defaults,
	}
}

// DefaultUploadConfig is used when the upload form leaves the numbers untouched.
func (c *Controller) DefaultUploadConfig() UploadConfig {
	return c.defaults
}

// =========================================================================
// Lessons

// EnsureLoaded selects today's date the first time the dashboard is opened.
func (c *Controller) EnsureLoaded(ctx context.Context) error {
	c.mu.Lock()
	date := c.date
	c.mu.Unlock()
	if date != "" {
		return nil
	}
	return c.SelectDate(ctx, NowFunc().Format(DateLayout))
}

// ShiftDate moves the selected date by days (negative for the past).
func (c *Controller) ShiftDate(ctx context.Context, days int) error {
	c.mu.Lock()
	date := c.date
	c.mu.Unlock()

	d := NowFunc()
	if date != "" {
		var err error
		if d, err = ParseDate(date); err != nil {
			return err
		}
	}
	return c.SelectDate(ctx, d.AddDate(0, 0, days).Format(DateLayout))
}

// SelectDate makes date the current selection and (re)loads its lessons.
// Changing the date drops the lesson selection and everything below it.
func (c *Controller) SelectDate(ctx context.Context, date string) error {
	d, err := ParseDate(date)
	if err != nil {
		return err
	}
	key := d.Format(DateLayout)

	c.mu.Lock()
	if key != c.date {
		c.date = key
		c.clearLessonLocked()
	}
	ticket := c.lessons.start(key)
	c.mu.Unlock()

	lessons, err := c.api.GetLessons(ctx, key)
	if lessons == nil && err == nil {
		lessons = []Lesson{}
	}

	c.mu.Lock()
	applied := c.date == key && c.lessons.resolve(ticket, lessons, err)
	c.mu.Unlock()

	return c.outcome(applied, "lessons", key, err)
}

// =========================================================================
// Quizzes

// SelectLesson makes lessonID the current lesson and loads its quizzes. An empty id clears the selection.
func (c *Controller) SelectLesson(ctx context.Context, lessonID string) error {
	lessonID = core.CleanString(lessonID)

	c.mu.Lock()
	if lessonID == "" {
		c.clearLessonLocked()
		c.mu.Unlock()
		return nil
	}
	if lessonID != c.lessonID {
		c.clearLessonLocked()
		c.lessonID = lessonID
	}
	c.mu.Unlock()

	return c.loadQuizzes(ctx, lessonID)
}

func (c *Controller) loadQuizzes(ctx context.Context, lessonID string) error {
	c.mu.Lock()
	if lessonID != c.lessonID {
		c.mu.Unlock()
		return nil
	}
	ticket := c.quizzes.start(lessonID)
	c.mu.Unlock()

	quizzes, err := c.api.GetQuizzes(ctx, lessonID)
	if quizzes == nil && err == nil {
		quizzes = []Quiz{}
	}

	c.mu.Lock()
	applied := c.lessonID == lessonID && c.quizzes.resolve(ticket, quizzes, err)
	c.mu.Unlock()

	return c.outcome(applied, "quizzes", lessonID, err)
}

// UploadPDF sends a lesson PDF for quiz generation, then refreshes the lesson's quizzes
// if it is still the selected one. Invalid input is rejected before any request is made.
func (c *Controller) UploadPDF(ctx context.Context, lessonID string, file Upload, cfg UploadConfig) error {
	lessonID = core.CleanString(lessonID)
	if err := c.validateUpload(lessonID, file, cfg); err != nil {
		return err
	}

	c.mu.Lock()
	ticket := c.upload.start(lessonID)
	c.mu.Unlock()

	err := c.api.UploadPDF(ctx, lessonID, file, cfg)

	c.mu.Lock()
	applied := c.upload.resolve(ticket, file.FileName, err)
	c.mu.Unlock()

	if err != nil {
		return c.outcome(applied, "upload", lessonID, err)
	}
	return c.loadQuizzes(ctx, lessonID)
}

// ApproveQuiz marks the quiz approved locally once the backend has confirmed it.
func (c *Controller) ApproveQuiz(ctx context.Context, quizID string) error {
	quizID = core.CleanString(quizID)
	if quizID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "quizId", Error: "this field is required"})
	}

	c.mu.Lock()
	ticket := c.startMutationLocked(quizID)
	c.mu.Unlock()

	err := c.api.ApproveQuiz(ctx, quizID)

	c.mu.Lock()
	applied := c.resolveMutationLocked(quizID, ticket, Mutation{QuizID: quizID, Op: OpApprove}, err)
	if err == nil {
		for i := range c.quizzes.Data {
			if c.quizzes.Data[i].ID == quizID {
				c.quizzes.Data[i].Approved = true
			}
		}
	}
	c.mu.Unlock()

	return c.outcome(applied, "approve", quizID, err)
}

// UpdateQuiz persists questions and replaces the cached quiz with the server's copy.
// A draft of the same quiz is discarded.
func (c *Controller) UpdateQuiz(ctx context.Context, quizID string, questions []Question) error {
	quizID = core.CleanString(quizID)
	if quizID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "quizId", Error: "this field is required"})
	}
	if err := ValidateQuestions(questions); err != nil {
		return err
	}

	c.mu.Lock()
	ticket := c.startMutationLocked(quizID)
	c.mu.Unlock()

	updated, err := c.api.UpdateQuiz(ctx, quizID, questions)
	if err == nil && updated.ID == "" {
		updated.ID = quizID
	}

	c.mu.Lock()
	applied := c.resolveMutationLocked(quizID, ticket, Mutation{QuizID: quizID, Op: OpUpdate}, err)
	if err == nil {
		for i := range c.quizzes.Data {
			if c.quizzes.Data[i].ID == quizID {
				c.quizzes.Data[i] = updated.Clone()
			}
		}
		if c.draft != nil && c.draft.ID == quizID {
			c.draft = nil
		}
	}
	c.mu.Unlock()

	return c.outcome(applied, "update", quizID, err)
}

// =========================================================================
// Analysis, statistics & feedback

// SelectQuiz makes quizID the current quiz and loads its analysis, generating it when the
// backend has none yet. An empty id clears the selection.
func (c *Controller) SelectQuiz(ctx context.Context, quizID string) error {
	quizID = core.CleanString(quizID)

	c.mu.Lock()
	if quizID != c.quizID {
		c.clearQuizLocked()
		c.quizID = quizID
	}
	c.mu.Unlock()

	if quizID == "" {
		return nil
	}
	return c.loadAnalysis(ctx, quizID, false)
}

// RegenerateAnalysis asks the backend for a fresh analysis of quizID, then fetches it.
func (c *Controller) RegenerateAnalysis(ctx context.Context, quizID string) error {
	quizID = core.CleanString(quizID)
	if quizID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "quizId", Error: "this field is required"})
	}

	c.mu.Lock()
	if quizID != c.quizID {
		c.clearQuizLocked()
		c.quizID = quizID
	}
	c.mu.Unlock()

	return c.loadAnalysis(ctx, quizID, true)
}

// loadAnalysis reads the report; on ErrNotFound (or when forced) it generates one and reads again, once.
func (c *Controller) loadAnalysis(ctx context.Context, quizID string, generate bool) error {
	c.mu.Lock()
	if quizID != c.quizID {
		c.mu.Unlock()
		return nil
	}
	ticket := c.analysis.start(quizID)
	c.mu.Unlock()

	var report QuizAnalysis
	var err error
	if !generate {
		report, err = c.api.GetQuizAnalysis(ctx, quizID)
		generate = errors.Cause(err) == ErrNotFound
	}
	if generate {
		c.mu.Lock()
		if c.analysis.current(ticket) {
			c.generating = true
		}
		c.mu.Unlock()

		if err = c.api.GenerateQuizAnalysis(ctx, quizID); err == nil {
			report, err = c.api.GetQuizAnalysis(ctx, quizID)
			if errors.Cause(err) == ErrNotFound {
				err = errAnalysisNotGenerated
			}
		}
	}
	if err == nil {
		err = report.Validate()
	}

	c.mu.Lock()
	applied := c.quizID == quizID && c.analysis.resolve(ticket, report, err)
	if applied {
		c.generating = false
	}
	c.mu.Unlock()

	return c.outcome(applied, "analysis", quizID, err)
}

// LoadStatistics makes quizID the current quiz and loads its per-question answer counts.
func (c *Controller) LoadStatistics(ctx context.Context, quizID string) error {
	quizID = core.CleanString(quizID)
	if quizID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "quizId", Error: "this field is required"})
	}

	c.mu.Lock()
	if quizID != c.quizID {
		c.clearQuizLocked()
		c.quizID = quizID
	}
	ticket := c.statistics.start(quizID)
	c.mu.Unlock()

	stats, err := c.api.GetQuizStatistics(ctx, quizID)
	if stats == nil && err == nil {
		stats = []QuizStatistics{}
	}

	c.mu.Lock()
	applied := c.quizID == quizID && c.statistics.resolve(ticket, stats, err)
	c.mu.Unlock()

	return c.outcome(applied, "statistics", quizID, err)
}

// LoadFeedback makes lessonID the current lesson and loads its students' feedback summary.
func (c *Controller) LoadFeedback(ctx context.Context, lessonID string) error {
	lessonID = core.CleanString(lessonID)
	if lessonID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "lessonId", Error: "lesson ID is missing"})
	}

	c.mu.Lock()
	if lessonID != c.lessonID {
		c.clearLessonLocked()
		c.lessonID = lessonID
	}
	ticket := c.feedback.start(lessonID)
	c.mu.Unlock()

	fb, err := c.api.GetFeedback(ctx, lessonID)

	c.mu.Lock()
	applied := c.lessonID == lessonID && c.feedback.resolve(ticket, fb, err)
	c.mu.Unlock()

	return c.outcome(applied, "feedback", lessonID, err)
}

// =========================================================================
// State

// Reset forgets everything, e.g. after logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.date = ""
	c.lessons.reset()
	c.upload.reset()
	c.mutations = nil
	c.lastMutation = ""
	c.clearLessonLocked()
	c.mu.Unlock()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Date:       c.date,
		LessonID:   c.lessonID,
		QuizID:     c.quizID,
		Lessons:    c.lessons,
		Quizzes:    c.quizzes,
		Upload:     c.upload,
		Analysis:   c.analysis,
		Generating: c.generating,
		Statistics: c.statistics,
		Feedback:   c.feedback,
	}
	if st, ok := c.mutations[c.lastMutation]; ok {
		v.Mutation = *st
	}
	if len(c.mutations) > 0 {
		v.Mutations = make(map[string]Stage[Mutation], len(c.mutations))
		for id, st := range c.mutations {
			v.Mutations[id] = *st
		}
	}
	v.Lessons.Data = cloneLessons(c.lessons.Data)
	v.Quizzes.Data = cloneQuizzes(c.quizzes.Data)
	v.Analysis.Data = c.analysis.Data.clone()
	v.Statistics.Data = cloneStatistics(c.statistics.Data)
	if c.draft != nil {
		draft := c.draft.Clone()
		v.Draft = &draft
	}
	return v
}

// startMutationLocked opens a write on quizID; it also becomes the mutation shown by View.Mutation.
func (c *Controller) startMutationLocked(quizID string) string {
	if c.mutations == nil {
		c.mutations = make(map[string]*Stage[Mutation])
	}
	st, ok := c.mutations[quizID]
	if !ok {
		st = new(Stage[Mutation])
		c.mutations[quizID] = st
	}
	c.lastMutation = quizID
	return st.start(quizID)
}

func (c *Controller) resolveMutationLocked(quizID, ticket string, m Mutation, err error) bool {
	st, ok := c.mutations[quizID]
	return ok && st.resolve(ticket, m, err)
}

func (c *Controller) clearLessonLocked() {
	c.lessonID = ""
	c.quizzes.reset()
	c.feedback.reset()
	c.draft = nil
	c.clearQuizLocked()
}

func (c *Controller) clearQuizLocked() {
	c.quizID = ""
	c.analysis.reset()
	c.generating = false
	c.statistics.reset()
}

// outcome logs the result of a stage request and returns its error.
// Stale results are dropped silently: a newer request owns the stage.
func (c *Controller) outcome(applied bool, stage, key string, err error) error {
	if !applied {
		c.debug(fmt.Sprintf("discarding stale %s response for %q", stage, key))
		return nil
	}
	if err != nil {
		if c.logger != nil {
			c.logger.Warn(fmt.Sprintf("loading %s for %q failed", stage, key), err)
		}
		return errors.Wrapf(err, "%s %s", stage, key)
	}
	return nil
}

func (c *Controller) debug(msg string) {
	if c.logger != nil {
		c.logger.Debug(msg)
	}
}

func (a QuizAnalysis) Validate() error {
	if a.AverageScore < 0 || a.AverageScore > 100 {
		return fmt.Errorf("average score %.1f is out of range", a.AverageScore)
	}
	if a.TotalStudents < 0 {
		return fmt.Errorf("total students %d is negative", a.TotalStudents)
	}
	return nil
}

func (a QuizAnalysis) clone() QuizAnalysis {
	c := a
	if a.AnalysisPoints != nil {
		c.AnalysisPoints = append([]AnalysisPoint(nil), a.AnalysisPoints...)
	}
	if a.RecommendedFocus != nil {
		c.RecommendedFocus = append([]string(nil), a.RecommendedFocus...)
	}
	return c
}

func cloneLessons(lessons []Lesson) []Lesson {
	if lessons == nil {
		return nil
	}
	out := make([]Lesson, len(lessons))
	for i, l := range lessons {
		out[i] = l
		if l.QuizIDs != nil {
			out[i].QuizIDs = append([]string(nil), l.QuizIDs...)
		}
	}
	return out
}

func cloneQuizzes(quizzes []Quiz) []Quiz {
	if quizzes == nil {
		return nil
	}
	out := make([]Quiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = q.Clone()
	}
	return out
}

func cloneStatistics(stats []QuizStatistics) []QuizStatistics {
	if stats == nil {
		return nil
	}
	out := make([]QuizStatistics, len(stats))
	for i, s := range stats {
		out[i] = s
		if s.CommonWrongAnswers != nil {
			out[i].CommonWrongAnswers = append([]WrongAnswer(nil), s.CommonWrongAnswers...)
		}
	}
	return out
}
