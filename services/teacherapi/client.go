package teacherapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
)

const requestIDHeader = "X-Request-ID"

// TokenSource provides the bearer token attached to every teacher request.
type TokenSource interface {
	Token() (string, bool)
}

// APIError is returned for transport failures and non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to the teacher REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  core.Logger
}

var _ dashboard.API = (*Client)(nil)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	Logger     core.Logger
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		tokens:  opts.Tokens,
		logger:  opts.Logger,
	}
}

// =========================================================================
// Auth

// Login exchanges credentials for a token. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &APIError{Message: "login response carries no token"}
	}
	return resp.Token, nil
}

// =========================================================================
// Lessons & quizzes

func (c *Client) GetLessons(ctx context.Context, date string) ([]dashboard.Lesson, error) {
	var lessons []dashboard.Lesson
	path := "/teacher/lessons?" + url.Values{"date": {date}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &lessons, true); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (c *Client) GetQuizzes(ctx context.Context, lessonID string) ([]dashboard.Quiz, error) {
	var resp struct {
		Quizzes []dashboard.Quiz `json:"quizzes"`
	}
	path := "/teacher/lessons/" + url.PathEscape(lessonID) + "/quizzes"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Quizzes, nil
}

// UploadPDF posts the file as multipart form data with the generation settings.
func (c *Client) UploadPDF(ctx context.Context, lessonID string, file dashboard.Upload, cfg dashboard.UploadConfig) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	ct := file.ContentType
	if ct == "" {
		ct = "application/pdf"
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdf"; filename=%q`, file.FileName))
	hdr.Set("Content-Type", ct)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return errors.Wrap(err, "creating pdf part")
	}
	if _, err = io.Copy(part, file.Content); err != nil {
		return errors.Wrap(err, "reading pdf")
	}
	_ = mw.WriteField("numQuestions", strconv.Itoa(cfg.NumQuestions))
	_ = mw.WriteField("numAnswers", strconv.Itoa(cfg.NumAnswers))
	if err = mw.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}

	path := "/teacher/lessons/" + url.PathEscape(lessonID) + "/upload"
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf, true)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, nil)
}

func (c *Client) UpdateQuiz(ctx context.Context, quizID string, questions []dashboard.Question) (dashboard.Quiz, error) {
	var quiz dashboard.Quiz
	body := map[string]interface{}{"questions": questions}
	if err := c.doJSON(ctx, http.MethodPut, "/teacher/quizzes/"+url.PathEscape(quizID), body, &quiz, true); err != nil {
		return dashboard.Quiz{}, err
	}
	return quiz, nil
}

func (c *Client) ApproveQuiz(ctx context.Context, quizID string) error {
	path := "/teacher/quizzes/" + url.PathEscape(quizID) + "/approve"
	return c.doJSON(ctx, http.MethodPost, path, nil, nil, true)
}

// =========================================================================
// Analysis, statistics & feedback

// GetQuizAnalysis returns dashboard.ErrNotFound while no analysis was generated.
func (c *Client) GetQuizAnalysis(ctx context.Context, quizID string) (dashboard.QuizAnalysis, error) {
	var resp struct {
		Report *dashboard.QuizAnalysis `json:"report"`
	}
	path := "/teacher/quizzes/" + url.PathEscape(quizID) + "/analyze"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return dashboard.QuizAnalysis{}, err
	}
	if resp.Report == nil {
		return dashboard.QuizAnalysis{}, dashboard.ErrNotFound
	}
	return *resp.Report, nil
}

func (c *Client) GenerateQuizAnalysis(ctx context.Context, quizID string) error {
	path := "/teacher/quizzes/" + url.PathEscape(quizID) + "/generate_analyze"
	return c.doJSON(ctx, http.MethodPost, path, nil, nil, true)
}

func (c *Client) GetQuizStatistics(ctx context.Context, quizID string) ([]dashboard.QuizStatistics, error) {
	var stats []dashboard.QuizStatistics
	path := "/teacher/quizzes/" + url.PathEscape(quizID) + "/statistics"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &stats, true); err != nil {
		return nil, err
	}
	return stats, nil
}

type feedbackResponse struct {
	Lesson  string `json:"lesson"`
	Summary struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"summary"`
}

// GetFeedback extracts the generated summary text from the completion the backend returns.
func (c *Client) GetFeedback(ctx context.Context, lessonID string) (dashboard.Feedback, error) {
	var resp feedbackResponse
	path := "/teacher/feedback?" + url.Values{"lessonId": {lessonID}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return dashboard.Feedback{}, err
	}
	if len(resp.Summary.Choices) == 0 || resp.Summary.Choices[0].Message.Content == "" {
		return dashboard.Feedback{}, &APIError{Status: http.StatusOK, Message: "feedback summary is unavailable"}
	}
	lesson := resp.Lesson
	if lesson == "" {
		lesson = lessonID
	}
	return dashboard.Feedback{LessonID: lesson, Summary: resp.Summary.Choices[0].Message.Content}, nil
}

// =========================================================================
// Transport

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}, auth bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body, auth)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, auth bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if auth && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "reading response: " + err.Error()}
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(dashboard.ErrNotFound, "%s %s", req.Method, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp, body)}
		if c.logger != nil {
			c.logger.Debug(fmt.Sprintf("%s %s failed", req.Method, req.URL.Path), map[string]interface{}{
				"requestId": req.Header.Get(requestIDHeader),
				"status":    resp.StatusCode,
			})
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// errorMessage prefers the backend's {"error": "..."} message over the status text.
func errorMessage(resp *http.Response, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
