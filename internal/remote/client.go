package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusassist/internal/models"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

const maxResponseBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL string
	// Fallback substitutes mock payloads when the service is unreachable or
	// answers with a 5xx.
	Fallback   bool
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// UploadResult is the server's record of an uploaded document.
type UploadResult struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploadedAt"`
	Mocked     bool   `json:"-"`
}

type Answer struct {
	Answer string `json:"answer"`
	Mocked bool   `json:"-"`
}

type Summary struct {
	Summary string `json:"summary"`
	Mocked  bool   `json:"-"`
}

type QuizResult struct {
	Quiz   models.Quiz `json:"quiz"`
	Mocked bool        `json:"-"`
}

// Client talks to the document intelligence service.
type Client struct {
	baseURL  string
	fallback bool
	http     *http.Client
	logger   *zap.Logger
	now      func() time.Time
}

// New builds a Client from opts, filling in defaults.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  baseURL,
		fallback: opts.Fallback,
		http:     httpClient,
		logger:   logger,
		now:      time.Now,
	}
}

// Upload sends a document as multipart field "file".
func (c *Client) Upload(ctx context.Context, name string, content []byte) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("remote upload: build form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("remote upload: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("remote upload: build form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("remote upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResult
	if err := c.do(ctx, "upload", req, &out); err != nil {
		if c.useMock("upload", err) {
			return mockUpload(name, int64(len(content)), c.now()), nil
		}
		return nil, err
	}
	return &out, nil
}

// AskQuestion asks the service to answer question from the given files.
func (c *Client) AskQuestion(ctx context.Context, question string, files []*models.UploadedFile) (*Answer, error) {
	payload := map[string]any{
		"question": question,
		"fileIds":  fileIDs(files),
	}
	var out Answer
	if err := c.postJSON(ctx, "qa", "/qa", payload, &out); err != nil {
		if c.useMock("qa", err) {
			return mockAnswer(question), nil
		}
		return nil, err
	}
	return &out, nil
}

// SummarizeDocument asks the service for a summary of one file.
func (c *Client) SummarizeDocument(ctx context.Context, file *models.UploadedFile) (*Summary, error) {
	payload := map[string]any{"fileId": file.RemoteID()}
	var out Summary
	if err := c.postJSON(ctx, "summarize", "/summarize", payload, &out); err != nil {
		if c.useMock("summarize", err) {
			return mockSummary(file.Name), nil
		}
		return nil, err
	}
	return &out, nil
}

// GenerateQuiz asks the service for a quiz of numQuestions questions.
func (c *Client) GenerateQuiz(ctx context.Context, files []*models.UploadedFile, numQuestions int) (*QuizResult, error) {
	payload := map[string]any{
		"fileIds":      fileIDs(files),
		"numQuestions": numQuestions,
	}
	var out QuizResult
	if err := c.postJSON(ctx, "quiz", "/quiz", payload, &out); err != nil {
		if c.useMock("quiz", err) {
			return mockQuiz(numQuestions, c.now()), nil
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) useMock(op string, err error) bool {
	if !c.fallback || !IsUnavailable(err) {
		return false
	}
	c.logger.Warn("remote service unavailable, using mock response", zap.String("op", op), zap.Error(err))
	return true
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("remote %s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("remote %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, op, req, out)
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: op, Err: err}
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &ServerError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("remote %s: decode response: %w", op, err)
	}
	c.logger.Debug("remote call completed", zap.String("op", op), zap.Int("status", resp.StatusCode))
	return nil
}

func fileIDs(files []*models.UploadedFile) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.RemoteID())
	}
	return ids
}
