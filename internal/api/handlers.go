package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusassist/internal/models"
	"campusassist/internal/registry"
	"campusassist/internal/session"
)

type SessionStore interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
	Delete(id string) bool
}

// Handler wires HTTP routes to the conversation sessions.
type Handler struct {
	sessions       SessionStore
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(sessions SessionStore, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:       sessions,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	api.POST("/sessions", h.createSession)

	sessionRoutes := api.Group("/sessions/:id")
	sessionRoutes.Use(h.loadSession())
	sessionRoutes.DELETE("", h.deleteSession)
	sessionRoutes.GET("/messages", h.getMessages)
	sessionRoutes.POST("/messages", h.captureInput)
	sessionRoutes.GET("/messages/:message_id/download", h.downloadText)
	sessionRoutes.GET("/files", h.getFiles)
	sessionRoutes.POST("/uploads", h.filesUpload)
	sessionRoutes.DELETE("/files/:name", h.removeFile)
	sessionRoutes.POST("/quizzes/:quiz_id/answers", h.selectAnswer)
	sessionRoutes.POST("/quizzes/:quiz_id/submit", h.submitQuiz)
	sessionRoutes.POST("/quizzes/:quiz_id/reset", h.resetQuiz)
}

const sessionKey = "campus.session"

// loadSession resolves :id to a live session
func (h *Handler) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		se, err := h.sessions.Get(c.Param("id"))
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Set(sessionKey, se)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, registry.ErrSessionNotFound),
		errors.Is(err, session.ErrFileNotFound),
		errors.Is(err, session.ErrQuizNotFound),
		errors.Is(err, session.ErrQuestionNotFound),
		errors.Is(err, session.ErrMessageNotFound):
		return http.StatusNotFound
	case session.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) createSession(c *gin.Context) {
	se := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": se.ID(),
		"messages":   se.Messages(),
	})
}

func (h *Handler) deleteSession(c *gin.Context) {
	h.sessions.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) getMessages(c *gin.Context) {
	se := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"session_id": se.ID(),
		"messages":   se.Messages(),
	})
}

func (h *Handler) getFiles(c *gin.Context) {
	files := currentSession(c).Files()
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// User input interface
type inputRequest struct {
	Content string `json:"content"`
}

func (h *Handler) captureInput(c *gin.Context) {
	se := currentSession(c)
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": session.ErrEmptyMessage.Error()})
		return
	}

	// SSE Request construction
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	var (
		stream  *eventStream
		userMsg *models.Message
	)
	reply, err := se.SendFunc(c.Request.Context(), req.Content, func(m *models.Message) {
		userMsg = m
		stream = startEventStream(c, flusher)
		_ = stream.send("ack", gin.H{"message": m})
	})
	if err != nil {
		if stream == nil {
			h.abortWithError(c, err)
			return
		}
		_ = stream.send("error", gin.H{"message": err.Error()})
		return
	}
	_ = stream.send("done", gin.H{
		"user_message": userMsg,
		"ai_message":   reply,
	})
}

type eventStream struct {
	w       gin.ResponseWriter
	flusher http.Flusher
}

func startEventStream(c *gin.Context, flusher http.Flusher) *eventStream {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &eventStream{w: c.Writer, flusher: flusher}
}

func (s *eventStream) send(event string, payload interface{}) error {
	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return err
		}
	}
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (h *Handler) downloadText(c *gin.Context) {
	name, text, err := currentSession(c).Download(c.Param("message_id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *Handler) removeFile(c *gin.Context) {
	se := currentSession(c)
	msg, err := se.RemoveFile(c.Param("name"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msg,
		"files":   se.Files(),
	})
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Option     string `json:"option"`
}

func (h *Handler) selectAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := currentSession(c).SelectAnswer(c.Param("quiz_id"), req.QuestionID, req.Option); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitQuiz(c *gin.Context) {
	score, err := currentSession(c).SubmitQuiz(c.Param("quiz_id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

func (h *Handler) resetQuiz(c *gin.Context) {
	if err := currentSession(c).ResetQuiz(c.Param("quiz_id")); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

const defaultMaxUploadBytes = 20 << 20 // 20 MB per request

func (h *Handler) filesUpload(c *gin.Context) {
	se := currentSession(c)
	if c.Request.ContentLength > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	headers = append(headers, c.Request.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	inputs := make([]session.UploadInput, 0, len(headers))
	for _, fh := range headers {
		content, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
			return
		}
		inputs = append(inputs, session.UploadInput{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  content,
		})
	}

	messages, err := se.Upload(c.Request.Context(), inputs)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"messages": messages,
		"files":    se.Files(),
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
