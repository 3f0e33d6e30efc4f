package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campusassist/internal/analyzer"
	"campusassist/internal/extract"
	"campusassist/internal/models"
	"campusassist/internal/remote"
)

// Extractor turns PDF bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*extract.Result, error)
}

// RemoteService is the document intelligence backend.
type RemoteService interface {
	Upload(ctx context.Context, name string, content []byte) (*remote.UploadResult, error)
	AskQuestion(ctx context.Context, question string, files []*models.UploadedFile) (*remote.Answer, error)
	SummarizeDocument(ctx context.Context, file *models.UploadedFile) (*remote.Summary, error)
	GenerateQuiz(ctx context.Context, files []*models.UploadedFile, numQuestions int) (*remote.QuizResult, error)
}

// Options configures a Session.
type Options struct {
	ID            string
	Extractor     Extractor
	Remote        RemoteService
	Logger        *zap.Logger
	SummaryLength int
	Now           func() time.Time
}

type quizState struct {
	quiz      *models.Quiz
	answers   models.AnswerSheet
	submitted bool
}

// Session is one conversation: its transcript, uploaded files and quizzes.
// At most one turn and one upload batch run at a time.
type Session struct {
	id            string
	extractor     Extractor
	remote        RemoteService
	logger        *zap.Logger
	summaryLength int
	now           func() time.Time

	sending   atomic.Bool
	uploading atomic.Bool

	mu         sync.Mutex
	messages   []*models.Message
	files      []*models.UploadedFile
	quizzes    map[string]*quizState
	lastActive time.Time
}

// New creates a session whose transcript opens with the welcome message.
func New(opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.NewPDFExtractor(nil, logger)
	}
	s := &Session{
		id:            id,
		extractor:     extractor,
		remote:        opts.Remote,
		logger:        logger.With(zap.String("session_id", id)),
		summaryLength: opts.SummaryLength,
		now:           now,
		quizzes:       make(map[string]*quizState),
		lastActive:    now(),
	}
	s.messages = append(s.messages, s.newMessage(models.RoleAssistant, welcomeMessage))
	return s
}

func (s *Session) ID() string {
	return s.id
}

// LastActive reports when the session last handled a request.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Messages returns a snapshot of the transcript.
func (s *Session) Messages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Clone()
	}
	return out
}

// Files returns a snapshot of the uploaded files in upload order.
func (s *Session) Files() []*models.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filesLocked()
}

func (s *Session) filesLocked() []*models.UploadedFile {
	out := make([]*models.UploadedFile, len(s.files))
	for i, f := range s.files {
		out[i] = f.Clone()
	}
	return out
}

// Send runs one conversation turn and returns the assistant reply.
func (s *Session) Send(ctx context.Context, text string) (*models.Message, error) {
	return s.SendFunc(ctx, text, nil)
}

// SendFunc is Send with a callback that receives the user message as soon as
// it is recorded, before the reply is produced.
func (s *Session) SendFunc(ctx context.Context, text string, accepted func(*models.Message)) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid(ErrEmptyMessage, "")
	}
	if !s.sending.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.sending.Store(false)

	userMsg := s.append(s.newMessage(models.RoleUser, text))
	if accepted != nil {
		accepted(userMsg)
	}
	reply := s.respond(ctx, text)
	return s.append(reply), nil
}

func (s *Session) respond(ctx context.Context, text string) (reply *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("turn panicked", zap.Any("panic", r))
			reply = s.newMessage(models.RoleAssistant, genericErrorMessage)
		}
	}()

	intent := analyzer.ClassifyIntent(text)
	files := s.Files()
	if len(files) == 0 {
		return s.newMessage(models.RoleAssistant, noFilesMessages[intent.Kind])
	}

	var err error
	switch intent.Kind {
	case models.IntentSummarize:
		reply, err = s.summarize(ctx, text, files)
	case models.IntentQuiz:
		reply, err = s.generateQuiz(ctx, files, intent.NumQuestions)
	default:
		reply, err = s.answer(ctx, text, files)
	}
	if err != nil {
		s.logger.Error("turn failed", zap.String("intent", string(intent.Kind)), zap.Error(err))
		return s.newMessage(models.RoleAssistant, genericErrorMessage)
	}
	return reply
}

func (s *Session) summarize(ctx context.Context, text string, files []*models.UploadedFile) (*models.Message, error) {
	target := analyzer.ResolveFile(text, files)
	if !target.IsPDF() {
		res, err := s.remote.SummarizeDocument(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", target.Name, err)
		}
		msg := s.newMessage(models.RoleAssistant, remoteSummaryReply(target.Name, res.Summary))
		msg.File = target
		return msg, nil
	}

	if !target.HasText() {
		res, err := s.extract(ctx, target.Content())
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", target.Name, err)
		}
		target.ExtractedText = res.Text
		target.PageCount = res.PageCount
		s.recordExtraction(target)
	}

	summary := emptyDocumentText
	if strings.TrimSpace(target.ExtractedText) != "" {
		summary = analyzer.Summarize(target.ExtractedText, s.summaryLength)
	}
	reply := pdfSummaryReply(target.Name, target.PageCount, summary, utf8.RuneCountInString(target.ExtractedText))
	msg := s.newMessage(models.RoleAssistant, reply)
	msg.File = target.Clone()
	msg.FullText = target.ExtractedText
	return msg, nil
}

func (s *Session) generateQuiz(ctx context.Context, files []*models.UploadedFile, n int) (*models.Message, error) {
	res, err := s.remote.GenerateQuiz(ctx, files, n)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	quiz := res.Quiz
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if err := quiz.Validate(); err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	if len(quiz.Questions) != n {
		s.logger.Warn("quiz size differs from request", zap.Int("requested", n), zap.Int("received", len(quiz.Questions)))
	}

	s.mu.Lock()
	s.quizzes[quiz.ID] = &quizState{quiz: &quiz, answers: models.AnswerSheet{}}
	s.mu.Unlock()

	msg := s.newMessage(models.RoleAssistant, quizReply(len(quiz.Questions)))
	msg.Quiz = quiz.Clone()
	return msg, nil
}

func (s *Session) answer(ctx context.Context, question string, files []*models.UploadedFile) (*models.Message, error) {
	var texts []string
	for _, f := range files {
		if f.HasText() {
			texts = append(texts, f.ExtractedText)
		}
	}
	if len(texts) > 0 {
		relevant := analyzer.FindRelevant(question, strings.Join(texts, "\n\n"))
		return s.newMessage(models.RoleAssistant, qaPrefix+relevant), nil
	}
	res, err := s.remote.AskQuestion(ctx, question, files)
	if err != nil {
		return nil, fmt.Errorf("ask question: %w", err)
	}
	return s.newMessage(models.RoleAssistant, res.Answer), nil
}

// extract runs the extractor, turning a panic into an error.
func (s *Session) extract(ctx context.Context, data []byte) (res *extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return s.extractor.Extract(ctx, data)
}

// recordExtraction stores extraction output on the live record, unless the
// file was removed or replaced meanwhile.
func (s *Session) recordExtraction(file *models.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.Name == file.Name && f.ID == file.ID {
			f.ExtractedText = file.ExtractedText
			f.PageCount = file.PageCount
			return
		}
	}
}

// RemoveFile drops a file by name and notes it in the transcript.
func (s *Session) RemoveFile(name string) (*models.Message, error) {
	s.mu.Lock()
	idx := -1
	for i, f := range s.files {
		if f.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, invalid(ErrFileNotFound, name)
	}
	s.files = append(s.files[:idx], s.files[idx+1:]...)
	s.mu.Unlock()

	return s.append(s.newMessage(models.RoleAssistant, removedReply(name))), nil
}

// Download returns the file name and full text attached to a summary message.
func (s *Session) Download(messageID string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID != messageID {
			continue
		}
		if m.FullText == "" {
			return "", "", invalid(ErrNoDownload, messageID)
		}
		name := "document"
		if m.File != nil {
			name = m.File.Name
		}
		return "summary_" + name + ".txt", m.FullText, nil
	}
	return "", "", invalid(ErrMessageNotFound, messageID)
}

func (s *Session) newMessage(role models.Role, content string) *models.Message {
	return &models.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
}

// append records msg and returns a copy for the caller.
func (s *Session) append(msg *models.Message) *models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.lastActive = s.now()
	return msg.Clone()
}

// IsValidation reports whether err is a rejected request rather than a failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
