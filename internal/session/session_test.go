package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"campusassist/internal/extract"
	"campusassist/internal/models"
	"campusassist/internal/remote"
)

// callLog records calls across fakes so tests can assert their interleaving.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeRemote struct {
	mu          sync.Mutex
	log         *callLog
	uploads     int
	questions   int
	summaries   int
	quizzes     int
	lastQuizN   int
	uploadErr   error
	answerErr   error
	quiz        *models.Quiz
	answerStart chan struct{}
	answerGate  chan struct{}
}

func (f *fakeRemote) Upload(_ context.Context, name string, content []byte) (*remote.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.log.add("upload:" + name)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &remote.UploadResult{ID: "srv-" + name, Filename: name, Size: int64(len(content))}, nil
}

func (f *fakeRemote) AskQuestion(_ context.Context, question string, _ []*models.UploadedFile) (*remote.Answer, error) {
	if f.answerStart != nil {
		f.answerStart <- struct{}{}
		<-f.answerGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions++
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return &remote.Answer{Answer: "remote answer to " + question}, nil
}

func (f *fakeRemote) SummarizeDocument(_ context.Context, file *models.UploadedFile) (*remote.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	return &remote.Summary{Summary: "remote summary of " + file.RemoteID()}, nil
}

func (f *fakeRemote) GenerateQuiz(_ context.Context, _ []*models.UploadedFile, n int) (*remote.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quizzes++
	f.lastQuizN = n
	if f.quiz != nil {
		return &remote.QuizResult{Quiz: *f.quiz.Clone()}, nil
	}
	return &remote.QuizResult{Quiz: *sampleQuiz(n)}, nil
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads + f.questions + f.summaries + f.quizzes
}

type fakeExtractor struct {
	mu     sync.Mutex
	log    *callLog
	result *extract.Result
	err    error
	panic  bool
	calls  int
}

func (f *fakeExtractor) Extract(context.Context, []byte) (*extract.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.log.add("extract")
	if f.panic {
		panic("decoder exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleQuiz(n int) *models.Quiz {
	quiz := &models.Quiz{ID: "quiz-1"}
	for i := 0; i < n; i++ {
		quiz.Questions = append(quiz.Questions, models.Question{
			ID:            string(rune('a' + i)),
			Question:      "Which option?",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "C",
		})
	}
	return quiz
}

const notesText = "Photosynthesis converts light energy into chemical energy. " +
	"Chlorophyll absorbs light mostly in the blue and red wavelengths.\n\n" +
	"The Calvin cycle fixes carbon dioxide into sugar molecules. " +
	"Stomata regulate gas exchange between the leaf and the air.\n\n" +
	"Cellular respiration releases the energy stored in glucose molecules."

func newTestSession(t *testing.T) (*Session, *fakeRemote, *fakeExtractor) {
	t.Helper()
	rem := &fakeRemote{}
	ex := &fakeExtractor{result: &extract.Result{Text: notesText, PageCount: 3}}
	return New(Options{ID: "s1", Remote: rem, Extractor: ex}), rem, ex
}

func uploadPDF(t *testing.T, s *Session, name string) []*models.Message {
	t.Helper()
	msgs, err := s.Upload(context.Background(), []UploadInput{{Name: name, MimeType: "application/pdf", Content: []byte("%PDF-1.4 fake")}})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return msgs
}

func TestNewSessionStartsWithWelcome(t *testing.T) {
	s, _, _ := newTestSession(t)
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != models.RoleAssistant || !strings.HasPrefix(msgs[0].Content, "Hello! I'm your Smart Campus Assistant.") {
		t.Fatalf("unexpected opening transcript %+v", msgs)
	}
}

func TestSendWithoutFilesNeverCallsRemote(t *testing.T) {
	for _, tc := range []struct {
		text string
		kind models.IntentKind
	}{
		{"summarize my notes", models.IntentSummarize},
		{"quiz me", models.IntentQuiz},
		{"what is osmosis", models.IntentQA},
	} {
		s, rem, ex := newTestSession(t)
		reply, err := s.Send(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("send %q: %v", tc.text, err)
		}
		if reply.Content != noFilesMessages[tc.kind] {
			t.Fatalf("unexpected reply for %q: %q", tc.text, reply.Content)
		}
		if rem.calls() != 0 || ex.calls != 0 {
			t.Fatalf("expected no collaborator calls, remote=%d extractor=%d", rem.calls(), ex.calls)
		}
		if n := len(s.Messages()); n != 3 {
			t.Fatalf("expected welcome, user and one reply, got %d messages", n)
		}
	}
}

func TestSendRejectsBlankInput(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Send(context.Background(), "   \n\t")
	if !errors.Is(err, ErrEmptyMessage) || !IsValidation(err) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if n := len(s.Messages()); n != 1 {
		t.Fatalf("blank input should not touch the transcript, got %d messages", n)
	}
}

func TestPDFUploadSummarizeAndAsk(t *testing.T) {
	s, rem, ex := newTestSession(t)

	msgs := uploadPDF(t, s, "notes.pdf")
	if len(msgs) != 1 || !strings.Contains(msgs[0].Content, "**notes.pdf** (3 pages)") {
		t.Fatalf("unexpected upload reply %+v", msgs)
	}
	files := s.Files()
	if len(files) != 1 || files[0].ID != "srv-notes.pdf" || files[0].PageCount != 3 || files[0].ExtractedText != notesText {
		t.Fatalf("unexpected file record %+v", files)
	}

	reply, err := s.Send(context.Background(), "Please summarize notes.pdf")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.HasPrefix(reply.Content, "**Summary of notes.pdf** (3 pages):\n\n") {
		t.Fatalf("unexpected summary %q", reply.Content)
	}
	if !strings.Contains(reply.Content, "*Full document extracted 316 characters.") {
		t.Fatalf("summary should report extracted length: %q", reply.Content)
	}
	if reply.FullText != notesText || reply.File == nil || reply.File.Name != "notes.pdf" {
		t.Fatalf("summary should carry the full text and file")
	}
	if ex.calls != 1 {
		t.Fatalf("expected cached extraction to be reused, extractor called %d times", ex.calls)
	}

	name, body, err := s.Download(reply.ID)
	if err != nil || name != "summary_notes.pdf.txt" || body != notesText {
		t.Fatalf("unexpected download %q %v", name, err)
	}

	answer, err := s.Send(context.Background(), "How is light energy absorbed")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.HasPrefix(answer.Content, "Based on your uploaded materials:\n\n") ||
		!strings.Contains(answer.Content, "Chlorophyll absorbs light") {
		t.Fatalf("unexpected answer %q", answer.Content)
	}
	if rem.questions != 0 {
		t.Fatalf("local text should answer without the remote service")
	}
}

func TestSummarizeExtractsWhenUploadExtractionFailed(t *testing.T) {
	s, _, ex := newTestSession(t)
	ex.err = errors.New("corrupt")
	msgs := uploadPDF(t, s, "scan.pdf")
	if !strings.Contains(msgs[0].Content, "You can now ask me questions about it") {
		t.Fatalf("failed extraction should still report upload success: %q", msgs[0].Content)
	}

	ex.err = nil
	ex.result = &extract.Result{Text: "", PageCount: 2}
	reply, err := s.Send(context.Background(), "summary please")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(reply.Content, "(2 pages):\n\nNo content found in the document.") {
		t.Fatalf("unexpected reply %q", reply.Content)
	}
	if ex.calls != 2 {
		t.Fatalf("expected extraction on summarize, got %d calls", ex.calls)
	}
}

func TestNonPDFUsesRemoteService(t *testing.T) {
	s, rem, ex := newTestSession(t)
	_, err := s.Upload(context.Background(), []UploadInput{{
		Name:     "lecture.docx",
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Content:  []byte("PK..."),
	}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ex.calls != 0 {
		t.Fatalf("non-PDF uploads must not be extracted")
	}

	reply, _ := s.Send(context.Background(), "summarize")
	if reply.Content != "**Summary of lecture.docx:**\n\nremote summary of srv-lecture.docx" {
		t.Fatalf("unexpected summary %q", reply.Content)
	}
	if reply.FullText != "" {
		t.Fatalf("remote summaries have no download")
	}
	if _, _, err := s.Download(reply.ID); !errors.Is(err, ErrNoDownload) {
		t.Fatalf("expected ErrNoDownload, got %v", err)
	}

	reply, _ = s.Send(context.Background(), "what is covered in week two")
	if reply.Content != "remote answer to what is covered in week two" || rem.questions != 1 {
		t.Fatalf("unexpected answer %q", reply.Content)
	}
}

func TestTurnFailuresBecomeGenericReply(t *testing.T) {
	s, rem, ex := newTestSession(t)
	_, _ = s.Upload(context.Background(), []UploadInput{{Name: "deck.pptx", Content: []byte("PK")}})
	rem.answerErr = &remote.StatusError{Op: "qa", StatusCode: 400}

	reply, err := s.Send(context.Background(), "explain slide three")
	if err != nil {
		t.Fatalf("a failed turn is not an error to the caller: %v", err)
	}
	if reply.Content != genericErrorMessage {
		t.Fatalf("unexpected reply %q", reply.Content)
	}

	ex.panic = true
	uploadPDF(t, s, "broken.pdf")
	reply, err = s.Send(context.Background(), "summarize broken.pdf")
	if err != nil || reply.Content != genericErrorMessage {
		t.Fatalf("panic should become the generic reply, got %q, %v", reply.Content, err)
	}

	if _, err := s.Send(context.Background(), "hello again"); err != nil {
		t.Fatalf("session should keep working after failures: %v", err)
	}
}

func TestConcurrentSendIsRejected(t *testing.T) {
	s, rem, _ := newTestSession(t)
	_, _ = s.Upload(context.Background(), []UploadInput{{Name: "deck.pptx", Content: []byte("PK")}})
	rem.answerStart = make(chan struct{})
	rem.answerGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first question")
		done <- err
	}()
	<-rem.answerStart

	if _, err := s.Send(context.Background(), "second question"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(rem.answerGate)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
	for _, m := range s.Messages() {
		if m.Content == "second question" {
			t.Fatalf("rejected send must not be recorded")
		}
	}
}

func TestSendFuncReportsUserMessageFirst(t *testing.T) {
	s, _, _ := newTestSession(t)
	var acked *models.Message
	reply, err := s.SendFunc(context.Background(), "  hi there ", func(m *models.Message) {
		acked = m
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if acked == nil || acked.Role != models.RoleUser || acked.Content != "hi there" {
		t.Fatalf("unexpected ack %+v", acked)
	}
	if reply.Role != models.RoleAssistant {
		t.Fatalf("expected assistant reply")
	}
}
