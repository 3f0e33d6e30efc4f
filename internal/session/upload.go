package session

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"campusassist/internal/models"
)

// UploadInput is one file handed to Upload.
type UploadInput struct {
	Name     string
	MimeType string
	Content  []byte
}

var acceptedExtensions = []string{".pdf", ".docx", ".pptx"}

// acceptable applies the upload allow-list. An empty or generic MIME type is
// replaced by one sniffed from the content.
func acceptable(in *UploadInput) bool {
	mimeType := strings.ToLower(strings.TrimSpace(in.MimeType))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(in.Content).String()
		in.MimeType = mimeType
	}
	if strings.HasPrefix(mimeType, "application/pdf") ||
		strings.Contains(mimeType, "document") ||
		strings.Contains(mimeType, "presentation") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(in.Name))
	for _, allowed := range acceptedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Upload stores a batch of files one at a time in input order and returns the
// assistant messages it produced.
func (s *Session) Upload(ctx context.Context, inputs []UploadInput) ([]*models.Message, error) {
	if len(inputs) == 0 {
		return nil, invalid(ErrNoFiles, "")
	}
	if !s.uploading.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.uploading.Store(false)

	accepted := make([]UploadInput, 0, len(inputs))
	for _, in := range inputs {
		in.Name = filepath.Base(strings.TrimSpace(in.Name))
		if acceptable(&in) {
			accepted = append(accepted, in)
			continue
		}
		s.logger.Info("skipping unsupported upload", zap.String("file", in.Name), zap.String("mime", in.MimeType))
	}
	if len(accepted) == 0 {
		return []*models.Message{s.append(s.newMessage(models.RoleAssistant, unsupportedUpload))}, nil
	}

	replies := make([]*models.Message, 0, len(accepted))
	for _, in := range accepted {
		replies = append(replies, s.uploadOne(ctx, in))
	}
	return replies, nil
}

func (s *Session) uploadOne(ctx context.Context, in UploadInput) *models.Message {
	res, err := s.remote.Upload(ctx, in.Name, in.Content)
	if err != nil {
		s.logger.Error("upload failed", zap.String("file", in.Name), zap.Error(err))
		return s.append(s.newMessage(models.RoleAssistant, uploadFailedReply(in.Name)))
	}
	id := res.ID
	if id == "" {
		id = in.Name
	}
	file, err := models.NewUploadedFile(id, in.Name, in.MimeType, int64(len(in.Content)), s.now(), in.Content)
	if err != nil {
		s.logger.Error("upload rejected", zap.String("file", in.Name), zap.Error(err))
		return s.append(s.newMessage(models.RoleAssistant, uploadFailedReply(in.Name)))
	}
	if res.Mocked {
		s.logger.Info("upload recorded from mock response", zap.String("file", in.Name))
	}

	if file.IsPDF() {
		extracted, err := s.extract(ctx, in.Content)
		if err != nil {
			s.logger.Warn("pdf extraction failed", zap.String("file", in.Name), zap.Error(err))
		} else {
			file.ExtractedText = extracted.Text
			file.PageCount = extracted.PageCount
		}
	}

	s.putFile(file)
	msg := s.newMessage(models.RoleAssistant, uploadedReply(file))
	msg.File = file.Clone()
	return s.append(msg)
}

// putFile adds file, replacing any record with the same name in place.
func (s *Session) putFile(file *models.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.files {
		if f.Name == file.Name {
			s.files[i] = file
			return
		}
	}
	s.files = append(s.files, file)
}
