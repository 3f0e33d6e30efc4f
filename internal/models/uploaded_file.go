package models

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

const mimePDF = "application/pdf"

// UploadedFile is a document the user uploaded into a session. Name is unique
// within the session; ExtractedText and PageCount are filled once extraction
// completes.
type UploadedFile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	MimeType      string    `json:"mime_type"`
	UploadedAt    time.Time `json:"uploaded_at"`
	ExtractedText string    `json:"-"`
	PageCount     int       `json:"page_count,omitempty"`

	content []byte
}

// NewUploadedFile validates the required fields and returns the record.
func NewUploadedFile(id, name, mimeType string, size int64, uploadedAt time.Time, content []byte) (*UploadedFile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("file name is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("file id is required")
	}
	if size < 0 {
		return nil, errors.New("file size cannot be negative")
	}
	return &UploadedFile{
		ID:         id,
		Name:       name,
		Size:       size,
		MimeType:   mimeType,
		UploadedAt: uploadedAt,
		content:    content,
	}, nil
}

// Content returns the raw bytes kept for later extraction.
func (f *UploadedFile) Content() []byte {
	return f.content
}

// IsPDF reports whether the file is a PDF by MIME type or extension.
func (f *UploadedFile) IsPDF() bool {
	return f.MimeType == mimePDF || strings.EqualFold(filepath.Ext(f.Name), ".pdf")
}

// HasText reports whether extraction produced any text.
func (f *UploadedFile) HasText() bool {
	return f.ExtractedText != ""
}

// RemoteID is the identifier sent to the remote service; the name stands in
// when the server did not assign one.
func (f *UploadedFile) RemoteID() string {
	if f.ID != "" {
		return f.ID
	}
	return f.Name
}

func (f *UploadedFile) Clone() *UploadedFile {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
