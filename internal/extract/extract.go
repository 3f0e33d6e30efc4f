package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Document is a decoded PDF whose pages are numbered from 1.
type Document interface {
	NumPage() int
	PageText(page int) (string, error)
}

// Decoder parses raw PDF bytes.
type Decoder interface {
	Decode(data []byte) (Document, error)
}

// Loader acquires a Decoder. It is called lazily on first use and again after
// every failed acquisition.
type Loader func(ctx context.Context) (Decoder, error)

// Result is the text of a document and its page count.
type Result struct {
	Text      string
	PageCount int
}

// ExtractionError reports a failure to acquire the decoder or to decode a document.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("pdf extraction %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// PDFExtractor turns PDF bytes into plain text.
type PDFExtractor struct {
	load   Loader
	logger *zap.Logger

	mu      sync.Mutex
	decoder Decoder
}

// NewPDFExtractor builds an extractor. A nil loader selects the ledongthuc decoder.
func NewPDFExtractor(load Loader, logger *zap.Logger) *PDFExtractor {
	if load == nil {
		load = LedongthucLoader
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{load: load, logger: logger}
}

func (e *PDFExtractor) acquire(ctx context.Context) (Decoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decoder != nil {
		return e.decoder, nil
	}
	decoder, err := e.load(ctx)
	if err != nil {
		return nil, &ExtractionError{Op: "acquire", Err: err}
	}
	if decoder == nil {
		return nil, &ExtractionError{Op: "acquire", Err: errors.New("loader returned no decoder")}
	}
	e.decoder = decoder
	e.logger.Debug("pdf decoder ready")
	return decoder, nil
}

// Extract decodes data once and returns the text of every page in order,
// pages separated by a blank line. Empty pages keep their separator.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decoder, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return decode(decoder, data)
}

func decode(decoder Decoder, data []byte) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ExtractionError{Op: "decode", Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()
	if len(data) == 0 {
		return nil, &ExtractionError{Op: "decode", Err: errors.New("empty document")}
	}
	doc, err := decoder.Decode(data)
	if err != nil {
		return nil, &ExtractionError{Op: "decode", Err: err}
	}
	pageCount := doc.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			return nil, &ExtractionError{Op: "decode", Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, text)
	}
	return &Result{
		Text:      strings.TrimSpace(strings.Join(pages, "\n\n")),
		PageCount: pageCount,
	}, nil
}
