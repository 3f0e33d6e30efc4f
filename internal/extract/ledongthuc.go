package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/ledongthuc/pdf"
)

// MetaKeyPage holds the 1-based page number of a parsed page document.
const MetaKeyPage = "page"

// documentURI names uploads for extension based parser selection.
const documentURI = "upload.pdf"

// LedongthucLoader provides a decoder that routes PDF bytes through an eino
// ExtParser backed by github.com/ledongthuc/pdf.
func LedongthucLoader(ctx context.Context) (Decoder, error) {
	p, err := NewDocumentParser(ctx)
	if err != nil {
		return nil, err
	}
	return parserDecoder{parser: p}, nil
}

// NewDocumentParser selects a parser by URI extension. PDFs are split into one
// document per page; anything else is read as plain text.
func NewDocumentParser(ctx context.Context) (parser.Parser, error) {
	return parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers: map[string]parser.Parser{
			".pdf": PDFParser{},
		},
		FallbackParser: parser.TextParser{},
	})
}

// PDFParser implements parser.Parser with the pure Go ledongthuc reader.
type PDFParser struct{}

func (PDFParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	common := parser.GetCommonOptions(&parser.Options{}, opts...)

	n := r.NumPage()
	docs := make([]*schema.Document, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(r, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		meta := make(map[string]any, len(common.ExtraMeta)+1)
		for k, v := range common.ExtraMeta {
			meta[k] = v
		}
		meta[MetaKeyPage] = i
		docs = append(docs, &schema.Document{
			ID:       fmt.Sprintf("%s#%d", common.URI, i),
			Content:  text,
			MetaData: meta,
		})
	}
	return docs, nil
}

func pageText(r *pdf.Reader, page int) (string, error) {
	p := r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

type parserDecoder struct {
	parser parser.Parser
}

func (d parserDecoder) Decode(data []byte) (Document, error) {
	docs, err := d.parser.Parse(context.Background(), bytes.NewReader(data), parser.WithURI(documentURI))
	if err != nil {
		return nil, err
	}
	return pagedDocument(docs), nil
}

// pagedDocument exposes parsed documents as pages in parse order.
type pagedDocument []*schema.Document

func (d pagedDocument) NumPage() int {
	return len(d)
}

func (d pagedDocument) PageText(page int) (string, error) {
	if page < 1 || page > len(d) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	if d[page-1] == nil {
		return "", nil
	}
	return d[page-1].Content, nil
}
