package intake

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/reportdoc/internal/doctree"
)

// Upload statuses recorded on a SourceDocument.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Extractor pulls readable text out of an uploaded file. Headings are kept as
// markdown "#" lines so the generator sees the source's structure.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Intake turns uploads into source documents.
type Intake struct {
	// PDFFallback shells out to pdftotext when the Go PDF reader fails.
	PDFFallback bool
}

// ForFile returns the extractor for a filename.
func (in Intake) ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: in.PDFFallback}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// Describe extracts text from data and builds its SourceDocument. A file that
// cannot be read is still described, with status failed and the error.
func (in Intake) Describe(filename string, data []byte, uploadedAt time.Time) (doctree.SourceDocument, string, error) {
	doc := doctree.SourceDocument{
		Name:       filepath.Base(filename),
		Type:       strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		Size:       int64(len(data)),
		UploadDate: uploadedAt,
		Status:     StatusFailed,
	}

	ex, err := in.ForFile(filename)
	if err != nil {
		return doc, "", err
	}
	text, err := ex.Extract(bytes.NewReader(data), doc.Name)
	if err != nil {
		return doc, "", fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	doc.Status = StatusProcessed
	return doc, text, nil
}

// Describe uses an Intake with default settings.
func Describe(filename string, data []byte, uploadedAt time.Time) (doctree.SourceDocument, string, error) {
	return Intake{}.Describe(filename, data, uploadedAt)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// writeBlock appends a paragraph, separated from the previous one by a blank
// line.
func writeBlock(sb *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(text)
}

func writeHeading(sb *strings.Builder, level int, title string) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	writeBlock(sb, strings.Repeat("#", level)+" "+strings.TrimSpace(title))
}
