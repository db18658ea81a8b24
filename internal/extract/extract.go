// Package extract turns uploaded files into plain text.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types with dedicated extractors.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

var (
	// ErrNoFile is returned when no upload or an empty upload is given.
	ErrNoFile = errors.New("no file uploaded")
	// ErrUnsupported is returned for content that is neither PDF, DOCX nor text.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrExtraction wraps a failure inside a format extractor.
	ErrExtraction = errors.New("text extraction failed")
)

// Upload is a received file.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Extract returns the text of u. The declared MIME type picks the extractor;
// when it is empty, application/octet-stream or not one we handle, the type
// is sniffed from the bytes.
func Extract(u *Upload) (string, error) {
	if u == nil || len(u.Data) == 0 {
		return "", ErrNoFile
	}

	kind := normalize(u.MIMEType)
	if !handled(kind) {
		kind = sniff(u.Data)
	}

	switch kind {
	case MIMEPDF:
		text, err := extractPDF(u.Data)
		if err != nil {
			return "", fmt.Errorf("%w: pdf: %w", ErrExtraction, err)
		}
		return text, nil
	case MIMEDOCX:
		text, err := extractDOCX(u.Data)
		if err != nil {
			return "", fmt.Errorf("%w: docx: %w", ErrExtraction, err)
		}
		return text, nil
	case MIMEText:
		return decodeText(u.Data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, describe(u))
	}
}

// Detect reports the MIME type Extract would dispatch on.
func Detect(u *Upload) string {
	if u == nil {
		return ""
	}
	if kind := normalize(u.MIMEType); handled(kind) {
		return kind
	}
	return sniff(u.Data)
}

func normalize(declared string) string {
	base, _, _ := strings.Cut(declared, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if strings.HasPrefix(base, "text/") {
		return MIMEText
	}
	return base
}

func handled(kind string) bool {
	return kind == MIMEPDF || kind == MIMEDOCX || kind == MIMEText
}

// sniff maps detected content onto one of the handled kinds, or returns the
// detected type unchanged.
func sniff(data []byte) string {
	m := mimetype.Detect(data)
	switch {
	case m.Is(MIMEPDF):
		return MIMEPDF
	case m.Is(MIMEDOCX):
		return MIMEDOCX
	case m.Is("application/zip") && hasDocxBody(data):
		return MIMEDOCX
	}
	for p := m; p != nil; p = p.Parent() {
		if p.Is(MIMEText) {
			return MIMEText
		}
	}
	return m.String()
}

func describe(u *Upload) string {
	if u.Name != "" {
		return fmt.Sprintf("%s (%s)", u.Name, sniff(u.Data))
	}
	return sniff(u.Data)
}

// decodeText decodes data as UTF-8, replacing invalid sequences.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
