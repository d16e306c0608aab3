// Package extract pulls plain text out of ingested document bytes: a
// primary extractor per format, an OCR fallback for image MIME types,
// and a last-resort raw-UTF-8 fallback so the pipeline never hard-fails
// on an unrecognized or corrupt file.
package extract

import (
	"strings"
	"unicode/utf8"
)

// Extractor pulls text from document bytes by content type.
type Extractor struct {
	ocr OCR
}

// OCR is the seam an image-text extractor plugs into. None ships here,
// so NewExtractor's default always reports unavailable and callers fall
// through to the raw-UTF-8 last resort.
type OCR interface {
	Extract(content []byte) (string, error)
}

// noOCR always reports OCR unavailable.
type noOCR struct{}

func (noOCR) Extract([]byte) (string, error) { return "", errOCRUnavailable }

var errOCRUnavailable = &ocrUnavailableErr{}

type ocrUnavailableErr struct{}

func (*ocrUnavailableErr) Error() string { return "ocr: no collaborator configured" }

// NewExtractor builds an Extractor. Pass a non-nil OCR to enable the
// image fallback path; nil uses the always-unavailable default.
func NewExtractor(ocr OCR) *Extractor {
	if ocr == nil {
		ocr = noOCR{}
	}
	return &Extractor{ocr: ocr}
}

// Extract returns the best-effort plain text for content, given its
// content type (a MIME type or a bare extension like ".pdf").
func (e *Extractor) Extract(content []byte, contentType string) (string, error) {
	text, err := e.primary(content, contentType)
	if err == nil {
		return text, nil
	}

	if strings.HasPrefix(contentType, "image/") {
		if ocrText, ocrErr := e.ocr.Extract(content); ocrErr == nil {
			return ocrText, nil
		}
	}

	return rawUTF8(content), nil
}

func (e *Extractor) primary(content []byte, contentType string) (string, error) {
	switch {
	case strings.Contains(contentType, "pdf"):
		return extractPDF(content)
	case strings.Contains(contentType, "wordprocessingml"), strings.HasSuffix(contentType, ".docx"):
		return extractDOCX(content)
	case strings.Contains(contentType, "spreadsheetml"), strings.HasSuffix(contentType, ".xlsx"):
		return extractXLSX(content)
	case strings.HasPrefix(contentType, "image/"):
		return "", errOCRUnavailable
	default:
		return rawUTF8(content), nil
	}
}

// rawUTF8 is the final fallback: treat the file's bytes as UTF-8 text,
// scrubbing invalid sequences rather than failing.
func rawUTF8(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "�")
}
