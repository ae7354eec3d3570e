// Package extract decodes uploaded file bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/dslipak/pdf"
	docx "github.com/fumiama/go-docx"

	"github.com/aironrush/assistant/internal/domain"
)

const (
	typePlain = "text/plain"
	typePDF   = "application/pdf"
	typeDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Text decodes data according to the declared content type.
// Unknown types fail with domain.ErrUnsupportedMedia, decoder failures
// with domain.ErrExtraction.
func Text(data []byte, contentType string) (text string, err error) {
	mt, _, perr := mime.ParseMediaType(contentType)
	if perr != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}

	// the pdf parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("decode %s: %v: %w", mt, r, domain.ErrExtraction)
		}
	}()

	switch mt {
	case typePlain:
		return string(data), nil
	case typePDF:
		return pdfText(data)
	case typeDocx:
		return docxText(data)
	default:
		return "", fmt.Errorf("%s: %w", contentType, domain.ErrUnsupportedMedia)
	}
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %v: %w", err, domain.ErrExtraction)
	}
	pt, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %v: %w", err, domain.ErrExtraction)
	}
	b, err := io.ReadAll(pt)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %v: %w", err, domain.ErrExtraction)
	}
	return string(b), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %v: %w", err, domain.ErrExtraction)
	}
	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(p.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
