package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of an uploaded resume file.
type TextExtractor interface {
	ExtractText(filePath string) (string, error)
}

type pdfExtractor struct{}

func NewPDFExtractor() TextExtractor {
	return &pdfExtractor{}
}

// ExtractText implements TextExtractor. Pages that cannot be read are
// skipped; only a fully empty document is an error.
func (p *pdfExtractor) ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}

	return text, nil
}
