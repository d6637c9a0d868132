package rag

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF has pages but none of them carry
// extractable text (scanned documents, image-only pages).
var ErrNoText = errors.New("no extractable text found in pdf")

// ReadText returns the normalized plain text of a .txt, .md or .pdf file.
func ReadText(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", ".markdown":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return normalizeText(string(b)), nil
	case ".pdf":
		return readPDF(path)
	default:
		return "", fmt.Errorf("unsupported file type for text extraction: %q", ext)
	}
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	text := normalizeText(b.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// normalizeText unifies line endings, trims each line and collapses runs of
// blank lines to one.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var buf bytes.Buffer
	empty := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			empty++
			if empty > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		empty = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String())
}
