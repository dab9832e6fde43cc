// Package extract turns uploaded resume files into plain text and pulls a
// few contact fields out of that text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction means no usable text could be read from the document.
var ErrExtraction = errors.New("text extraction failed")

// Extensions lists the accepted file extensions.
var Extensions = []string{".pdf", ".txt", ".md", ".text"}

// Text returns the plain text of a document. The format is chosen by the
// filename extension.
func Text(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)

	switch ext {
	case ".txt", ".md", ".text":
		text = plainText(data)
	case ".pdf":
		text, err = pdfText(data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrExtraction, filename, err)
		}
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", ErrExtraction, ext)
	}

	text = normalize(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s contains no text", ErrExtraction, filename)
	}

	return text, nil
}

func plainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	content, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}

// normalize unifies line endings, trims trailing spaces and collapses runs
// of blank lines.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t ")
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
