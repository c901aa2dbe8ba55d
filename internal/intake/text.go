package intake

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor handles plain text files. Paragraphs are kept; runs of blank
// lines collapse to one.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out strings.Builder
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			writeBlock(&out, current.String())
			current.Reset()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	writeBlock(&out, current.String())

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}
