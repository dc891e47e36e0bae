package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/interfaces"
)

// Extractor implements interfaces.PDFExtractor using pdfcpu content extraction
type Extractor struct {
	logger arbor.ILogger
}

var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF text extractor
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

var (
	pageFileRegex = regexp.MustCompile(`Content_page_(\d+)`)
	// Text-showing operators: (string) Tj, (string) ', [(a) -20 (b)] TJ
	showTextRegex = regexp.MustCompile(`\((?:\\.|[^\\)])*\)\s*(?:Tj|')|\[(?:[^\]\\]|\\.)*\]\s*TJ`)
	literalRegex  = regexp.MustCompile(`\((?:\\.|[^\\)])*\)`)
	lineOpRegex   = regexp.MustCompile(`(?:^|\s)(?:T\*|Td|TD|ET)(?:\s|$)`)
)

// ExtractText returns the text of all pages separated by blank lines
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("pdf is empty")
	}

	workDir, err := os.MkdirTemp("", "jobpilot-pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inFile := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inFile, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(inFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	outDir := filepath.Join(workDir, "content")
	if err := os.MkdirAll(outDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create content dir: %w", err)
	}
	if err := api.ExtractContentFile(inFile, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted content: %w", err)
	}

	pageTexts := make(map[int]string)
	for _, file := range files {
		m := pageFileRegex.FindStringSubmatch(file.Name())
		if file.IsDir() || len(m) != 2 {
			continue
		}
		pageNum, _ := strconv.Atoi(m[1])
		stream, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			e.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to read page content")
			continue
		}
		pageTexts[pageNum] = DecodeContentStream(string(stream))
	}

	pageNums := make([]int, 0, len(pageTexts))
	for n := range pageTexts {
		pageNums = append(pageNums, n)
	}
	sort.Ints(pageNums)

	pages := make([]string, 0, len(pageNums))
	for _, n := range pageNums {
		if t := strings.TrimSpace(pageTexts[n]); t != "" {
			pages = append(pages, t)
		}
	}

	e.logger.Debug().
		Int("page_count", pdfCtx.PageCount).
		Int("pages_with_text", len(pages)).
		Msg("Extracted PDF text")

	return strings.Join(pages, "\n\n"), nil
}

// DecodeContentStream pulls the shown strings out of a PDF page content stream.
// Positioning operators between text runs become line breaks.
func DecodeContentStream(stream string) string {
	var b strings.Builder
	last := 0
	for _, loc := range showTextRegex.FindAllStringIndex(stream, -1) {
		if b.Len() > 0 && lineOpRegex.MatchString(stream[last:loc[0]]) {
			b.WriteString("\n")
		}
		for _, lit := range literalRegex.FindAllString(stream[loc[0]:loc[1]], -1) {
			b.WriteString(unescapeLiteral(lit[1 : len(lit)-1]))
		}
		last = loc[1]
	}
	return b.String()
}

func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '(', ')', '\\':
			b.WriteByte(s[i])
		default:
			// Octal escape \ddd
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			if j > i {
				v, _ := strconv.ParseUint(s[i:j], 8, 8)
				b.WriteByte(byte(v))
				i = j - 1
			} else {
				b.WriteByte(s[i])
			}
		}
	}
	return b.String()
}
