package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	fontFamily = "Arial"
	bodySize   = 11.0
	lineHeight = 6.0
)

// Service implements interfaces.PDFService
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// CoverLetterMarkdown lays out a job's generated cover letter as a markdown document
func CoverLetterMarkdown(job models.JobListing, profile models.UserProfile) string {
	var b strings.Builder
	if profile.Name != "" {
		fmt.Fprintf(&b, "**%s**\n\n", profile.Name)
		var contact []string
		for _, v := range []string{profile.Email, profile.Phone, profile.Location} {
			if v != "" {
				contact = append(contact, v)
			}
		}
		if len(contact) > 0 {
			fmt.Fprintf(&b, "%s\n\n", strings.Join(contact, " | "))
		}
		b.WriteString("---\n\n")
	}
	fmt.Fprintf(&b, "## %s at %s\n\n", job.Title, job.Company)
	b.WriteString(strings.TrimSpace(job.GeneratedCoverLetter))
	b.WriteString("\n")
	return b.String()
}

// ConvertMarkdownToPDF converts markdown content to a PDF byte slice
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("JobPilot", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", bodySize)

	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &letterRenderer{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

// letterRenderer writes a goldmark AST as flowing letter text.
// Core fonts are cp1252, so text passes through translate.
type letterRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	bold      bool
	italic    bool
	listDepth int
	ordinal   []int
}

func (r *letterRenderer) setFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(fontFamily, style, bodySize)
}

func (r *letterRenderer) write(s string) {
	r.pdf.Write(lineHeight, r.translate(s))
}

func (r *letterRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			size := bodySize + float64(4-min(node.Level, 3))*1.5
			r.pdf.Ln(2)
			r.pdf.SetFont(fontFamily, "B", size)
		} else {
			r.pdf.Ln(lineHeight + 2)
			r.setFont()
		}

	case *ast.Paragraph:
		if !entering {
			if r.listDepth == 0 {
				r.pdf.Ln(lineHeight * 1.5)
			}
		}

	case *ast.Text:
		if entering {
			r.write(string(node.Segment.Value(r.source)))
			if node.HardLineBreak() || node.SoftLineBreak() {
				r.pdf.Ln(lineHeight)
			}
		}

	case *ast.String:
		if entering {
			r.write(string(node.Value))
		}

	case *ast.AutoLink:
		if entering {
			r.write(string(node.URL(r.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.setFont()

	case *ast.List:
		if entering {
			r.listDepth++
			start := 0
			if node.IsOrdered() {
				start = node.Start
			}
			r.ordinal = append(r.ordinal, start)
		} else {
			r.listDepth--
			r.ordinal = r.ordinal[:len(r.ordinal)-1]
			if r.listDepth == 0 {
				r.pdf.Ln(lineHeight / 2)
			}
		}

	case *ast.ListItem:
		if entering {
			r.pdf.SetX(20 + float64(r.listDepth)*5)
			marker := "- "
			if idx := len(r.ordinal) - 1; r.ordinal[idx] > 0 {
				marker = fmt.Sprintf("%d. ", r.ordinal[idx])
				r.ordinal[idx]++
			}
			r.write(marker)
		} else {
			r.pdf.Ln(lineHeight)
		}

	case *ast.ThematicBreak:
		if entering {
			y := r.pdf.GetY() + 1
			r.pdf.Line(20, y, 190, y)
			r.pdf.Ln(4)
		}

	case *ast.CodeSpan:
		if entering {
			r.write(string(node.Text(r.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				r.write(strings.TrimRight(string(seg.Value(r.source)), "\n"))
				r.pdf.Ln(lineHeight)
			}
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}
