package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/models"
)

func TestConvertMarkdownToPDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name     string
		markdown string
	}{
		{"basic letter", "Dear Hiring Manager,\n\nI am excited to apply.\n\nSincerely,  \nAda"},
		{"empty", ""},
		{"lists and emphasis", "## Highlights\n\n- **Go** services\n- *Kubernetes*\n\n1. First\n2. Second"},
		{"non ascii", "Café résumé – naïve “quotes”"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.ConvertMarkdownToPDF(tt.markdown, "Cover Letter")
			require.NoError(t, err)
			require.NotEmpty(t, pdfBytes)
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
		})
	}
}

func TestCoverLetterMarkdown(t *testing.T) {
	job := models.JobListing{Title: "Go Engineer", Company: "Acme", GeneratedCoverLetter: "  Dear Acme,\n\nHire me.  "}
	profile := models.UserProfile{Name: "Ada", Email: "ada@example.com"}

	md := CoverLetterMarkdown(job, profile)
	assert.Contains(t, md, "**Ada**")
	assert.Contains(t, md, "ada@example.com")
	assert.Contains(t, md, "## Go Engineer at Acme")
	assert.Contains(t, md, "Dear Acme,\n\nHire me.\n")

	pdfBytes, err := NewService(arbor.NewLogger()).ConvertMarkdownToPDF(md, "Go Engineer")
	require.NoError(t, err)
	assert.Greater(t, len(pdfBytes), 500)
}

func TestDecodeContentStream(t *testing.T) {
	stream := "BT /F1 12 Tf 72 712 Td (Ada Lovelace) Tj 0 -14 Td (ada@example.com) Tj T* [(Go) -250 (Developer)] TJ ET"
	assert.Equal(t, "Ada Lovelace\nada@example.com\nGoDeveloper", DecodeContentStream(stream))
	assert.Equal(t, `a (b) c\`, unescapeLiteral(`a \(b\) c\\`))
	assert.Equal(t, "A", unescapeLiteral(`\101`))
}

func TestExtractTextRejectsEmpty(t *testing.T) {
	_, err := NewExtractor(arbor.NewLogger()).ExtractText(context.Background(), nil)
	assert.Error(t, err)
}

func TestExtractTextFromGeneratedPDF(t *testing.T) {
	pdfBytes, err := NewService(arbor.NewLogger()).ConvertMarkdownToPDF("Ada Lovelace\n\nGo developer", "Resume")
	require.NoError(t, err)

	text, err := NewExtractor(arbor.NewLogger()).ExtractText(context.Background(), pdfBytes)
	require.NoError(t, err)
	assert.Contains(t, text, "Lovelace")
}
