package interfaces

import "context"

// PDFService handles PDF generation from various formats
type PDFService interface {
	// ConvertMarkdownToPDF converts markdown content to a PDF byte slice
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}

// PDFExtractor pulls plain text out of PDF documents
type PDFExtractor interface {
	// ExtractText returns the text of every page, pages separated by blank lines
	ExtractText(ctx context.Context, data []byte) (string, error)
}
