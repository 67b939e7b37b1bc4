package document

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
)

// PDFExtractor pulls embedded text out of a PDF page by page. Scanned
// documents with no text layer come back empty; the service layer falls back
// to OCR for those.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// GetInfo reads page count and the Info dictionary's title and author.
// Missing metadata fields are empty strings, not errors.
func (e *PDFExtractor) GetInfo(path string) (*models.PDFInfo, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info := &models.PDFInfo{TotalPages: r.NumPage()}
	meta := r.Trailer().Key("Info")
	if !meta.IsNull() {
		info.Title = strings.TrimSpace(meta.Key("Title").Text())
		info.Author = strings.TrimSpace(meta.Key("Author").Text())
	}
	return info, nil
}

// ExtractPages returns the text layer of each page in the range, one string
// per page, in page order. Pages with no text layer yield empty strings so
// indices stay aligned with page numbers for the OCR fallback.
func (e *PDFExtractor) ExtractPages(path string, pages models.PageRange) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	start, end := pages.Bounds(total)

	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			out = append(out, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			out = append(out, "")
			continue
		}
		out = append(out, strings.TrimSpace(text))
	}
	return out, nil
}
