package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
)

// minDirectChars: direct extraction yielding less than this across the whole
// range is treated as a scanned document and handed to OCR.
const minDirectChars = 100

// Service resolves a PDF to narratable text, trying extraction strategies in
// order: the embedded text layer first, OCR second. Failures surface as
// sentinel strings in the returned page text, not as errors; downstream
// stages recognize them by prefix and skip synthesis.
type Service struct {
	extractor *PDFExtractor
	ocr       *OCRService
}

func NewService() *Service {
	return &Service{
		extractor: NewPDFExtractor(),
		ocr:       NewOCRService(),
	}
}

// GetInfo reads page count, title, author.
func (s *Service) GetInfo(path string) (*models.PDFInfo, error) {
	return s.extractor.GetInfo(path)
}

// ValidateRange checks the requested range against the actual document and
// returns the document info on success.
func (s *Service) ValidateRange(path string, pages models.PageRange) (*models.PDFInfo, error) {
	info, err := s.extractor.GetInfo(path)
	if err != nil {
		return nil, err
	}
	if err := pages.Validate(info.TotalPages); err != nil {
		return nil, err
	}
	return info, nil
}

type extractionStrategy struct {
	name string
	run  func(ctx context.Context, path string, pages models.PageRange) ([]string, error)
}

// ExtractText returns one text string per page of the range. The result is
// never empty: when every strategy fails or produces nothing, a single
// sentinel string describes what went wrong.
func (s *Service) ExtractText(ctx context.Context, path string, pages models.PageRange) []string {
	if _, err := os.Stat(path); err != nil {
		return []string{fmt.Sprintf("Error extracting text from PDF: %v", err)}
	}

	strategies := []extractionStrategy{
		{"direct", s.extractDirect},
		{"ocr", s.extractOCR},
	}

	var best []string
	bestLen := 0
	for _, strat := range strategies {
		result, err := strat.run(ctx, path, pages)
		if err != nil {
			slog.Warn("extraction strategy failed", "strategy", strat.name, "error", err)
			continue
		}
		n := totalChars(result)
		slog.Info("extraction strategy finished", "strategy", strat.name, "pages", len(result), "chars", n)
		if n >= minDirectChars {
			return compactPages(result)
		}
		if n > bestLen {
			best, bestLen = result, n
		}
	}

	if bestLen > 0 {
		return compactPages(best)
	}
	if !s.ocr.Available() {
		return []string{"Tesseract OCR engine not found. Check installation and PATH."}
	}
	return []string{"No text could be extracted from this PDF."}
}

func (s *Service) extractDirect(_ context.Context, path string, pages models.PageRange) ([]string, error) {
	return s.extractor.ExtractPages(path, pages)
}

func (s *Service) extractOCR(ctx context.Context, path string, pages models.PageRange) ([]string, error) {
	if !s.ocr.Available() {
		return nil, fmt.Errorf("ocr tools not installed")
	}
	info, err := s.extractor.GetInfo(path)
	if err != nil {
		return nil, fmt.Errorf("could not convert PDF to images: %w", err)
	}

	start, end := pages.Bounds(info.TotalPages)
	out := make([]string, 0, end-start+1)
	for p := start; p <= end; p++ {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		text, err := s.ocr.ExtractPage(ctx, path, p)
		if err != nil {
			slog.Warn("OCR failed on page", "page", p, "error", err)
			out = append(out, "")
			continue
		}
		out = append(out, text)
	}
	return out, nil
}

func totalChars(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

// compactPages drops blank pages; the remaining text keeps page order.
func compactPages(pages []string) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
