package document

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// OCRService recovers text from scanned pages by rasterizing them with
// pdftoppm and reading the images with tesseract. Both tools are external;
// availability is probed once at construction.
type OCRService struct {
	tesseractPath string
	pdftoppmPath  string
	resolution    int
	language      string
}

func NewOCRService() *OCRService {
	tess, _ := exec.LookPath("tesseract")
	ppm, _ := exec.LookPath("pdftoppm")
	return &OCRService{
		tesseractPath: tess,
		pdftoppmPath:  ppm,
		resolution:    300,
		language:      "eng",
	}
}

// Available reports whether the full rasterize-then-recognize chain can run.
func (o *OCRService) Available() bool {
	return o.tesseractPath != "" && o.pdftoppmPath != ""
}

// ExtractPage OCRs a single 1-based page of the PDF. Errors distinguish the
// rasterization step from the recognition step so callers can produce the
// right sentinel.
func (o *OCRService) ExtractPage(ctx context.Context, pdfPath string, page int) (string, error) {
	if o.pdftoppmPath == "" {
		return "", fmt.Errorf("pdftoppm not installed")
	}
	if o.tesseractPath == "" {
		return "", fmt.Errorf("tesseract not installed")
	}

	tmpDir, err := os.MkdirTemp("", "narrator-ocr-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	rasterize := exec.CommandContext(ctx, o.pdftoppmPath,
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page),
		"-r", strconv.Itoa(o.resolution), "-png",
		pdfPath, prefix,
	)
	if out, err := rasterize.CombinedOutput(); err != nil {
		return "", fmt.Errorf("convert page %d to image: %w (%s)", page, err, strings.TrimSpace(string(out)))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("convert page %d to image: no output produced", page)
	}

	recognize := exec.CommandContext(ctx, o.tesseractPath, images[0], "stdout", "-l", o.language)
	out, err := recognize.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract on page %d: %w", page, err)
	}
	return strings.TrimSpace(string(out)), nil
}
