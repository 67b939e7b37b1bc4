// Package storage manages the on-disk layout of the narrator: an upload
// directory for incoming PDFs and an audio directory for rendered output and
// timing sidecars.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
)

type FileManager struct {
	uploadDir string
	audioDir  string
}

// NewFileManager creates both directories if needed.
func NewFileManager(uploadDir, audioDir string) (*FileManager, error) {
	for _, dir := range []string{uploadDir, audioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &FileManager{uploadDir: uploadDir, audioDir: audioDir}, nil
}

func (fm *FileManager) UploadDir() string { return fm.uploadDir }
func (fm *FileManager) AudioDir() string  { return fm.audioDir }

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeBaseName reduces a user-supplied name to a filesystem-safe base,
// stripping path separators and any .pdf extension.
func SanitizeBaseName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = unsafeNameRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if name == "" {
		name = "narration"
	}
	return name
}

// SaveUpload streams an incoming PDF into the upload directory and returns
// its full path.
func (fm *FileManager) SaveUpload(name string, r io.Reader) (string, error) {
	path := filepath.Join(fm.uploadDir, SanitizeBaseName(name)+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

// AudioPath resolves a rendered audio filename inside the audio directory,
// rejecting traversal.
func (fm *FileManager) AudioPath(filename string) (string, error) {
	if filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid audio filename: %s", filename)
	}
	return filepath.Join(fm.audioDir, filename), nil
}

// TimingSidecarName is the canonical sidecar filename for a base name.
func TimingSidecarName(baseName string) string {
	return baseName + "_timing.json"
}

// WriteTimingSidecar persists the read-along metadata next to the audio as
// {base}_timing.json and returns the filename.
func (fm *FileManager) WriteTimingSidecar(baseName string, tm *models.TimingMetadata) (string, error) {
	name := TimingSidecarName(baseName)
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode timing metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(fm.audioDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write timing sidecar: %w", err)
	}
	return name, nil
}

// ReadTimingSidecar loads a previously written sidecar.
func (fm *FileManager) ReadTimingSidecar(baseName string) (*models.TimingMetadata, error) {
	data, err := os.ReadFile(filepath.Join(fm.audioDir, TimingSidecarName(baseName)))
	if err != nil {
		return nil, fmt.Errorf("read timing sidecar: %w", err)
	}
	var tm models.TimingMetadata
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("decode timing sidecar: %w", err)
	}
	return &tm, nil
}
