package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
)

func TestSanitizeBaseName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My Paper.pdf", "My_Paper"},
		{"../../etc/passwd", "passwd"},
		{"plain", "plain"},
		{"weird!!name??.pdf", "weird_name"},
		{"...", "narration"},
		{"", "narration"},
	}
	for _, tc := range cases {
		if got := SanitizeBaseName(tc.in); got != tc.want {
			t.Errorf("SanitizeBaseName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewFileManagerCreatesDirs(t *testing.T) {
	root := t.TempDir()
	up := filepath.Join(root, "uploads")
	au := filepath.Join(root, "audio")

	fm, err := NewFileManager(up, au)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	for _, dir := range []string{fm.UploadDir(), fm.AudioDir()} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Errorf("directory %s missing", dir)
		}
	}
}

func TestSaveUpload(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path, err := fm.SaveUpload("A Study.pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if filepath.Base(path) != "A_Study.pdf" {
		t.Errorf("saved as %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "%PDF-1.4 fake" {
		t.Errorf("content mismatch: %q, %v", data, err)
	}
}

func TestAudioPathRejectsTraversal(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fm.AudioPath("../secret.mp3"); err == nil {
		t.Error("traversal accepted")
	}
	if _, err := fm.AudioPath("doc_combined.mp3"); err != nil {
		t.Errorf("plain filename rejected: %v", err)
	}
}

func TestTimingSidecarRoundTrip(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tm := &models.TimingMetadata{
		TotalDuration: 3.5,
		AudioFiles:    []string{"doc_combined.mp3"},
		TextSegments: []models.TextSegment{
			{Text: "Hello.", StartTime: 0, Duration: 1.5, SegmentType: models.SegmentTypeSentence},
			{Text: "World.", StartTime: 1.5, Duration: 2.0, SegmentType: models.SegmentTypeSentence, SentenceIndex: 1},
		},
	}

	name, err := fm.WriteTimingSidecar("doc", tm)
	if err != nil {
		t.Fatalf("WriteTimingSidecar: %v", err)
	}
	if name != "doc_timing.json" {
		t.Errorf("sidecar name = %q", name)
	}

	got, err := fm.ReadTimingSidecar("doc")
	if err != nil {
		t.Fatalf("ReadTimingSidecar: %v", err)
	}
	if got.TotalDuration != tm.TotalDuration || len(got.TextSegments) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TextSegments[1].Text != "World." {
		t.Errorf("segment text = %q", got.TextSegments[1].Text)
	}
}
