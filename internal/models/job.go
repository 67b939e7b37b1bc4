package models

import (
	"time"

	"github.com/google/uuid"
)

// NarrationJob is the persisted record of one PDF-to-audio request.
type NarrationJob struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PDFPath      string    `json:"pdf_path" db:"pdf_path"`
	OutputName   string    `json:"output_name" db:"output_name"`
	StartPage    int       `json:"start_page,omitempty" db:"start_page"`
	EndPage      int       `json:"end_page,omitempty" db:"end_page"`
	ReadAlong    bool      `json:"read_along" db:"read_along"`
	Status       string    `json:"status" db:"status"`
	Error        string    `json:"error,omitempty" db:"error"`
	AudioFiles   []string  `json:"audio_files,omitempty" db:"audio_files"`
	CombinedFile string    `json:"combined_file,omitempty" db:"combined_file"`
	TimingFile   string    `json:"timing_file,omitempty" db:"timing_file"`
	TotalPages   int       `json:"total_pages,omitempty" db:"total_pages"`
	Title        string    `json:"title,omitempty" db:"title"`
	Author       string    `json:"author,omitempty" db:"author"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
)

// Request reconstructs the pipeline input from the stored row.
func (j *NarrationJob) Request() ProcessingRequest {
	return ProcessingRequest{
		PDFPath:    j.PDFPath,
		OutputName: j.OutputName,
		PageRange:  PageRange{StartPage: j.StartPage, EndPage: j.EndPage},
		ReadAlong:  j.ReadAlong,
	}
}
