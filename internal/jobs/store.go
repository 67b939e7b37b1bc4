// Package jobs persists narration job records in Postgres.
package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/pdfnarrator/internal/models"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const jobColumns = `id, pdf_path, output_name, start_page, end_page, read_along,
	status, error, audio_files, combined_file, timing_file,
	total_pages, title, author, created_at, updated_at`

func scanJob(row pgx.Row) (*models.NarrationJob, error) {
	var j models.NarrationJob
	err := row.Scan(
		&j.ID, &j.PDFPath, &j.OutputName, &j.StartPage, &j.EndPage, &j.ReadAlong,
		&j.Status, &j.Error, &j.AudioFiles, &j.CombinedFile, &j.TimingFile,
		&j.TotalPages, &j.Title, &j.Author, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create inserts a pending job and returns the stored row.
func (s *Store) Create(ctx context.Context, job *models.NarrationJob) (*models.NarrationJob, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO narration_jobs
			(id, pdf_path, output_name, start_page, end_page, read_along, status, total_pages, title, author)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+jobColumns,
		job.ID, job.PDFPath, job.OutputName, job.StartPage, job.EndPage,
		job.ReadAlong, job.Status, job.TotalPages, job.Title, job.Author,
	)
	created, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert narration job: %w", err)
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.NarrationJob, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM narration_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("get narration job: %w", err)
	}
	return job, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]models.NarrationJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+jobColumns+` FROM narration_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list narration jobs: %w", err)
	}
	defer rows.Close()

	var out []models.NarrationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan narration job: %w", err)
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// MarkProcessing flips a pending job to processing.
func (s *Store) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE narration_jobs SET status = $1, updated_at = now() WHERE id = $2`,
		models.JobStatusProcessing, id)
	return err
}

// MarkDone records the artifacts of a successful run.
func (s *Store) MarkDone(ctx context.Context, id uuid.UUID, audioFiles []string, combined, timingFile string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE narration_jobs
		 SET status = $1, audio_files = $2, combined_file = $3, timing_file = $4,
		     error = '', updated_at = now()
		 WHERE id = $5`,
		models.JobStatusDone, audioFiles, combined, timingFile, id)
	return err
}

// MarkFailed records the terminal failure message.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE narration_jobs SET status = $1, error = $2, updated_at = now() WHERE id = $3`,
		models.JobStatusFailed, message, id)
	return err
}
