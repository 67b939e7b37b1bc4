package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nikhilbhutani/pdfnarrator/internal/cache"
	"github.com/nikhilbhutani/pdfnarrator/internal/document"
	"github.com/nikhilbhutani/pdfnarrator/internal/jobs"
	"github.com/nikhilbhutani/pdfnarrator/internal/models"
	"github.com/nikhilbhutani/pdfnarrator/internal/queue"
	"github.com/nikhilbhutani/pdfnarrator/internal/storage"
)

type NarrationHandler struct {
	store *jobs.Store
	docs  *document.Service
	files *storage.FileManager
	queue *queue.Client
	cache *cache.Cache
}

func NewNarrationHandler(store *jobs.Store, docs *document.Service, files *storage.FileManager, qc *queue.Client, c *cache.Cache) *NarrationHandler {
	return &NarrationHandler{store: store, docs: docs, files: files, queue: qc, cache: c}
}

// Create accepts a PDF upload plus narration options, stores the file,
// validates it and enqueues a background narration job.
func (h *NarrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only PDF files are supported"})
		return
	}

	pages, err := parsePageRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	outputName := r.FormValue("output_name")
	if outputName == "" {
		outputName = header.Filename
	}

	pdfPath, err := h.files.SaveUpload(header.Filename, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store upload"})
		return
	}

	info, err := h.docs.ValidateRange(pdfPath, pages)
	if err != nil {
		var bad models.ErrInvalidPageRange
		if errors.As(err, &bad) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "could not read PDF: " + err.Error()})
		return
	}

	job, err := h.store.Create(r.Context(), &models.NarrationJob{
		PDFPath:    pdfPath,
		OutputName: storage.SanitizeBaseName(outputName),
		StartPage:  pages.StartPage,
		EndPage:    pages.EndPage,
		ReadAlong:  r.FormValue("read_along") == "true",
		TotalPages: info.TotalPages,
		Title:      info.Title,
		Author:     info.Author,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	if err := h.queue.EnqueueNarrationProcess(queue.NarrationProcessPayload{JobID: job.ID.String()}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue job"})
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// Get returns the current job status, preferring the Redis snapshot and
// falling back to Postgres on a miss.
func (h *NarrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job ID"})
		return
	}

	if h.cache != nil {
		var cached models.NarrationJob
		if err := h.cache.GetJobStatus(r.Context(), id.String(), &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	job, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *NarrationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list jobs"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   list,
		"limit":  limit,
		"offset": offset,
	})
}

// DownloadAudio streams one of the job's rendered files. Only filenames
// recorded on the job are served.
func (h *NarrationHandler) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	filename := chi.URLParam(r, "filename")
	if !jobOwnsFile(job, filename) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found on job"})
		return
	}

	path, err := h.files.AudioPath(filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	http.ServeFile(w, r, path)
}

// DownloadTiming serves the read-along sidecar for a finished job.
func (h *NarrationHandler) DownloadTiming(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	if job.TimingFile == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job has no timing data"})
		return
	}

	path, err := h.files.AudioPath(job.TimingFile)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

func (h *NarrationHandler) loadJob(w http.ResponseWriter, r *http.Request) (*models.NarrationJob, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job ID"})
		return nil, false
	}
	job, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return nil, false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return nil, false
	}
	return job, true
}

func jobOwnsFile(job *models.NarrationJob, filename string) bool {
	if filename == "" {
		return false
	}
	if filename == job.CombinedFile || filename == job.TimingFile {
		return true
	}
	for _, f := range job.AudioFiles {
		if f == filename {
			return true
		}
	}
	return false
}

func parsePageRange(r *http.Request) (models.PageRange, error) {
	var pr models.PageRange
	if v := r.FormValue("start_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pr, errors.New("start_page must be an integer")
		}
		pr.StartPage = n
	}
	if v := r.FormValue("end_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pr, errors.New("end_page must be an integer")
		}
		pr.EndPage = n
	}
	return pr, nil
}

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
