package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docintel/internal/pipeline"
)

// handleAnalyze queues a persona-analysis batch over the uploaded files.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := pipeline.Request{
		Persona: r.FormValue("persona"),
		Job:     r.FormValue("job_to_be_done"),
	}

	var files []*multipart.FileHeader
	files = append(files, r.MultipartForm.File["files"]...)
	files = append(files, r.MultipartForm.File["files[]"]...)
	var rejected []map[string]string
	for _, fh := range files {
		doc, _, err := s.readUpload(fh)
		if err != nil {
			rejected = append(rejected, map[string]string{
				"filename": sanitizeFilename(fh.Filename),
				"error":    err.Error(),
			})
			continue
		}
		req.Documents = append(req.Documents, doc)
	}
	if len(files) > 0 && len(req.Documents) == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "no usable files", "rejected": rejected})
		return
	}

	job, err := s.orchestrator.Submit(req)
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, pipeline.ErrQueueFull):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap := job.Snapshot()
	resp := map[string]any{
		"job_id":     snap.ID,
		"status":     snap.Status,
		"documents":  snap.Documents,
		"poll_url":   fmt.Sprintf("/api/analyze/%s", snap.ID),
		"result_url": fmt.Sprintf("/api/analyze/%s/result", snap.ID),
	}
	if len(rejected) > 0 {
		resp["rejected"] = rejected
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleAnalyzeResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	switch {
	case snap.Status == pipeline.StatusFailed:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"error": "job failed", "errors": snap.Progress.Errors})
		return
	case !snap.Status.Done():
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}

	result, ok := job.Result()
	if !ok {
		jsonError(w, "result unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
