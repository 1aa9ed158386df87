package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ingestRequest struct {
	LawID     string   `json:"law_id"`
	Scope     string   `json:"scope,omitempty"`
	Locations []string `json:"locations,omitempty"`
	Resume    bool     `json:"resume,omitempty"`
}

type ingestResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// handleIngest queues a crawl job for a law.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.LawID == "" {
		jsonError(w, "law_id is required", http.StatusBadRequest)
		return
	}

	job := s.orchestrator.NewJob(req.LawID, req.Scope, req.Locations, req.Resume)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("ingest queued", "job_id", job.ID, "law_id", req.LawID, "queue_depth", s.orchestrator.QueueDepth())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, ingestResponse{JobID: job.ID, Status: string(job.Status)})
}

// handleIngestStatus reports a job's progress.
func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, job.Snapshot())
}
