package server

import (
	"net/http"
	"strconv"

	"github.com/pixelfan/pixelfan/admission"
	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/storage"
)

// generateRequest is the POST /generate body. The parameter fields are
// pointers so an omitted field and an explicit zero are distinguishable;
// omitted fields fall back to the stored defaults.
type generateRequest struct {
	Prompt   string   `json:"prompt"`
	Steps    *float64 `json:"steps,omitempty"`
	Guidance *float64 `json:"guidance,omitempty"`
	Control  *float64 `json:"control,omitempty"`
	IP       string   `json:"ip,omitempty"` // caller identity when fronted by a proxy that injects it
}

func (req *generateRequest) params() map[string]float64 {
	params := make(map[string]float64)
	if req.Steps != nil {
		params["steps"] = *req.Steps
	}
	if req.Guidance != nil {
		params["guidance"] = *req.Guidance
	}
	if req.Control != nil {
		params["control"] = *req.Control
	}
	return params
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	caller := req.IP
	if caller == "" {
		caller = callerID(r)
	}

	j, err := s.svc.CreateJob(r.Context(), req.Prompt, req.params(), caller)
	if err != nil {
		switch {
		case errors.Is(err, admission.ErrContentBlocked):
			writeError(w, http.StatusBadRequest, "prompt contains blocked content")
		case errors.Is(err, admission.ErrRateLimited):
			w.Header().Set("Retry-After", strconv.Itoa(admission.RetryAfterSeconds(err)))
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			logger.Errorw("Failed to create job", logger.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to create job")
		}
		return
	}

	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")

	j, err := s.svc.GetJobStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		logger.Errorw("Failed to load job",
			logger.FieldJobID, jobID,
			logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, j)
}

// enhanceRequest is the POST /enhance body.
type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

type enhanceResponse struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	enhanced := s.svc.EnhancePrompt(r.Context(), req.Prompt)
	writeJSON(w, http.StatusOK, enhanceResponse{
		Original: req.Prompt,
		Enhanced: enhanced,
	})
}

func (s *Server) handleListGalleries(w http.ResponseWriter, r *http.Request) {
	targets, err := s.images.ListGalleries()
	if err != nil {
		logger.Errorw("Failed to list galleries", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list galleries")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"galleries": targets})
}

func (s *Server) handleGalleryImages(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")

	keys, err := s.images.ListGalleryImages(target)
	if err != nil {
		logger.Errorw("Failed to list gallery images",
			"target", target,
			logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list gallery images")
		return
	}

	urls := make([]string, len(keys))
	for i, key := range keys {
		urls[i] = s.images.CDNURL(key)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"images": urls})
}
