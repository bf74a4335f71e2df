// Package service is the orchestration layer: it runs the admission
// pipeline, creates jobs, hands them to the scheduler, and answers
// status and enhancement requests. It is transport-agnostic; the HTTP
// front door in server/ is one thin caller.
package service

import (
	"context"

	"github.com/pixelfan/pixelfan/admission"
	"github.com/pixelfan/pixelfan/ai"
	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/job"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/registry"
	"github.com/pixelfan/pixelfan/scheduler"
)

// Service owns the request pipeline for job creation, status reads, and
// prompt enhancement.
type Service struct {
	providers *registry.View
	filter    *admission.ContentFilter
	limiter   *admission.RateLimiter
	store     *job.Store
	executor  *scheduler.Executor
	enhancer  *ai.Enhancer
}

// New wires the service from its already-constructed parts.
func New(providers *registry.View, filter *admission.ContentFilter, limiter *admission.RateLimiter, store *job.Store, executor *scheduler.Executor, enhancer *ai.Enhancer) *Service {
	return &Service{
		providers: providers,
		filter:    filter,
		limiter:   limiter,
		store:     store,
		executor:  executor,
		enhancer:  enhancer,
	}
}

// CreateJob runs the admission pipeline and, on success, persists a
// pending job and launches its tasks. The returned job reflects the
// state at creation; progress is observed via GetJobStatus.
//
// Admission checks run in a fixed order: content filter first, then
// rate limiter. A blocked prompt consumes no rate-limit budget and
// leaves no job behind.
func (s *Service) CreateJob(ctx context.Context, prompt string, params map[string]float64, callerID string) (*job.Job, error) {
	if err := s.filter.Check(prompt); err != nil {
		logger.Infow("Rejected prompt",
			logger.FieldCallerID, callerID,
			logger.FieldError, err)
		return nil, err
	}

	if err := s.limiter.Admit(callerID); err != nil {
		logger.Infow("Rate limited",
			logger.FieldCallerID, callerID,
			logger.FieldError, err)
		return nil, err
	}

	providers := s.providers.All()
	j, err := s.store.Create(prompt, params, providers)
	if err != nil {
		return nil, err
	}

	s.executor.Launch(j, providers)
	return j, nil
}

// GetJobStatus returns the current job document.
// Missing jobs surface storage.ErrNotFound.
func (s *Service) GetJobStatus(ctx context.Context, jobID string) (*job.Job, error) {
	if jobID == "" {
		return nil, errors.New("job id is required")
	}
	return s.store.Get(jobID)
}

// EnhancePrompt expands prompt into a richer generation prompt.
// Enhancement never fails: any problem returns the original prompt.
func (s *Service) EnhancePrompt(ctx context.Context, prompt string) string {
	return s.enhancer.Enhance(ctx, prompt)
}
