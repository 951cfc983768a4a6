// Package store provides persistence for attestation submissions.
package store

import (
	"context"
	"sync"
	"time"

	"caredex/internal/attestation/models"
	"caredex/pkg/domain"
	"caredex/pkg/platform/sentinel"
)

// InMemorySubmissions implements service.SubmissionStore with a map.
type InMemorySubmissions struct {
	mu          sync.RWMutex
	submissions map[domain.SubmissionID]models.Submission
}

func NewInMemorySubmissions() *InMemorySubmissions {
	return &InMemorySubmissions{submissions: make(map[domain.SubmissionID]models.Submission)}
}

func (s *InMemorySubmissions) Create(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[submission.ID] = *submission
	return nil
}

func (s *InMemorySubmissions) FindByID(_ context.Context, id domain.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if submission, ok := s.submissions[id]; ok {
		return &submission, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemorySubmissions) CountRecent(_ context.Context, fingerprint string,
	providerID domain.ProviderID, planID domain.PlanID, since time.Time) (int, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, submission := range s.submissions {
		if submission.Fingerprint == fingerprint &&
			submission.ProviderID == providerID &&
			submission.PlanID == planID &&
			!submission.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
