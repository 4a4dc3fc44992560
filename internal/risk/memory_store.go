package risk

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	assessments map[string][]*Assessment // customerID → assessments
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments: make(map[string][]*Assessment),
	}
}

func (s *MemoryStore) Record(ctx context.Context, assessment *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assessments[assessment.CustomerID] = append(s.assessments[assessment.CustomerID], copyAssessment(assessment))
	return nil
}

func (s *MemoryStore) ListByCustomer(ctx context.Context, customerID string, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.assessments[customerID]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first.
	result := make([]*Assessment, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		result = append(result, copyAssessment(all[i]))
	}
	return result, nil
}

func copyAssessment(a *Assessment) *Assessment {
	out := *a
	out.Findings = make([]Finding, len(a.Findings))
	copy(out.Findings, a.Findings)
	out.Weights = make(map[string]float64, len(a.Weights))
	for k, v := range a.Weights {
		out.Weights[k] = v
	}
	return &out
}
