package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"transcript-tool/internal/domain"
)

// Memory is the in-process JobStore used with local dispatch. Records are
// copied on the way in and out, so callers never share mutable state with
// the map; Update holds the lock for the whole mutation, which is what
// makes a multi-field change atomic for concurrent readers.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]*domain.Job)}
}

func (m *Memory) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *Memory) Update(ctx context.Context, id string, fn func(*domain.Job) error) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	if err := fn(&cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now().UTC()
	m.jobs[id] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) Claim(ctx context.Context) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var queued []*domain.Job
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusQueued {
			queued = append(queued, job)
		}
	}
	if len(queued) == 0 {
		return nil, domain.ErrNoJobAvailable
	}
	sort.Slice(queued, func(i, j int) bool { return queued[i].CreatedAt.Before(queued[j].CreatedAt) })
	job := queued[0]
	job.Status = domain.JobStatusProcessing
	job.UpdatedAt = time.Now().UTC()
	cp := *job
	return &cp, nil
}

func (m *Memory) Close() error { return nil }
