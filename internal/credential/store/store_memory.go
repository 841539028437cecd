package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"idverse/internal/credential/models"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[models.CredentialID]models.CredentialRecord
	requests map[models.CredentialRequestID]models.CredentialRequest
}

// NewInMemoryStore constructs an empty in-memory credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[models.CredentialID]models.CredentialRecord),
		requests: make(map[models.CredentialRequestID]models.CredentialRequest),
	}
}

// Save stores or overwrites a credential record by ID.
func (s *InMemoryStore) Save(_ context.Context, record models.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// FindByID retrieves a credential record by ID or returns ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, id models.CredentialID) (models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return models.CredentialRecord{}, ErrNotFound
}

// FindByCID returns the most recently issued record stored under cid.
func (s *InMemoryStore) FindByCID(_ context.Context, cid string) (models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.CredentialRecord
	for _, rec := range s.records {
		if rec.CID != cid {
			continue
		}
		if found == nil || rec.IssuedAt.After(found.IssuedAt) {
			r := rec
			found = &r
		}
	}
	if found == nil {
		return models.CredentialRecord{}, ErrNotFound
	}
	return *found, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID string) ([]models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.CredentialRecord
	for _, rec := range s.records {
		if rec.SubjectID == subjectID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (s *InMemoryStore) SaveRequest(_ context.Context, req models.CredentialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.Claims = maps.Clone(req.Claims)
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryStore) FindRequest(_ context.Context, id models.CredentialRequestID) (models.CredentialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return models.CredentialRequest{}, ErrRequestNotFound
	}
	req.Claims = maps.Clone(req.Claims)
	return req, nil
}

func (s *InMemoryStore) MarkRequestIssued(_ context.Context, id models.CredentialRequestID, credentialID models.CredentialID, approvedBy string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return ErrRequestNotPending
	}
	req.Status = models.RequestIssued
	req.ApprovedAt = &at
	req.ApprovedBy = approvedBy
	req.CredentialID = credentialID
	s.requests[id] = req
	return nil
}
