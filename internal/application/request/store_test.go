package request

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aidbridge-api/internal/domain"
)

// memStore is an in-memory requestStore with the same conditional claim
// semantics as the DynamoDB repo.
type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.AidRequest
}

func newMemStore() *memStore { return &memStore{rows: map[string]domain.AidRequest{}} }

func (m *memStore) Put(_ context.Context, req *domain.AidRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[req.RequestID]; ok {
		return domain.ErrConflict
	}
	m.rows[req.RequestID] = *req
	return nil
}

func (m *memStore) Get(_ context.Context, requestID string) (*domain.AidRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok {
		return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
	}
	return &r, nil
}

func (m *memStore) Claim(_ context.Context, requestID, claimant, claimSeq string, at time.Time) (*domain.AidRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok {
		return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
	}
	if r.Status != domain.StatusOpen {
		return nil, fmt.Errorf("claim: %w", domain.ErrAlreadyClaimed)
	}
	r.Status = domain.StatusClaimed
	r.Claimant = &claimant
	r.ClaimSeq = claimSeq
	r.ClaimedAt = &at
	r.UpdatedAt = &at
	m.rows[requestID] = r
	return &r, nil
}

func (m *memStore) SetImage(_ context.Context, requestID, url string, at time.Time) (*domain.AidRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok {
		return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
	}
	r.ImageURL = &url
	r.UpdatedAt = &at
	m.rows[requestID] = r
	return &r, nil
}

func (m *memStore) List(_ context.Context, f domain.RequestFilter) (domain.RequestPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []domain.AidRequest
	for _, r := range m.rows {
		switch {
		case f.Owner != "" && r.Requester != f.Owner,
			f.Claimant != "" && (r.Claimant == nil || *r.Claimant != f.Claimant),
			f.Status != "" && r.Status != f.Status,
			f.Category != "" && r.Category != f.Category,
			f.Urgency != "" && r.Urgency != f.Urgency:
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].RequestID > matched[j].RequestID })

	start := 0
	if f.Cursor != "" {
		start, _ = strconv.Atoi(f.Cursor)
	}
	start = min(start, len(matched))
	end := min(start+f.Limit, len(matched))
	page := domain.RequestPage{Items: append([]domain.AidRequest{}, matched[start:end]...)}
	if end < len(matched) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (m *memStore) row(id string) domain.AidRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

type sentNotification struct {
	recipient, requestID, message string
}

// recordingNotifier captures Notify calls.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, recipient, requestID, message string) (*domain.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	n.sent = append(n.sent, sentNotification{recipient, requestID, message})
	return &domain.Notification{UserID: recipient, RequestID: requestID, Message: message}, nil
}

func (n *recordingNotifier) calls() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification{}, n.sent...)
}
