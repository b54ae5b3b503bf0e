package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/patteeraL/movra/services/currency-service/internal/provider"
	"github.com/patteeraL/movra/services/currency-service/internal/repository"
)

// MockProvider implements provider.RateProvider for testing
type MockProvider struct {
	FetchLatestFunc func(ctx context.Context, credential, base string) (*provider.LatestRates, error)
	mu              sync.Mutex
	calls           int
}

func (m *MockProvider) FetchLatest(ctx context.Context, credential, base string) (*provider.LatestRates, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.FetchLatestFunc != nil {
		return m.FetchLatestFunc(ctx, credential, base)
	}
	return &provider.LatestRates{
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Unix(),
		Base:      "USD",
		Rates:     map[string]float64{"PKR": 280, "EUR": 0.9},
		Provider:  "mock",
	}, nil
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockStore implements repository.SnapshotStore in memory with uniqueness on (base, date)
type MockStore struct {
	mu        sync.Mutex
	snapshots map[string]*model.RateSnapshot

	FindFunc   func(ctx context.Context, base, date string) (*model.RateSnapshot, error)
	InsertFunc func(ctx context.Context, snapshot *model.RateSnapshot) (*model.RateSnapshot, error)
	LatestFunc func(ctx context.Context) (*model.RateSnapshot, error)
	HealthFunc func(ctx context.Context) error
}

func NewMockStore() *MockStore {
	return &MockStore{snapshots: make(map[string]*model.RateSnapshot)}
}

func (m *MockStore) put(s *model.RateSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.snapshots[s.Base+":"+s.Date] = s
}

func (m *MockStore) FindByBaseAndDate(ctx context.Context, base, date string) (*model.RateSnapshot, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, base, date)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[base+":"+date]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (m *MockStore) Insert(ctx context.Context, snapshot *model.RateSnapshot) (*model.RateSnapshot, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := snapshot.Base + ":" + snapshot.Date
	if _, exists := m.snapshots[key]; exists {
		return nil, repository.ErrDuplicateSnapshot{Base: snapshot.Base, Date: snapshot.Date}
	}
	snapshot.ID = uuid.New()
	snapshot.CreatedAt = time.Now()
	m.snapshots[key] = snapshot
	return snapshot, nil
}

func (m *MockStore) FindLatest(ctx context.Context) (*model.RateSnapshot, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.RateSnapshot
	for _, s := range m.snapshots {
		if latest == nil || s.Date > latest.Date {
			latest = s
		}
	}
	return latest, nil
}

func (m *MockStore) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

// MockGeoClient implements geoip.Client for testing
type MockGeoClient struct {
	LookupFunc func(ctx context.Context, ip string) (string, error)
	mu         sync.Mutex
	calls      int
}

func (m *MockGeoClient) Lookup(ctx context.Context, ip string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ip)
	}
	return "US", nil
}

func (m *MockGeoClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockPublisher records published snapshots
type MockPublisher struct {
	mu        sync.Mutex
	published []*model.RateSnapshot
	err       error
}

func (m *MockPublisher) PublishSnapshotCreated(ctx context.Context, snapshot *model.RateSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, snapshot)
	return m.err
}

// MockResolver returns a fixed snapshot and counts calls
type MockResolver struct {
	Snapshot model.Snapshot
	mu       sync.Mutex
	calls    int
	dates    []string
}

func (m *MockResolver) ResolveSnapshot(ctx context.Context, date, base string) (model.Snapshot, Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.dates = append(m.dates, date)
	return m.Snapshot, TierStored
}

func (m *MockResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
