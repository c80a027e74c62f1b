// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
)

// MockPlayer is a test double for [services.Player] that keeps its queue in memory.
type MockPlayer struct {
	mu         sync.Mutex
	Queue      []models.QueueItem
	NowPlaying models.NowPlaying
	Volume     models.Volume
	Position   int
	Actions    []services.Action
	Err        error // returned by every mutating call when set

	reachable atomic.Bool
	probes    atomic.Int64
}

// NewMockPlayer creates a reachable [MockPlayer] holding songs in its queue.
func NewMockPlayer(songs ...models.Song) *MockPlayer {
	m := &MockPlayer{Volume: models.Volume{State: 50}}
	for _, s := range songs {
		m.Queue = append(m.Queue, models.QueueItem{Song: s, Index: len(m.Queue)})
	}
	m.reachable.Store(true)
	return m
}

// SetReachable changes what IsReachable reports.
func (m *MockPlayer) SetReachable(v bool) { m.reachable.Store(v) }

// Probes returns how many times IsReachable was called.
func (m *MockPlayer) Probes() int { return int(m.probes.Load()) }

func (m *MockPlayer) IsReachable(context.Context) bool {
	m.probes.Add(1)
	return m.reachable.Load()
}

func (m *MockPlayer) GetQueue(context.Context) []models.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.QueueItem, len(m.Queue))
	copy(out, m.Queue)
	return out
}

func (m *MockPlayer) GetNowPlaying(context.Context) models.NowPlaying {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowPlaying
}

func (m *MockPlayer) Enqueue(_ context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("%w: videoId is required", shared.ErrValidation)
	}
	m.Queue = append(m.Queue, models.QueueItem{Song: models.Song{VideoID: videoID}, Index: len(m.Queue)})
	return nil
}

func (m *MockPlayer) RemoveAt(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if index < 0 || index >= len(m.Queue) {
		return fmt.Errorf("%w: queue index %d out of range", shared.ErrValidation, index)
	}
	m.Queue = append(m.Queue[:index], m.Queue[index+1:]...)
	for i := range m.Queue {
		m.Queue[i].Index = i
	}
	return nil
}

func (m *MockPlayer) SeekTo(_ context.Context, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if seconds < 0 {
		return fmt.Errorf("%w: negative seek", shared.ErrValidation)
	}
	m.Position = seconds
	return nil
}

func (m *MockPlayer) GetVolume(context.Context) (models.Volume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Volume{}, m.Err
	}
	return m.Volume, nil
}

func (m *MockPlayer) SetVolume(_ context.Context, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if volume < 0 || volume > 100 {
		return fmt.Errorf("%w: volume out of range", shared.ErrValidation)
	}
	m.Volume.State = volume
	return nil
}

func (m *MockPlayer) Transport(_ context.Context, action services.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if !action.Valid() {
		return fmt.Errorf("%w: unsupported action %q", shared.ErrValidation, action)
	}
	m.Actions = append(m.Actions, action)
	return nil
}

// MockSearcher is a test double for [services.Searcher] keyed by query.
type MockSearcher struct {
	mu      sync.Mutex
	Results map[string][]models.SearchResult
	Fail    map[string]bool
	Queries []string
}

func (m *MockSearcher) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.Fail[query] {
		return nil, fmt.Errorf("%w: mock failure for %q", shared.ErrUpstreamSearch, query)
	}
	results := m.Results[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
