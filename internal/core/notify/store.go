package notify

import (
	"context"
	"sync"
	"time"
)

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification represents a single notification event.
type Notification struct {
	ID        int64
	Level     Level
	Title     string
	Message   string
	CreatedAt time.Time
}

// Store keeps published notifications.
type Store interface {
	Save(ctx context.Context, n Notification) (int64, error)
	List(ctx context.Context) ([]Notification, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// MemoryStore is a Store that lives for the process lifetime. When Max is
// positive the oldest notifications are dropped beyond it.
type MemoryStore struct {
	Max int

	mu     sync.Mutex
	items  []Notification
	nextID int64
}

// NewMemoryStore creates a MemoryStore holding at most max notifications.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{Max: max}
}

func (m *MemoryStore) Save(_ context.Context, n Notification) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	n.ID = m.nextID
	m.items = append(m.items, n)
	if m.Max > 0 && len(m.items) > m.Max {
		m.items = append([]Notification(nil), m.items[len(m.items)-m.Max:]...)
	}
	return n.ID, nil
}

// List returns notifications newest first.
func (m *MemoryStore) List(_ context.Context) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Notification, len(m.items))
	for i, n := range m.items {
		out[len(m.items)-1-i] = n
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}
