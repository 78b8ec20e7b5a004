package transcript

import (
	"context"
	"strings"
	"sync"
	"time"

	"animehome/backend/internal/relay"
	"animehome/backend/pkg/cache"
)

// maxMemoryStreams caps the in-process store; the stream nearest to expiry is evicted first.
const maxMemoryStreams = 10000

// MemoryStore keeps transcripts in process. Used when no Redis is configured.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.NewCache(ttl, time.Minute, maxMemoryStreams)}
}

func (m *MemoryStore) Append(_ context.Context, streamID, fragment string) error {
	m.cache.Update(streamID, func(current any) any {
		e := entryOf(current, streamID)
		e.mu.Lock()
		e.content.WriteString(fragment)
		e.mu.Unlock()
		return e
	})
	return nil
}

func (m *MemoryStore) Finish(_ context.Context, streamID string, res *relay.Result) error {
	m.cache.Update(streamID, func(current any) any {
		e := entryOf(current, streamID)
		e.mu.Lock()
		e.done = true
		e.delivery = string(res.Delivery)
		e.persistence = string(res.Persistence)
		e.messageID = res.MessageID
		e.mu.Unlock()
		return e
	})
	return nil
}

func (m *MemoryStore) Get(_ context.Context, streamID string) (*Entry, error) {
	v, ok := m.cache.Get(streamID)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*memoryEntry).snapshot(), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	m.cache.Close()
	return nil
}

// memoryEntry grows in place so appends stay linear in the reply length.
type memoryEntry struct {
	mu          sync.Mutex
	streamID    string
	content     strings.Builder
	done        bool
	delivery    string
	persistence string
	messageID   string
}

func entryOf(current any, streamID string) *memoryEntry {
	if e, ok := current.(*memoryEntry); ok {
		return e
	}
	return &memoryEntry{streamID: streamID}
}

func (e *memoryEntry) snapshot() *Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &Entry{
		StreamID:    e.streamID,
		Content:     e.content.String(),
		Done:        e.done,
		Delivery:    e.delivery,
		Persistence: e.persistence,
		MessageID:   e.messageID,
	}
}
