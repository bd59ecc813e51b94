package telemetry

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultCapacity bounds how many events a MemoryRepository keeps.
const DefaultCapacity = 10000

// Repository stores telemetry events
type Repository interface {
	RecordEvent(eventType EventType, metadata EventMetadata) error
	GetEvents(since time.Time, eventTypes []EventType) ([]Event, error)
	Clear() error
}

// MemoryRepository stores the most recent events in memory. Older events
// are dropped once capacity is reached.
type MemoryRepository struct {
	mu       sync.RWMutex
	events   []Event
	nextID   int
	capacity int
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(DefaultCapacity, time.Now)
}

func NewMemoryRepositoryWithClock(capacity int, now func() time.Time) *MemoryRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		events:   make([]Event, 0),
		nextID:   1,
		capacity: capacity,
		now:      now,
	}
}

func (r *MemoryRepository) RecordEvent(eventType EventType, metadata EventMetadata) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	event := Event{
		ID:        r.nextID,
		Type:      eventType,
		Timestamp: r.now(),
		Metadata:  string(metadataJSON),
	}

	if len(r.events) >= r.capacity {
		drop := len(r.events) - r.capacity + 1
		r.events = append(r.events[:0], r.events[drop:]...)
	}
	r.events = append(r.events, event)
	r.nextID++

	return nil
}

func (r *MemoryRepository) GetEvents(since time.Time, eventTypes []EventType) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeFilter := make(map[EventType]bool)
	for _, t := range eventTypes {
		typeFilter[t] = true
	}

	result := make([]Event, 0)
	for _, event := range r.events {
		if event.Timestamp.Before(since) {
			continue
		}
		if len(eventTypes) > 0 && !typeFilter[event.Type] {
			continue
		}
		result = append(result, event)
	}

	return result, nil
}

func (r *MemoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make([]Event, 0)
	r.nextID = 1

	return nil
}
