package telemetry

import "time"

type EventType string

const (
	EventPurchase       EventType = "purchase"
	EventPurchaseFailed EventType = "purchase_failed"
	EventSkillLearned   EventType = "skill_learned"
	EventLearnFailed    EventType = "learn_failed"
	EventItemUnlocked   EventType = "item_unlocked"
	EventAction         EventType = "action"
	EventSaveLoaded     EventType = "save_loaded"
	EventSaveMalformed  EventType = "save_malformed"
	EventSaveMigrated   EventType = "save_migrated"
	EventSaveWritten    EventType = "save_written"
	EventSaveFailed     EventType = "save_failed"
	EventStateReset     EventType = "state_reset"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
