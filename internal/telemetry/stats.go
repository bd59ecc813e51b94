package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period           string            `json:"period"`
	EventCounts      map[EventType]int `json:"event_counts"`
	Purchases        int               `json:"purchases"`
	SkillsLearned    int               `json:"skills_learned"`
	GoldSpent        int64             `json:"gold_spent"`
	ItemsUnlocked    int               `json:"items_unlocked"`
	FailuresByReason map[string]int    `json:"failures_by_reason"`
	PurchasesByItem  map[string]int    `json:"purchases_by_item"`
	Actions          int               `json:"actions"`
	SavesWritten     int               `json:"saves_written"`
	SaveFailures     int               `json:"save_failures"`
	MalformedLoads   int               `json:"malformed_loads"`
}

// CalculateStats computes economy stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:           since.Format("2006-01-02"),
		EventCounts:      make(map[EventType]int),
		FailuresByReason: make(map[string]int),
		PurchasesByItem:  make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventPurchase, EventSkillLearned:
			if event.Type == EventPurchase {
				stats.Purchases++
				if id, ok := metadata["id"].(string); ok {
					stats.PurchasesByItem[id]++
				}
			} else {
				stats.SkillsLearned++
			}
			if cost, ok := metadata["cost"].(float64); ok {
				stats.GoldSpent += int64(cost)
			}
		case EventPurchaseFailed, EventLearnFailed:
			if reason, ok := metadata["reason"].(string); ok {
				stats.FailuresByReason[reason]++
			}
		case EventItemUnlocked:
			stats.ItemsUnlocked++
		case EventAction:
			stats.Actions++
		case EventSaveWritten:
			stats.SavesWritten++
		case EventSaveFailed:
			stats.SaveFailures++
		case EventSaveMalformed:
			stats.MalformedLoads++
		}
	}

	return stats, nil
}
