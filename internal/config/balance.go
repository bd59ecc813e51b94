package config

import (
	"math"

	"github.com/jtafstn/webidle/internal/catalog"
)

// Balance scales the economy document for a difficulty preset.
type Balance struct {
	Name string `json:"name"`

	// Prices: fixed costs, scaled bases and steps, family breakpoints.
	CostMultiplier float64 `json:"cost_multiplier"`
	// Flat production gains from items and family levels.
	ProductionMultiplier float64 `json:"production_multiplier"`
}

// DefaultBalance returns the balance the document was tuned for.
func DefaultBalance() Balance {
	return Balance{Name: "default", CostMultiplier: 1, ProductionMultiplier: 1}
}

// Casual returns easier balance for casual difficulty
func Casual() Balance {
	b := DefaultBalance()
	b.Name = "casual"
	b.CostMultiplier = 0.75
	b.ProductionMultiplier = 1.5
	return b
}

// Hard returns harder balance for experienced players
func Hard() Balance {
	b := DefaultBalance()
	b.Name = "hard"
	b.CostMultiplier = 1.5
	return b
}

// Preset resolves a difficulty name.
func Preset(name string) (Balance, bool) {
	switch name {
	case "", "default":
		return DefaultBalance(), true
	case "casual":
		return Casual(), true
	case "hard":
		return Hard(), true
	}
	return Balance{}, false
}

// Apply returns a rescaled copy of doc. Breakpoint costs stay strictly
// increasing after rounding.
func (b Balance) Apply(doc catalog.Document) catalog.Document {
	out := doc.Clone()
	if b.CostMultiplier == 1 && b.ProductionMultiplier == 1 {
		return out
	}
	scaleEntries(out.Items, b)
	scaleEntries(out.Skills, b)
	return out
}

func scaleEntries(entries []catalog.Entry, b Balance) {
	for i := range entries {
		e := &entries[i]
		e.Cost.Amount = scaleCost(e.Cost.Amount, b.CostMultiplier)
		e.Cost.Base = scaleCost(e.Cost.Base, b.CostMultiplier)
		e.Cost.Step = scaleCost(e.Cost.Step, b.CostMultiplier)
		for j := range e.Effects {
			if e.Effects[j].Kind == catalog.EffAddProduction {
				e.Effects[j].Amount *= b.ProductionMultiplier
			}
		}
		if e.Family == nil {
			continue
		}
		e.Family.PerLevel *= b.ProductionMultiplier
		var prev int64
		for j := range e.Family.Breakpoints {
			c := scaleCost(e.Family.Breakpoints[j].Cost, b.CostMultiplier)
			if c <= prev {
				c = prev + 1
			}
			e.Family.Breakpoints[j].Cost = c
			prev = c
		}
	}
}

func scaleCost(v int64, m float64) int64 {
	if v <= 0 || m <= 0 {
		return v
	}
	scaled := int64(math.Round(float64(v) * m))
	if scaled < 1 {
		return 1
	}
	return scaled
}
