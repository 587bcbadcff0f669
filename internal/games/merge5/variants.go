// Package merge5 implements the 5x5 sliding-tile merge puzzle: a pure board
// engine (Slide, Move, Spawn), a stateful Engine with a deferred-spawn phase,
// and a tick-driven Game for the terminal platform.
package merge5

import (
	"sync"

	"github.com/vovakirdan/merge5/internal/registry"
)

// Variant is a registered flavor of the game.
type Variant struct {
	ID          string
	Title       string
	Description string
	Animated    bool
	// Adjust derives the variant's rules from the configured base rules.
	Adjust func(Rules) Rules
}

// Variants lists the registered variants in menu order.
var Variants = []Variant{
	{
		ID:          "merge5",
		Title:       "Merge 5x5",
		Description: "Tiles slide, then the new tile appears after a short delay",
		Animated:    true,
		Adjust:      func(r Rules) Rules { return r },
	},
	{
		ID:          "merge5_instant",
		Title:       "Merge 5x5 (Instant)",
		Description: "The new tile appears in the same tick as the move",
		Adjust: func(r Rules) Rules {
			r.SpawnDelay = 0
			return r
		},
	},
}

var (
	baseMu    sync.RWMutex
	baseRules = DefaultRules()
)

// Configure sets the base rules every variant derives from. Call it before
// creating games, typically from the loaded config.
func Configure(r Rules) {
	baseMu.Lock()
	defer baseMu.Unlock()
	baseRules = r.withDefaults()
}

// BaseRules returns the configured base rules.
func BaseRules() Rules {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return baseRules
}

// VariantByID looks up a variant.
func VariantByID(id string) (Variant, bool) {
	for _, v := range Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// RulesFor returns the effective rules of a variant under the base rules.
func (v Variant) RulesFor(base Rules) Rules {
	if v.Adjust == nil {
		return base.withDefaults()
	}
	return v.Adjust(base).withDefaults()
}

func init() {
	for _, v := range Variants {
		registry.Register(v.ID, func() registry.Game {
			return New(v)
		})
	}
}
