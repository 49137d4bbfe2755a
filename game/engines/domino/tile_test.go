package domino

import (
	"math/rand"
	"testing"
)

func TestNewDeckIntegrity(t *testing.T) {
	deck := NewDeck()
	if len(deck) != 28 {
		t.Fatalf("deck size expected 28, got %d", len(deck))
	}

	seen := make(map[string]bool)
	totalPips := 0
	for _, tile := range deck {
		if tile.Top > tile.Bottom {
			t.Fatalf("tile %s generated with top > bottom", tile)
		}
		if tile.Top < 0 || tile.Bottom > 6 {
			t.Fatalf("tile %s out of range", tile)
		}
		if seen[tile.String()] {
			t.Fatalf("duplicate tile %s in deck", tile)
		}
		seen[tile.String()] = true
		totalPips += tile.Pips()
	}
	// 0..6 双双组合的总点数
	if totalPips != 168 {
		t.Fatalf("deck total pips expected 168, got %d", totalPips)
	}
}

func TestShuffledDeckIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	deck := ShuffledDeck(rng)
	if len(deck) != 28 {
		t.Fatalf("shuffled deck size expected 28, got %d", len(deck))
	}
	seen := make(map[string]bool)
	for _, tile := range deck {
		if seen[tile.String()] {
			t.Fatalf("duplicate tile %s after shuffle", tile)
		}
		seen[tile.String()] = true
	}
}

func TestTileHelpers(t *testing.T) {
	double := Tile{Top: 4, Bottom: 4}
	if !double.IsDouble() {
		t.Fatalf("4|4 should be a double")
	}
	if double.Pips() != 8 {
		t.Fatalf("4|4 pips expected 8, got %d", double.Pips())
	}

	blank := Tile{Top: 0, Bottom: 5}
	if !blank.HasBlank() {
		t.Fatalf("0|5 should have a blank end")
	}
	if blank.IsDouble() {
		t.Fatalf("0|5 is not a double")
	}
	if !blank.HasValue(5) || blank.HasValue(3) {
		t.Fatalf("0|5 HasValue wrong")
	}
}

func TestTileNames(t *testing.T) {
	burro := Tile{Top: 6, Bottom: 6}
	if burro.Name() == "" {
		t.Fatalf("6|6 should have a folk name")
	}
	plain := Tile{Top: 2, Bottom: 5}
	if plain.Name() != "" {
		t.Fatalf("2|5 should have no folk name, got %q", plain.Name())
	}
}

func TestHandPips(t *testing.T) {
	hand := []Tile{{Top: 1, Bottom: 2}, {Top: 6, Bottom: 6}, {Top: 0, Bottom: 0}}
	if got := HandPips(hand); got != 15 {
		t.Fatalf("hand pips expected 15, got %d", got)
	}
	if HandPips(nil) != 0 {
		t.Fatalf("empty hand pips expected 0")
	}
}
