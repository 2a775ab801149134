package domain

import "strings"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is only valid as a request filter, never on a stored word.
	DifficultyMixed Difficulty = "mixed"
)

// ParseDifficulty accepts any casing and surrounding spaces.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return d, true
	}
	return "", false
}

// IsTier reports whether d names a concrete tier a word can belong to.
func (d Difficulty) IsTier() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type Word struct {
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	Category   string     `json:"category"`
}

type ScoredMember struct {
	Member string
	Score  float64
}
