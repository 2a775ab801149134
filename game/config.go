package game

import (
	"time"

	"github.com/spexcher/Pictionary/domain"
)

type Config struct {
	MinPlayers      int
	MaxPlayers      int
	EasyRound       time.Duration
	MediumRound     time.Duration
	HardRound       time.Duration
	MultiplierMin   float64
	MultiplierMax   float64
	SessionTTL      time.Duration
	TransitionDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinPlayers:      3,
		MaxPlayers:      8,
		EasyRound:       60 * time.Second,
		MediumRound:     90 * time.Second,
		HardRound:       120 * time.Second,
		MultiplierMin:   0.5,
		MultiplierMax:   2.0,
		SessionTTL:      time.Hour,
		TransitionDelay: 3 * time.Second,
	}
}

// baseDuration of a word tier. Words with an unknown tier get the medium time.
func (c Config) baseDuration(d domain.Difficulty) time.Duration {
	switch d {
	case domain.DifficultyEasy:
		return c.EasyRound
	case domain.DifficultyHard:
		return c.HardRound
	default:
		return c.MediumRound
	}
}
