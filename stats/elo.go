package stats

import "math"

const (
	startingElo = 1200
	kFactor     = 32
	minElo      = 100
	maxElo      = 3000

	// Per-game rating change is clamped so one upset cannot wreck a ladder.
	maxEloSwing = 50

	impostorWinBonus    = 5
	crewmateTaskBonus   = 3
	taskBonusCompletion = 0.8
)

// expected returns the score the Elo formula predicts for a player rated ra
// against an opponent rated rb (0.5 = equal chances, >0.5 favourite).
func expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// eloChange computes the clamped rating delta for one game.
func eloChange(rating, avgOpponent float64, won bool, roleBonus int) int {
	score := 0.0
	if won {
		score = 1.0
	}
	change := int(math.Round(kFactor*(score-expected(rating, avgOpponent)))) + roleBonus

	if change > maxEloSwing {
		change = maxEloSwing
	}
	if change < -maxEloSwing {
		change = -maxEloSwing
	}
	return change
}

func clampElo(elo int) int {
	if elo < minElo {
		return minElo
	}
	if elo > maxElo {
		return maxElo
	}
	return elo
}

type rankTier struct {
	Name   string
	MinElo int
	MaxElo int
}

var rankTiers = []rankTier{
	{"Bronze", 100, 899},
	{"Silver", 900, 1299},
	{"Gold", 1300, 1699},
	{"Platinum", 1700, 2099},
	{"Diamond", 2100, 2499},
	{"Master", 2500, 2899},
	{"Grand Master", 2900, 3000},
}

func rankFromElo(elo int) string {
	for _, tier := range rankTiers {
		if elo >= tier.MinElo && elo <= tier.MaxElo {
			return tier.Name
		}
	}
	return rankTiers[0].Name
}
