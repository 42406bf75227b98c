package stats

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gato2fraises/among-us-io/game"
)

// Ranking is one player's ladder entry, keyed by name. No persistence: the
// ladder lives and dies with the process, like the rest of the room state.
type Ranking struct {
	Name        string  `json:"name"`
	Elo         int     `json:"elo"`
	Rank        string  `json:"rank"`
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"`
	Streak      int     `json:"streak"`
	BestStreak  int     `json:"bestStreak"`
	Kills       int     `json:"kills"`
	Tasks       int     `json:"tasksCompleted"`
}

// Store accumulates match results into rankings. RecordMatch is called from
// the lobby reactor while the leaderboard handler reads concurrently, hence
// the RWMutex.
type Store struct {
	mu       sync.RWMutex
	rankings map[string]*Ranking
}

func NewStore() *Store {
	return &Store{rankings: make(map[string]*Ranking)}
}

func (s *Store) ranking(name string) *Ranking {
	if r, exists := s.rankings[name]; exists {
		return r
	}
	r := &Ranking{Name: name, Elo: startingElo, Rank: rankFromElo(startingElo)}
	s.rankings[name] = r
	return r
}

func won(p game.PlayerResult, reason string) bool {
	if p.Impostor {
		return reason == game.ReasonImpostorsWin
	}
	return reason == game.ReasonCrewmatesWinElimination || reason == game.ReasonCrewmatesWinTasks
}

// RecordMatch implements game.MatchRecorder.
func (s *Store) RecordMatch(result game.MatchResult) {
	if len(result.Players) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Rate everyone against the pre-match ratings. Guests are free to share
	// a name, so within a match players are told apart by id.
	before := make(map[string]int, len(result.Players))
	for _, p := range result.Players {
		before[p.Id] = s.ranking(p.Name).Elo
	}

	for _, p := range result.Players {
		r := s.ranking(p.Name)

		opponentSum := 0
		opponents := 0
		for _, other := range result.Players {
			if other.Id != p.Id {
				opponentSum += before[other.Id]
				opponents++
			}
		}
		avgOpponent := float64(r.Elo)
		if opponents > 0 {
			avgOpponent = float64(opponentSum) / float64(opponents)
		}

		didWin := won(p, result.Reason)

		roleBonus := 0
		if p.Impostor && didWin {
			roleBonus = impostorWinBonus
		} else if !p.Impostor && p.TasksAssigned > 0 &&
			float64(p.TasksCompleted)/float64(p.TasksAssigned) >= taskBonusCompletion {
			roleBonus = crewmateTaskBonus
		}

		change := eloChange(float64(before[p.Id]), avgOpponent, didWin, roleBonus)
		r.Elo = clampElo(r.Elo + change)
		r.Rank = rankFromElo(r.Elo)

		r.GamesPlayed++
		if didWin {
			r.Wins++
			if r.Streak < 0 {
				r.Streak = 0
			}
			r.Streak++
			if r.Streak > r.BestStreak {
				r.BestStreak = r.Streak
			}
		} else {
			r.Losses++
			if r.Streak > 0 {
				r.Streak = 0
			}
			r.Streak--
		}
		r.WinRate = float64(r.Wins) / float64(r.GamesPlayed) * 100
		r.Kills += p.Kills
		r.Tasks += p.TasksCompleted

		log.Debug().
			Str("player", p.Name).
			Int("elo", r.Elo).
			Int("change", change).
			Str("reason", result.Reason).
			Msg("ranking updated")
	}
}

// Leaderboard returns up to limit entries sorted by rating.
func (s *Store) Leaderboard(limit int) []Ranking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Ranking, 0, len(s.rankings))
	for _, r := range s.rankings {
		entries = append(entries, *r)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Elo != entries[j].Elo {
			return entries[i].Elo > entries[j].Elo
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
