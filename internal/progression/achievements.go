package progression

// Achievement is a threshold award against profile fields. Predicates are
// pure; an unlocked achievement is skipped, never re-evaluated, so the
// per-player unlocked set only grows.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Requirement uint64 `json:"requirement"`
	XPReward    uint64 `json:"xp_reward"`
	Active      bool   `json:"active"`

	predicate func(*Profile) bool
}

// Unlock records one earned achievement.
type Unlock struct {
	Player      string `json:"player"`
	Achievement string `json:"achievement"`
	XPReward    uint64 `json:"xp_reward"`
}

func defaultAchievements() []Achievement {
	byGames := func(n uint64) func(*Profile) bool {
		return func(p *Profile) bool { return p.GamesPlayed >= n }
	}
	byTokens := func(n uint64) func(*Profile) bool {
		return func(p *Profile) bool { return p.Tokens >= n }
	}
	byBest := func(n uint64) func(*Profile) bool {
		return func(p *Profile) bool { return p.BestScore >= n }
	}
	byLevel := func(n uint64) func(*Profile) bool {
		return func(p *Profile) bool { return uint64(p.Level) >= n }
	}

	return []Achievement{
		{Name: "first_run", Description: "Finish your first game", Requirement: 1, XPReward: 100, Active: true, predicate: byGames(1)},
		{Name: "regular", Description: "Finish 25 games", Requirement: 25, XPReward: 500, Active: true, predicate: byGames(25)},
		{Name: "veteran", Description: "Finish 100 games", Requirement: 100, XPReward: 2000, Active: true, predicate: byGames(100)},
		{Name: "collector", Description: "Collect 1,000 tokens", Requirement: 1000, XPReward: 750, Active: true, predicate: byTokens(1000)},
		{Name: "hoarder", Description: "Collect 10,000 tokens", Requirement: 10000, XPReward: 3000, Active: true, predicate: byTokens(10000)},
		{Name: "sharpshooter", Description: "Score 1,000 in a single game", Requirement: 1000, XPReward: 1000, Active: true, predicate: byBest(1000)},
		{Name: "record_breaker", Description: "Score 5,000 in a single game", Requirement: 5000, XPReward: 5000, Active: true, predicate: byBest(5000)},
		{Name: "rising_star", Description: "Reach level 10", Requirement: 10, XPReward: 1500, Active: true, predicate: byLevel(10)},
		{Name: "ascendant", Description: "Reach level 50", Requirement: 50, XPReward: 10000, Active: true, predicate: byLevel(50)},
	}
}
