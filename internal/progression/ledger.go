package progression

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// GameResult summarizes the progression effect of recording one game.
type GameResult struct {
	XPGained  uint64   `json:"xp_gained"`
	Level     int      `json:"level"`
	LeveledUp bool     `json:"leveled_up"`
	Unlocked  []Unlock `json:"unlocked,omitempty"`
}

// Ledger owns all player profiles and the achievement unlock sets.
type Ledger struct {
	logger *log.Logger

	mu           sync.Mutex
	profiles     map[string]*Profile
	usernames    map[string]string
	achievements []Achievement
	unlocked     map[string]map[string]bool

	onLevelUp func(player string, from, to int)
	onChanged func(Profile)
}

// NewLedger creates an empty ledger with the built-in achievement set.
func NewLedger(logger *log.Logger) *Ledger {
	return &Ledger{
		logger:       logger,
		profiles:     make(map[string]*Profile),
		usernames:    make(map[string]string),
		achievements: defaultAchievements(),
		unlocked:     make(map[string]map[string]bool),
	}
}

// OnLevelUp registers a level-up signal sink.
func (l *Ledger) OnLevelUp(fn func(player string, from, to int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLevelUp = fn
}

// OnChanged registers a write-through sink invoked with a copy of every
// mutated profile.
func (l *Ledger) OnChanged(fn func(Profile)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChanged = fn
}

// Register creates a profile with an explicit username. Usernames are
// unique, case-insensitively.
func (l *Ledger) Register(player, username string) (Profile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strings.ToLower(username)
	if owner, taken := l.usernames[key]; taken && owner != player {
		return Profile{}, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	p := l.ensureLocked(player)
	delete(l.usernames, strings.ToLower(p.Username))
	p.Username = username
	l.usernames[key] = player

	out := *p
	l.notifyLocked(out)
	return out, nil
}

// RecordGameResult folds one finished game into the player's profile:
// cumulative totals, best score, XP, level, and any newly satisfied
// achievements. Achievement XP feeds back into the level check, so one
// result can cascade through several unlocks.
func (l *Ledger) RecordGameResult(player string, score, tokens uint64, multiplierBP int64, sealed bool) GameResult {
	l.mu.Lock()

	p := l.ensureLocked(player)
	p.TotalScore += score
	p.GamesPlayed++
	p.Tokens += tokens
	if score > p.BestScore {
		p.BestScore = score
	}

	levelBefore := p.Level
	xp := GameXP(score, tokens, multiplierBP, sealed)
	p.XP += xp
	p.Level = LevelFromXP(p.XP)

	unlocked := l.evaluateAchievementsLocked(p)

	result := GameResult{
		XPGained:  xp,
		Level:     p.Level,
		LeveledUp: p.Level > levelBefore,
		Unlocked:  unlocked,
	}
	out := *p
	levelUp := l.onLevelUp
	l.notifyLocked(out)
	l.mu.Unlock()

	if result.LeveledUp && levelUp != nil {
		levelUp(player, levelBefore, result.Level)
	}
	if l.logger != nil {
		l.logger.Printf("game_recorded player=%s score=%d tokens=%d xp=%d level=%d unlocks=%d", player, score, tokens, xp, result.Level, len(unlocked))
	}
	return result
}

// AddClaimed credits a settled claim amount to the player's lifetime total.
func (l *Ledger) AddClaimed(player string, amount int64) {
	l.mu.Lock()
	p := l.ensureLocked(player)
	p.TotalClaimed += amount
	out := *p
	l.notifyLocked(out)
	l.mu.Unlock()
}

// Get returns a copy of a profile.
func (l *Ledger) Get(player string) (Profile, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.profiles[player]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// Level returns the player's current level, defaulting to 1 for players
// with no profile yet.
func (l *Ledger) Level(player string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.profiles[player]; ok {
		return p.Level
	}
	return 1
}

// Achievements lists the achievement catalog.
func (l *Ledger) Achievements() []Achievement {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Achievement, len(l.achievements))
	copy(out, l.achievements)
	return out
}

// UnlockedBy lists the names of achievements the player has earned.
func (l *Ledger) UnlockedBy(player string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var names []string
	for _, a := range l.achievements {
		if l.unlocked[player][a.Name] {
			names = append(names, a.Name)
		}
	}
	return names
}

// Restore loads a persisted profile, used at boot. Overwrites any in-memory
// profile for the player.
func (l *Ledger) Restore(p Profile, unlockedNames []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := p
	l.profiles[p.Player] = &cp
	if p.Username != "" {
		l.usernames[strings.ToLower(p.Username)] = p.Player
	}
	set := make(map[string]bool, len(unlockedNames))
	for _, n := range unlockedNames {
		set[n] = true
	}
	l.unlocked[p.Player] = set
}

func (l *Ledger) ensureLocked(player string) *Profile {
	p, ok := l.profiles[player]
	if !ok {
		p = &Profile{
			Player:    player,
			Username:  defaultUsername(player),
			Level:     1,
			CreatedAt: time.Now().UTC(),
		}
		l.profiles[player] = p
		l.usernames[strings.ToLower(p.Username)] = player
	}
	return p
}

// evaluateAchievementsLocked unlocks every newly satisfied achievement,
// crediting its XP and re-checking the level after each pass until the
// profile settles.
func (l *Ledger) evaluateAchievementsLocked(p *Profile) []Unlock {
	set, ok := l.unlocked[p.Player]
	if !ok {
		set = make(map[string]bool)
		l.unlocked[p.Player] = set
	}

	var unlocks []Unlock
	for changed := true; changed; {
		changed = false
		for _, a := range l.achievements {
			if !a.Active || set[a.Name] || !a.predicate(p) {
				continue
			}
			set[a.Name] = true
			p.XP += a.XPReward
			p.Level = LevelFromXP(p.XP)
			unlocks = append(unlocks, Unlock{Player: p.Player, Achievement: a.Name, XPReward: a.XPReward})
			changed = true
		}
	}
	return unlocks
}

func (l *Ledger) notifyLocked(p Profile) {
	if l.onChanged != nil {
		l.onChanged(p)
	}
}

// defaultUsername derives a display name from the player identity, e.g. a
// truncated wallet address.
func defaultUsername(player string) string {
	if len(player) <= 10 {
		return player
	}
	return player[:6] + "…" + player[len(player)-4:]
}
