package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (and creates if needed) the database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			player TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			total_score INTEGER NOT NULL DEFAULT 0,
			best_score INTEGER NOT NULL DEFAULT 0,
			games_played INTEGER NOT NULL DEFAULT 0,
			tokens INTEGER NOT NULL DEFAULT 0,
			total_claimed INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			xp INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username COLLATE NOCASE)`,
		`CREATE TABLE IF NOT EXISTS unlocks (
			player TEXT NOT NULL,
			achievement TEXT NOT NULL,
			PRIMARY KEY (player, achievement)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			player TEXT NOT NULL,
			tier TEXT NOT NULL,
			entry_cost INTEGER NOT NULL,
			multiplier_bp INTEGER NOT NULL,
			state TEXT NOT NULL,
			seed TEXT,
			final_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_player ON sessions(player)`,
		`CREATE TABLE IF NOT EXISTS seals (
			id INTEGER PRIMARY KEY,
			player TEXT NOT NULL,
			game_session_id INTEGER NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			unlock_time DATETIME,
			unlock_height INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			revealed_bp INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			revealed_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			id INTEGER PRIMARY KEY,
			player TEXT NOT NULL,
			points INTEGER NOT NULL,
			session_id INTEGER NOT NULL,
			seal_id INTEGER NOT NULL DEFAULT 0,
			base INTEGER NOT NULL,
			multiplier_bp INTEGER NOT NULL DEFAULT 0,
			sealed INTEGER NOT NULL DEFAULT 0,
			claimed INTEGER NOT NULL DEFAULT 0,
			amount INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			settled_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_player ON claims(player)`,
		`CREATE TABLE IF NOT EXISTS leaderboards (
			window TEXT NOT NULL,
			pos INTEGER NOT NULL,
			player TEXT NOT NULL,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			at DATETIME NOT NULL,
			PRIMARY KEY (window, pos)
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveProfile upserts a profile.
func (s *SQLiteDB) SaveProfile(p progression.Profile) error {
	_, err := s.db.Exec(`INSERT INTO profiles (
		player, username, total_score, best_score, games_played, tokens, total_claimed, level, xp, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(player) DO UPDATE SET
		username = excluded.username,
		total_score = excluded.total_score,
		best_score = excluded.best_score,
		games_played = excluded.games_played,
		tokens = excluded.tokens,
		total_claimed = excluded.total_claimed,
		level = excluded.level,
		xp = excluded.xp`,
		p.Player, p.Username, p.TotalScore, p.BestScore, p.GamesPlayed,
		p.Tokens, p.TotalClaimed, p.Level, p.XP, p.CreatedAt,
	)
	return err
}

// SaveUnlocks records achievement unlocks, ignoring ones already stored.
func (s *SQLiteDB) SaveUnlocks(player string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO unlocks (player, achievement) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.Exec(player, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadProfiles returns all profiles plus the per-player unlock sets.
func (s *SQLiteDB) LoadProfiles() ([]progression.Profile, map[string][]string, error) {
	rows, err := s.db.Query(`SELECT player, username, total_score, best_score, games_played,
		tokens, total_claimed, level, xp, created_at FROM profiles`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []progression.Profile
	for rows.Next() {
		var p progression.Profile
		if err := rows.Scan(&p.Player, &p.Username, &p.TotalScore, &p.BestScore,
			&p.GamesPlayed, &p.Tokens, &p.TotalClaimed, &p.Level, &p.XP, &p.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	unlockRows, err := s.db.Query(`SELECT player, achievement FROM unlocks`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query unlocks: %w", err)
	}
	defer unlockRows.Close()

	unlocks := make(map[string][]string)
	for unlockRows.Next() {
		var player, achievement string
		if err := unlockRows.Scan(&player, &achievement); err != nil {
			return nil, nil, fmt.Errorf("failed to scan unlock: %w", err)
		}
		unlocks[player] = append(unlocks[player], achievement)
	}
	return profiles, unlocks, unlockRows.Err()
}

// SaveSession upserts a session audit row. Seeds are stored in hex so a
// third party can replay the derivation.
func (s *SQLiteDB) SaveSession(sess session.Session) error {
	var seed sql.NullString
	if sess.SeedSet {
		seed = sql.NullString{String: sess.Seed.String(), Valid: true}
	}
	var endedAt sql.NullTime
	if !sess.EndedAt.IsZero() {
		endedAt = sql.NullTime{Time: sess.EndedAt, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO sessions (
		id, player, tier, entry_cost, multiplier_bp, state, seed, final_score, created_at, ended_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		state = excluded.state,
		seed = excluded.seed,
		final_score = excluded.final_score,
		ended_at = excluded.ended_at`,
		sess.ID, sess.Player, sess.TierName, int64(sess.EntryCost), sess.MultiplierBP,
		string(sess.State), seed, sess.FinalScore, sess.CreatedAt, endedAt,
	)
	return err
}

// SaveSeal upserts a seal audit row.
func (s *SQLiteDB) SaveSeal(sealed seal.Sealed) error {
	var unlockTime, revealedAt sql.NullTime
	if !sealed.UnlockTime.IsZero() {
		unlockTime = sql.NullTime{Time: sealed.UnlockTime, Valid: true}
	}
	if !sealed.RevealedAt.IsZero() {
		revealedAt = sql.NullTime{Time: sealed.RevealedAt, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO seals (
		id, player, game_session_id, kind, unlock_time, unlock_height, state, revealed_bp, created_at, revealed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		state = excluded.state,
		revealed_bp = excluded.revealed_bp,
		revealed_at = excluded.revealed_at`,
		sealed.ID, sealed.Player, sealed.GameSessionID, string(sealed.Kind), unlockTime,
		sealed.UnlockHeight, string(sealed.State), sealed.RevealedBP, sealed.CreatedAt, revealedAt,
	)
	return err
}

// SaveClaim upserts a claim row.
func (s *SQLiteDB) SaveClaim(c claims.Claim) error {
	var settledAt sql.NullTime
	if !c.SettledAt.IsZero() {
		settledAt = sql.NullTime{Time: c.SettledAt, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO claims (
		id, player, points, session_id, seal_id, base, multiplier_bp, sealed, claimed, amount, created_at, settled_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		multiplier_bp = excluded.multiplier_bp,
		claimed = excluded.claimed,
		amount = excluded.amount,
		settled_at = excluded.settled_at`,
		c.ID, c.Player, c.Points, c.SessionID, c.SealID, int64(c.Base), c.MultiplierBP,
		boolInt(c.Sealed), boolInt(c.Claimed), int64(c.Amount), c.CreatedAt, settledAt,
	)
	return err
}

// ListClaims returns a player's claims ordered by id.
func (s *SQLiteDB) ListClaims(player string) ([]claims.Claim, error) {
	rows, err := s.db.Query(`SELECT id, player, points, session_id, seal_id, base,
		multiplier_bp, sealed, claimed, amount, created_at, settled_at
		FROM claims WHERE player = ? ORDER BY id`, player)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var out []claims.Claim
	for rows.Next() {
		var c claims.Claim
		var base, amount int64
		var sealedInt, claimedInt int
		var settledAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Player, &c.Points, &c.SessionID, &c.SealID, &base,
			&c.MultiplierBP, &sealedInt, &claimedInt, &amount, &c.CreatedAt, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		c.Base = reward.Amount(base)
		c.Amount = reward.Amount(amount)
		c.Sealed = sealedInt == 1
		c.Claimed = claimedInt == 1
		if settledAt.Valid {
			c.SettledAt = settledAt.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveBoard replaces the stored snapshot of one leaderboard.
func (s *SQLiteDB) SaveBoard(w progression.Window, entries []progression.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM leaderboards WHERE window = ?`, string(w)); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO leaderboards (window, pos, player, name, score, at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(string(w), i, e.Player, e.Name, e.Score, e.At); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadBoard returns the stored snapshot of one leaderboard.
func (s *SQLiteDB) LoadBoard(w progression.Window) ([]progression.Entry, error) {
	rows, err := s.db.Query(`SELECT player, name, score, at FROM leaderboards WHERE window = ? ORDER BY pos`, string(w))
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []progression.Entry
	for rows.Next() {
		var e progression.Entry
		if err := rows.Scan(&e.Player, &e.Name, &e.Score, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
