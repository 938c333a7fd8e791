package progression

import (
	"sync"
	"time"
)

// BoardCapacity is the fixed size of each leaderboard.
const BoardCapacity = 100

// Window names one of the three leaderboard collections.
type Window string

const (
	WindowAllTime Window = "all_time"
	WindowWeekly  Window = "weekly"
	WindowDaily   Window = "daily"
)

// Entry is one leaderboard row.
type Entry struct {
	Player string    `json:"player"`
	Name   string    `json:"name"`
	Score  uint64    `json:"score"`
	At     time.Time `json:"at"`
}

// Boards maintains the three fixed-capacity, strictly score-descending
// collections. Each insert is an independent transaction per board; there
// is no cross-board atomicity to preserve. Weekly and daily boards are
// time-windowed: entries from a previous window are pruned on both insert
// and read, so a board never serves stale rows.
type Boards struct {
	mu      sync.Mutex
	entries map[Window][]Entry
	now     func() time.Time
}

// NewBoards creates empty leaderboards.
func NewBoards() *Boards {
	return &Boards{
		entries: map[Window][]Entry{
			WindowAllTime: nil,
			WindowWeekly:  nil,
			WindowDaily:   nil,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the board clock. Tests only.
func (b *Boards) SetNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Record inserts the entry into all three boards.
func (b *Boards) Record(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.At.IsZero() {
		e.At = b.now()
	}
	for _, w := range []Window{WindowAllTime, WindowWeekly, WindowDaily} {
		b.insertLocked(w, e)
	}
}

// Get returns a copy of a board, stale entries pruned.
func (b *Boards) Get(w Window) ([]Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, ok := b.entries[w]
	if !ok {
		return nil, false
	}
	pruned := b.pruneLocked(w, rows)
	out := make([]Entry, len(pruned))
	copy(out, pruned)
	return out, true
}

// Restore loads persisted rows for a board at boot.
func (b *Boards) Restore(w Window, rows []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]Entry, len(rows))
	copy(cp, rows)
	b.entries[w] = cp
}

// insertLocked places the entry at the first position whose score is
// strictly lower, shifting the tail down; an entry that would land beyond
// capacity on a full board is dropped.
func (b *Boards) insertLocked(w Window, e Entry) {
	rows := b.pruneLocked(w, b.entries[w])

	pos := len(rows)
	for i, existing := range rows {
		if existing.Score < e.Score {
			pos = i
			break
		}
	}
	if pos >= BoardCapacity {
		b.entries[w] = rows
		return
	}

	rows = append(rows, Entry{})
	copy(rows[pos+1:], rows[pos:])
	rows[pos] = e
	if len(rows) > BoardCapacity {
		rows = rows[:BoardCapacity]
	}
	b.entries[w] = rows
}

// pruneLocked drops entries that fall outside the board's current window.
func (b *Boards) pruneLocked(w Window, rows []Entry) []Entry {
	if w == WindowAllTime {
		return rows
	}
	now := b.now()
	kept := rows[:0]
	for _, e := range rows {
		if inWindow(w, e.At, now) {
			kept = append(kept, e)
		}
	}
	out := make([]Entry, len(kept))
	copy(out, kept)
	b.entries[w] = out
	return out
}

func inWindow(w Window, at, now time.Time) bool {
	at, now = at.UTC(), now.UTC()
	switch w {
	case WindowDaily:
		return at.Year() == now.Year() && at.YearDay() == now.YearDay()
	case WindowWeekly:
		ay, aw := at.ISOWeek()
		ny, nw := now.ISOWeek()
		return ay == ny && aw == nw
	default:
		return true
	}
}

// ParseWindow resolves a window name.
func ParseWindow(name string) (Window, bool) {
	switch Window(name) {
	case WindowAllTime, WindowWeekly, WindowDaily:
		return Window(name), true
	}
	return "", false
}
