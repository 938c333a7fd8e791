package progression

import (
	"fmt"
	"testing"
	"time"
)

func sortedDescending(rows []Entry) bool {
	for i := 1; i < len(rows); i++ {
		if rows[i].Score > rows[i-1].Score {
			return false
		}
	}
	return true
}

func TestBoardsSortedAndBounded(t *testing.T) {
	b := NewBoards()
	// Insert 150 entries in an adversarial order.
	for i := 0; i < 150; i++ {
		score := uint64((i * 37) % 151)
		b.Record(Entry{Player: fmt.Sprintf("p%d", i), Score: score})
	}

	for _, w := range []Window{WindowAllTime, WindowWeekly, WindowDaily} {
		rows, ok := b.Get(w)
		if !ok {
			t.Fatalf("board %s missing", w)
		}
		if len(rows) > BoardCapacity {
			t.Errorf("board %s has %d rows, cap %d", w, len(rows), BoardCapacity)
		}
		if !sortedDescending(rows) {
			t.Errorf("board %s not sorted descending", w)
		}
	}
}

func TestLowestEntryDroppedWhenFull(t *testing.T) {
	b := NewBoards()
	for i := 0; i < BoardCapacity; i++ {
		b.Record(Entry{Player: fmt.Sprintf("p%d", i), Score: uint64(1000 + i)})
	}
	before, _ := b.Get(WindowAllTime)

	// Score below every existing entry: dropped, table unchanged.
	b.Record(Entry{Player: "loser", Score: 1})
	after, _ := b.Get(WindowAllTime)

	if len(after) != BoardCapacity {
		t.Fatalf("board grew past capacity: %d", len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("board changed at %d: %+v != %+v", i, after[i], before[i])
		}
	}
}

func TestHighEntryEvictsTail(t *testing.T) {
	b := NewBoards()
	for i := 0; i < BoardCapacity; i++ {
		b.Record(Entry{Player: fmt.Sprintf("p%d", i), Score: uint64(1000 + i)})
	}
	b.Record(Entry{Player: "champ", Score: 999_999})

	rows, _ := b.Get(WindowAllTime)
	if rows[0].Player != "champ" {
		t.Errorf("top entry is %q, want champ", rows[0].Player)
	}
	if len(rows) != BoardCapacity {
		t.Errorf("board length %d, want %d", len(rows), BoardCapacity)
	}
	for _, e := range rows {
		if e.Score == 1000 {
			t.Error("lowest previous entry was not evicted")
		}
	}
}

func TestWindowedBoardsPruneStaleEntries(t *testing.T) {
	b := NewBoards()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	b.SetNow(func() time.Time { return now })

	b.Record(Entry{Player: "today", Score: 10})

	// Jump two days: daily board must be empty, all-time keeps the row.
	now = now.AddDate(0, 0, 2)
	daily, _ := b.Get(WindowDaily)
	if len(daily) != 0 {
		t.Errorf("daily board kept stale rows: %+v", daily)
	}
	all, _ := b.Get(WindowAllTime)
	if len(all) != 1 {
		t.Errorf("all-time board lost rows: %+v", all)
	}

	// Jump past the ISO week boundary: weekly board empties too.
	now = now.AddDate(0, 0, 7)
	weekly, _ := b.Get(WindowWeekly)
	if len(weekly) != 0 {
		t.Errorf("weekly board kept stale rows: %+v", weekly)
	}
}

func TestParseWindow(t *testing.T) {
	if _, ok := ParseWindow("weekly"); !ok {
		t.Error("weekly not parsed")
	}
	if _, ok := ParseWindow("monthly"); ok {
		t.Error("unknown window parsed")
	}
}
