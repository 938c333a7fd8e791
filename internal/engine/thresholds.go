package engine

// Threshold band constants. Band i spans [bandBase*(i+1), 3*bandBase*(i+1)),
// so each successive threshold sits in a strictly wider, strictly later band.
const (
	bandBase  = 100
	bandWidth = 200
)

// DeriveSchedule deterministically expands one session seed into the full
// ordered list of (score threshold, difficulty) pairs. It is a pure function
// of the seed: the same seed always yields the identical schedule, so a
// player can re-derive it after the session and check they were not cheated.
func DeriveSchedule(seed Seed) Schedule {
	var schedule Schedule
	for i := 0; i < ScheduleLen; i++ {
		step := deriveRound(seed, i)
		schedule[i] = Threshold{
			Score:      uint64(bandBase*(i+1)) + seedUint(step)%uint64(bandWidth*(i+1)),
			Difficulty: 1 + int(seedUint(deriveTagged(step, "difficulty"))%10),
		}
	}
	return schedule
}

// BandFor returns the half-open score interval threshold i is guaranteed to
// fall in. Exposed for verification tooling.
func BandFor(i int) (lo, hi uint64) {
	return uint64(bandBase * (i + 1)), uint64(3 * bandBase * (i + 1))
}
