package race

const (
	// UnitsPerLap is the number of taps a team needs to complete one lap.
	UnitsPerLap uint64 = 100
	// FinishLaps is the lap index a team must reach to win.
	FinishLaps uint64 = 3
)

// Progress is a team's position on the track derived from its total taps.
type Progress struct {
	Lap     uint64 `json:"lap"`
	Percent uint64 `json:"percent"`
}

// ProgressOf maps a tap total onto (lap, percent-through-lap).
//
// Integer arithmetic only: the same projection decides the winner on-chain and
// places the cars off-chain, so the two must never diverge. A total that is an
// exact multiple of UnitsPerLap sits at 0% of the next lap.
func ProgressOf(totalTaps uint64) Progress {
	return Progress{
		Lap:     totalTaps / UnitsPerLap,
		Percent: totalTaps % UnitsPerLap,
	}
}

// Finished reports whether the progress has crossed into the finishing lap.
func (p Progress) Finished() bool {
	return p.Lap >= FinishLaps
}

// TapsToFinish is the tap total at which a team wins.
func TapsToFinish() uint64 {
	return UnitsPerLap * FinishLaps
}
