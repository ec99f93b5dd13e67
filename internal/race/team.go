package race

import (
	"encoding/json"
	"fmt"
)

// TeamID identifies one of the two racing teams.
type TeamID uint8

const (
	Bitcoin  TeamID = 0
	Ethereum TeamID = 1

	NumTeams = 2
)

// Teams lists every team in id order.
var Teams = [NumTeams]TeamID{Bitcoin, Ethereum}

func (t TeamID) Valid() bool {
	return t == Bitcoin || t == Ethereum
}

func (t TeamID) String() string {
	switch t {
	case Bitcoin:
		return "Bitcoin"
	case Ethereum:
		return "Ethereum"
	default:
		return fmt.Sprintf("Team(%d)", uint8(t))
	}
}

// ParseTeam validates a raw team number from a tx or query path.
func ParseTeam(v uint64) (TeamID, error) {
	if v >= NumTeams {
		return 0, ErrInvalidTeam.Wrapf("team %d", v)
	}
	return TeamID(v), nil
}

// Team is the per-race record of one side.
type Team struct {
	// Supporters is append-only within a race and keeps join order.
	Supporters []string `json:"supporters"`
	TotalTaps  uint64   `json:"totalTaps"`
}

func (t *Team) SupporterCount() int {
	if t == nil {
		return 0
	}
	return len(t.Supporters)
}

func (t *Team) Progress() Progress {
	if t == nil {
		return Progress{}
	}
	return ProgressOf(t.TotalTaps)
}

// Player is the per-race record of one address.
type Player struct {
	Team TeamID `json:"team"`
	Taps uint64 `json:"taps"`
}

// UnmarshalJSON rejects team numbers outside the two racing teams.
func (t *TeamID) UnmarshalJSON(b []byte) error {
	var v uint64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	id, err := ParseTeam(v)
	if err != nil {
		return err
	}
	*t = id
	return nil
}
