package race

import (
	"sort"
	"strconv"
)

// Event types emitted by the state machine. Names match the contract events the
// web front end already listens for.
const (
	EventTypePlayerJoined = "PlayerJoined"
	EventTypeGameStarted  = "GameStarted"
	EventTypeTapRecorded  = "TapRecorded"
	EventTypeGameFinished = "GameFinished"
	EventTypeGameReset    = "GameReset"
)

// CountdownSecs is the pre-race countdown the view layer shows after
// GameStarted. Taps are accepted immediately; the countdown is cosmetic.
const CountdownSecs = 3

// Event is a notification produced by a successful transition.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func newEvent(typ string, kv ...string) Event {
	ev := Event{Type: typ, Attributes: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attributes[kv[i]] = kv[i+1]
	}
	return ev
}

// Keys returns attribute keys in sorted order.
func (e Event) Keys() []string {
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func i64(v int64) string { return strconv.FormatInt(v, 10) }
