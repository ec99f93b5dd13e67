package race

import (
	"math"
)

// Game is the single global race record.
//
// Every entry point validates the whole call before touching any field, so a
// returned error always means the game is unchanged.
type Game struct {
	Organizer  string `json:"organizer"`
	Phase      Phase  `json:"phase"`
	RaceNumber uint64 `json:"raceNumber"`

	// StartedAt is the unix second of the block that started the race.
	StartedAt int64 `json:"startedAt,omitempty"`

	Teams   [NumTeams]Team     `json:"teams"`
	Players map[string]*Player `json:"players"`

	// Result is set when the race finishes and cleared on reset.
	Result *Result `json:"result,omitempty"`
}

// Result summarizes a finished race.
type Result struct {
	RaceNumber   uint64 `json:"raceNumber"`
	Winner       TeamID `json:"winner"`
	StartedAt    int64  `json:"startedAt"`
	FinishedAt   int64  `json:"finishedAt"`
	DurationSecs int64  `json:"durationSecs"`
	BitcoinTaps  uint64 `json:"bitcoinTaps"`
	EthereumTaps uint64 `json:"ethereumTaps"`
	TotalPlayers uint64 `json:"totalPlayers"`
}

func NewGame(organizer string) (*Game, error) {
	if organizer == "" {
		return nil, ErrInvalidRequest.Wrap("missing organizer")
	}
	g := &Game{
		Organizer:  organizer,
		Phase:      PhaseLobby,
		RaceNumber: 1,
	}
	g.Normalize()
	return g, nil
}

// Normalize fills nil collections after decoding.
func (g *Game) Normalize() {
	if g.Players == nil {
		g.Players = map[string]*Player{}
	}
	for i := range g.Teams {
		if g.Teams[i].Supporters == nil {
			g.Teams[i].Supporters = []string{}
		}
	}
	if g.Phase == "" {
		g.Phase = PhaseLobby
	}
	if g.RaceNumber == 0 {
		g.RaceNumber = 1
	}
}

// admit consults the transition table for op: organizer gating first, then the
// current phase.
func (g *Game) admit(op Op, caller string) error {
	gd, ok := transitions[op]
	if !ok {
		return ErrInvalidRequest.Wrapf("unknown operation %q", op)
	}
	if caller == "" {
		return ErrInvalidRequest.Wrap("missing caller")
	}
	if gd.organizerOnly && caller != g.Organizer {
		return ErrUnauthorized.Wrapf("%s by %q", op, caller)
	}
	if !gd.allows(g.Phase) {
		return ErrInvalidPhase.Wrapf("%s during %s", op, g.Phase)
	}
	if gd.to != "" && !g.Phase.CanTransitionTo(gd.to) {
		return ErrInvalidPhase.Wrapf("%s cannot move %s to %s", op, g.Phase, gd.to)
	}
	return nil
}

// JoinTeam assigns player to team for the current race.
func (g *Game) JoinTeam(player string, team TeamID) ([]Event, error) {
	if !team.Valid() {
		return nil, ErrInvalidTeam.Wrapf("team %d", uint8(team))
	}
	if err := g.admit(OpJoinTeam, player); err != nil {
		return nil, err
	}
	if p, ok := g.Players[player]; ok {
		return nil, ErrAlreadyJoined.Wrapf("%q supports %s", player, p.Team)
	}

	g.Players[player] = &Player{Team: team}
	g.Teams[team].Supporters = append(g.Teams[team].Supporters, player)

	return []Event{newEvent(EventTypePlayerJoined,
		"player", player,
		"team", u64(uint64(team)),
		"supporterCount", u64(uint64(len(g.Teams[team].Supporters))),
	)}, nil
}

// StartGame moves the lobby into a running race at block time now.
func (g *Game) StartGame(caller string, now int64) ([]Event, error) {
	if err := g.admit(OpStartGame, caller); err != nil {
		return nil, err
	}
	for _, id := range Teams {
		if g.Teams[id].SupporterCount() == 0 {
			return nil, ErrPrecondition.Wrapf("team %s has no supporters", id)
		}
	}

	g.StartedAt = now
	g.Phase = PhaseInProgress

	return []Event{newEvent(EventTypeGameStarted,
		"raceNumber", u64(g.RaceNumber),
		"startedAt", i64(now),
		"countdownSecs", i64(CountdownSecs),
	)}, nil
}

// Tap records one tap for player and finishes the race when their team
// crosses the finish line.
func (g *Game) Tap(player string, now int64) ([]Event, error) {
	if err := g.admit(OpTap, player); err != nil {
		return nil, err
	}
	p, ok := g.Players[player]
	if !ok {
		return nil, ErrNotJoined.Wrapf("%q", player)
	}
	team := &g.Teams[p.Team]
	if p.Taps == math.MaxUint64 || team.TotalTaps == math.MaxUint64 {
		return nil, ErrOverflow.Wrapf("tap count for %q", player)
	}

	p.Taps++
	team.TotalTaps++

	prog := team.Progress()
	events := []Event{newEvent(EventTypeTapRecorded,
		"player", player,
		"team", u64(uint64(p.Team)),
		"playerTaps", u64(p.Taps),
		"totalTaps", u64(team.TotalTaps),
		"lap", u64(prog.Lap),
		"percent", u64(prog.Percent),
	)}

	if prog.Finished() {
		events = append(events, g.finish(p.Team, now))
	}
	return events, nil
}

func (g *Game) finish(winner TeamID, now int64) Event {
	duration := now - g.StartedAt
	if duration < 0 {
		duration = 0
	}
	g.Phase = PhaseFinished
	g.Result = &Result{
		RaceNumber:   g.RaceNumber,
		Winner:       winner,
		StartedAt:    g.StartedAt,
		FinishedAt:   now,
		DurationSecs: duration,
		BitcoinTaps:  g.Teams[Bitcoin].TotalTaps,
		EthereumTaps: g.Teams[Ethereum].TotalTaps,
		TotalPlayers: uint64(len(g.Players)),
	}
	r := g.Result
	return newEvent(EventTypeGameFinished,
		"raceNumber", u64(r.RaceNumber),
		"winner", u64(uint64(r.Winner)),
		"duration", i64(r.DurationSecs),
		"bitcoinTaps", u64(r.BitcoinTaps),
		"ethereumTaps", u64(r.EthereumTaps),
		"totalPlayers", u64(r.TotalPlayers),
	)
}

// ResetGame clears all per-race data and reopens the lobby. The organizer is
// kept.
func (g *Game) ResetGame(caller string) ([]Event, error) {
	if err := g.admit(OpResetGame, caller); err != nil {
		return nil, err
	}
	if g.RaceNumber == math.MaxUint64 {
		return nil, ErrOverflow.Wrap("race number")
	}

	g.Teams = [NumTeams]Team{}
	g.Players = map[string]*Player{}
	g.StartedAt = 0
	g.Result = nil
	g.RaceNumber++
	g.Phase = PhaseLobby
	g.Normalize()

	return []Event{newEvent(EventTypeGameReset,
		"raceNumber", u64(g.RaceNumber),
	)}, nil
}

// ---- Read accessors ----

func (g *Game) Team(id TeamID) *Team {
	if !id.Valid() {
		return nil
	}
	return &g.Teams[id]
}

// PlayerOf returns a copy of the player's record and whether they joined.
func (g *Game) PlayerOf(addr string) (Player, bool) {
	p, ok := g.Players[addr]
	if !ok || p == nil {
		return Player{}, false
	}
	return *p, true
}

func (g *Game) HasJoined(addr string) bool {
	_, ok := g.Players[addr]
	return ok
}

// Winner returns the winning team once the race finished.
func (g *Game) Winner() (TeamID, bool) {
	if g.Phase != PhaseFinished || g.Result == nil {
		return 0, false
	}
	return g.Result.Winner, true
}
