package race

// Phase is the race's current state.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseInProgress Phase = "inProgress"
	PhaseFinished   Phase = "finished"
)

func (p Phase) String() string {
	return string(p)
}

func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseInProgress, PhaseFinished:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks the phase graph. Reset may return to the lobby from
// anywhere, including the lobby itself.
func (p Phase) CanTransitionTo(target Phase) bool {
	switch target {
	case PhaseLobby:
		return p.Valid()
	case PhaseInProgress:
		return p == PhaseLobby
	case PhaseFinished:
		return p == PhaseInProgress
	default:
		return false
	}
}

// Op names a state machine entry point.
type Op string

const (
	OpJoinTeam  Op = "join_team"
	OpStartGame Op = "start_game"
	OpTap       Op = "tap"
	OpResetGame Op = "reset_game"
)

// guard is one row of the transition table.
type guard struct {
	from          []Phase
	organizerOnly bool
	// to is the phase the op moves into on success; empty means unchanged.
	// Tap may additionally move to finished via the win check.
	to Phase
}

var transitions = map[Op]guard{
	OpJoinTeam:  {from: []Phase{PhaseLobby}},
	OpStartGame: {from: []Phase{PhaseLobby}, organizerOnly: true, to: PhaseInProgress},
	OpTap:       {from: []Phase{PhaseInProgress}},
	OpResetGame: {from: []Phase{PhaseLobby, PhaseInProgress, PhaseFinished}, organizerOnly: true, to: PhaseLobby},
}

func (g guard) allows(p Phase) bool {
	for _, f := range g.from {
		if f == p {
			return true
		}
	}
	return false
}
