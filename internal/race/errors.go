package race

import errorsmod "cosmossdk.io/errors"

// Codespace is the ABCI codespace for race state machine errors.
const Codespace = "race"

// Race sentinel errors.
var (
	ErrInvalidPhase   = errorsmod.Register(Codespace, 2, "operation not allowed in current phase")
	ErrUnauthorized   = errorsmod.Register(Codespace, 3, "caller is not the organizer")
	ErrAlreadyJoined  = errorsmod.Register(Codespace, 4, "player already joined a team")
	ErrNotJoined      = errorsmod.Register(Codespace, 5, "player has not joined a team")
	ErrPrecondition   = errorsmod.Register(Codespace, 6, "race precondition not met")
	ErrInvalidTeam    = errorsmod.Register(Codespace, 7, "invalid team")
	ErrInvalidRequest = errorsmod.Register(Codespace, 8, "invalid request")
	ErrOverflow       = errorsmod.Register(Codespace, 9, "counter overflow")
)
