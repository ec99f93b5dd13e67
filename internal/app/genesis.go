package app

import (
	"crypto/ed25519"
	"encoding/json"
	"strings"

	"github.com/subhasisjena1643/tapnad/internal/race"
	"github.com/subhasisjena1643/tapnad/internal/state"
)

// GenesisState is the app_state section of genesis.json.
type GenesisState struct {
	// Organizer is the only account allowed to start and reset races.
	Organizer string           `json:"organizer"`
	Accounts  []GenesisAccount `json:"accounts,omitempty"`
}

type GenesisAccount struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

func decodeGenesis(appState []byte) (GenesisState, error) {
	var gs GenesisState
	if len(strings.TrimSpace(string(appState))) == 0 {
		return gs, nil
	}
	if err := json.Unmarshal(appState, &gs); err != nil {
		return gs, race.ErrInvalidRequest.Wrapf("decode app_state: %v", err)
	}
	return gs, nil
}

// initGenesis builds the initial state. fallbackOrganizer is used when the
// genesis file leaves the organizer unset. The organizer must have a genesis
// account so its key is bound before any tx can claim the name.
func initGenesis(gs GenesisState, fallbackOrganizer string) (*state.State, error) {
	organizer := gs.Organizer
	if organizer == "" {
		organizer = fallbackOrganizer
	}
	game, err := race.NewGame(organizer)
	if err != nil {
		return nil, err
	}

	st := state.NewState()
	st.Game = game
	for _, acc := range gs.Accounts {
		if acc.Account == "" {
			return nil, race.ErrInvalidRequest.Wrap("genesis account missing name")
		}
		if len(acc.PubKey) != ed25519.PublicKeySize {
			return nil, race.ErrInvalidRequest.Wrapf("genesis account %q: pubKey must be %d bytes", acc.Account, ed25519.PublicKeySize)
		}
		if _, dup := st.AccountKeys[acc.Account]; dup {
			return nil, race.ErrInvalidRequest.Wrapf("duplicate genesis account %q", acc.Account)
		}
		st.AccountKeys[acc.Account] = append([]byte(nil), acc.PubKey...)
	}
	if _, ok := st.AccountKeys[organizer]; !ok {
		return nil, race.ErrInvalidRequest.Wrapf("organizer %q has no genesis account", organizer)
	}
	return st, nil
}
