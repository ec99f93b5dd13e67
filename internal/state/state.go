package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/subhasisjena1643/tapnad/internal/race"
)

type State struct {
	Height int64 `json:"height"`

	// Game is nil until InitChain installs the organizer.
	Game *race.Game `json:"game,omitempty"`

	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // account -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce
}

func NewState() *State {
	return &State{
		AccountKeys: map[string][]byte{},
		NonceMax:    map[string]uint64{},
	}
}

func (s *State) normalize() {
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Game != nil {
		s.Game.Normalize()
	}
}

func decodeState(b []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	out, err := decodeState(b)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return out, nil
}

// AppHash hashes a normalized view of the state with every map flattened into
// a slice sorted by key.
func (s *State) AppHash() []byte {
	type accountKeyKV struct {
		Account string `json:"account"`
		PubKey  []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type playerKV struct {
		Addr   string      `json:"addr"`
		Player race.Player `json:"player"`
	}
	type gameView struct {
		Organizer  string                   `json:"organizer"`
		Phase      race.Phase               `json:"phase"`
		RaceNumber uint64                   `json:"raceNumber"`
		StartedAt  int64                    `json:"startedAt"`
		Teams      [race.NumTeams]race.Team `json:"teams"`
		Players    []playerKV               `json:"players"`
		Result     *race.Result             `json:"result,omitempty"`
	}

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Account: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Account < accountKeys[j].Account })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	var game *gameView
	if g := s.Game; g != nil {
		players := make([]playerKV, 0, len(g.Players))
		for addr, p := range g.Players {
			if p == nil {
				continue
			}
			players = append(players, playerKV{Addr: addr, Player: *p})
		}
		sort.Slice(players, func(i, j int) bool { return players[i].Addr < players[j].Addr })
		game = &gameView{
			Organizer:  g.Organizer,
			Phase:      g.Phase,
			RaceNumber: g.RaceNumber,
			StartedAt:  g.StartedAt,
			Teams:      g.Teams,
			Players:    players,
			Result:     g.Result,
		}
	}

	normalized := struct {
		Height      int64          `json:"height"`
		Game        *gameView      `json:"game,omitempty"`
		AccountKeys []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax    []nonceKV      `json:"nonceMax,omitempty"`
	}{
		Height:      s.Height,
		Game:        game,
		AccountKeys: accountKeys,
		NonceMax:    nonces,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}
