package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/subhasisjena1643/tapnad/internal/race"
)

func newGameState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	g, err := race.NewGame("org")
	require.NoError(t, err)
	s.Game = g
	return s
}

func TestAppHash_StableAcrossMapOrder(t *testing.T) {
	s1 := newGameState(t)
	s1.Height = 7
	s1.NonceMax["bob"] = 2
	s1.NonceMax["alice"] = 1
	_, err := s1.Game.JoinTeam("bob", race.Ethereum)
	require.NoError(t, err)
	_, err = s1.Game.JoinTeam("alice", race.Bitcoin)
	require.NoError(t, err)

	s2 := newGameState(t)
	s2.Height = 7
	s2.NonceMax["alice"] = 1
	s2.NonceMax["bob"] = 2
	_, err = s2.Game.JoinTeam("bob", race.Ethereum)
	require.NoError(t, err)
	_, err = s2.Game.JoinTeam("alice", race.Bitcoin)
	require.NoError(t, err)

	h1 := s1.AppHash()
	h2 := s2.AppHash()
	if !bytes.Equal(h1, h2) {
		t.Fatalf("expected stable app hash; h1=%x h2=%x", h1, h2)
	}

	// Any semantic change should change the hash.
	_, err = s2.Game.StartGame("org", 10)
	require.NoError(t, err)
	if bytes.Equal(h1, s2.AppHash()) {
		t.Fatalf("expected hash to change after state mutation")
	}
}

func TestAppHash_JoinOrderMatters(t *testing.T) {
	s1 := newGameState(t)
	_, _ = s1.Game.JoinTeam("alice", race.Bitcoin)
	_, _ = s1.Game.JoinTeam("carol", race.Bitcoin)

	s2 := newGameState(t)
	_, _ = s2.Game.JoinTeam("carol", race.Bitcoin)
	_, _ = s2.Game.JoinTeam("alice", race.Bitcoin)

	require.NotEqual(t, s1.AppHash(), s2.AppHash(), "supporter order is part of the state")
}

func TestClone_IsDeep(t *testing.T) {
	s := newGameState(t)
	s.AccountKeys["alice"] = []byte{1, 2, 3}
	_, err := s.Game.JoinTeam("alice", race.Bitcoin)
	require.NoError(t, err)

	c, err := s.Clone()
	require.NoError(t, err)
	require.Equal(t, s.AppHash(), c.AppHash())

	_, err = c.Game.JoinTeam("bob", race.Ethereum)
	require.NoError(t, err)
	c.NonceMax["alice"] = 9

	require.False(t, s.Game.HasJoined("bob"))
	require.Zero(t, s.NonceMax["alice"])
	require.NotEqual(t, s.AppHash(), c.AppHash())
}

func TestStore_RoundTrip(t *testing.T) {
	for _, backend := range []string{"memdb", "goleveldb"} {
		t.Run(backend, func(t *testing.T) {
			home := t.TempDir()
			store, err := OpenStore(home, backend)
			require.NoError(t, err)
			defer store.Close()

			fresh, err := store.LoadState()
			require.NoError(t, err)
			require.Nil(t, fresh.Game)
			require.NotNil(t, fresh.NonceMax)

			s := newGameState(t)
			s.Height = 3
			s.AccountKeys["alice"] = bytes.Repeat([]byte{7}, 32)
			_, err = s.Game.JoinTeam("alice", race.Bitcoin)
			require.NoError(t, err)

			require.NoError(t, store.Commit(s, nil))

			got, err := store.LoadState()
			require.NoError(t, err)
			require.Equal(t, s.AppHash(), got.AppHash())
			require.True(t, got.Game.HasJoined("alice"))
		})
	}
}

func TestStore_ResultsArchive(t *testing.T) {
	store := NewMemStore()
	defer store.Close()

	missing, err := store.Result(1)
	require.NoError(t, err)
	require.Nil(t, missing)

	results := []race.Result{
		{RaceNumber: 2, Winner: race.Ethereum, DurationSecs: 12, EthereumTaps: 300},
		{RaceNumber: 1, Winner: race.Bitcoin, DurationSecs: 40, BitcoinTaps: 300, EthereumTaps: 120},
	}
	require.NoError(t, store.Commit(NewState(), results))

	r, err := store.Result(1)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, race.Bitcoin, r.Winner)
	require.Equal(t, int64(40), r.DurationSecs)

	all, err := store.Results()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, uint64(1), all[0].RaceNumber)
	require.Equal(t, uint64(2), all[1].RaceNumber)
}

func TestPrefixEnd(t *testing.T) {
	require.Equal(t, []byte{0x03}, prefixEnd([]byte{0x02}))
	require.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	require.Nil(t, prefixEnd([]byte{0xff}))
}
