package app

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/subhasisjena1643/tapnad/internal/codec"
	"github.com/subhasisjena1643/tapnad/internal/race"
)

func TestReplayProtection_AccountSigned(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	tx := joinTx(t, "alice", race.Bitcoin)
	mustOk(t, a.deliverTx(tx, height, 0))

	res := a.deliverTx(tx, height, 0)
	requireCode(t, res, Codespace, ErrReplay.ABCICode())
	if !strings.Contains(res.Log, "replayed tx.nonce") {
		t.Fatalf("expected replay log to mention nonce, got %q", res.Log)
	}
}

func TestReplayProtection_RejectsNonNumericNonce(t *testing.T) {
	const height = int64(1)
	a := newTestApp(t)

	pub, priv := testEd25519Key("dave")
	value := mustMarshal(t, map[string]any{"account": "dave", "pubKey": []byte(pub)})

	nonce := "not-a-number"
	sig := ed25519.Sign(priv, txAuthSignBytesV0(codec.TypeRegisterAccount, value, nonce, "dave"))
	env := codec.TxEnvelope{
		Type:   codec.TypeRegisterAccount,
		Value:  value,
		Nonce:  nonce,
		Signer: "dave",
		Sig:    sig,
	}

	res := a.deliverTx(mustMarshal(t, env), height, 0)
	requireCode(t, res, Codespace, ErrAuth.ABCICode())
	if !strings.Contains(res.Log, "invalid tx.nonce") {
		t.Fatalf("expected log to mention invalid tx.nonce, got %q", res.Log)
	}
}

func TestReplayProtection_ZeroNonce(t *testing.T) {
	a := newTestApp(t)

	_, priv := testEd25519Key("alice")
	env := codec.TxEnvelope{Type: codec.TypeJoinTeam, Value: mustMarshal(t, codec.RaceJoinTeamTx{Player: "alice"})}
	SignTx(&env, 0, "alice", priv)

	requireCode(t, a.deliverTx(mustMarshal(t, env), 1, 0), Codespace, ErrReplay.ABCICode())
}

func TestAuth_RejectsForgedSignature(t *testing.T) {
	a := newTestApp(t)

	// bob's key signing a tx that claims to be from alice.
	_, bobPriv := testEd25519Key("bob")
	env := codec.TxEnvelope{Type: codec.TypeJoinTeam, Value: mustMarshal(t, codec.RaceJoinTeamTx{Player: "alice"})}
	SignTx(&env, testNonce.Add(1), "alice", bobPriv)
	res := a.deliverTx(mustMarshal(t, env), 1, 0)
	requireCode(t, res, Codespace, ErrAuth.ABCICode())
	require.Contains(t, res.Log, "invalid signature")

	// Signer must be the player the tx acts for.
	_, alicePriv := testEd25519Key("alice")
	env = codec.TxEnvelope{Type: codec.TypeJoinTeam, Value: mustMarshal(t, codec.RaceJoinTeamTx{Player: "bob"})}
	SignTx(&env, testNonce.Add(1), "alice", alicePriv)
	res = a.deliverTx(mustMarshal(t, env), 1, 0)
	requireCode(t, res, Codespace, ErrAuth.ABCICode())
	require.Contains(t, res.Log, "signer mismatch")

	// Tampering with the value after signing breaks the signature.
	env = codec.TxEnvelope{Type: codec.TypeJoinTeam, Value: mustMarshal(t, codec.RaceJoinTeamTx{Player: "alice", Team: 0})}
	SignTx(&env, testNonce.Add(1), "alice", alicePriv)
	env.Value = mustMarshal(t, codec.RaceJoinTeamTx{Player: "alice", Team: 1})
	requireCode(t, a.deliverTx(mustMarshal(t, env), 1, 0), Codespace, ErrAuth.ABCICode())

	require.False(t, a.st.Game.HasJoined("alice"))
	require.False(t, a.st.Game.HasJoined("bob"))
}

func TestAtomicity_FailedTxLeavesStateUntouched(t *testing.T) {
	a := newTestApp(t)
	mustOk(t, a.deliverTx(joinTx(t, "alice", race.Bitcoin), 1, 0))

	before := a.st.AppHash()
	nonceBefore := a.st.NonceMax["alice"]

	cases := []struct {
		name string
		tx   []byte
		code uint32
	}{
		{"double join", joinTx(t, "alice", race.Ethereum), race.ErrAlreadyJoined.ABCICode()},
		{"tap in lobby", tapTx(t, "alice"), race.ErrInvalidPhase.ABCICode()},
		{"start with empty team", startTx(t, testOrganizer), race.ErrPrecondition.ABCICode()},
		{"reset by player", resetTx(t, "alice"), race.ErrUnauthorized.ABCICode()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := a.deliverTx(tc.tx, 1, 0)
			requireCode(t, res, race.Codespace, tc.code)
			require.Empty(t, res.Events)
			require.Equal(t, before, a.st.AppHash())
		})
	}

	// The failed txs did not consume alice's nonce.
	require.Equal(t, nonceBefore, a.st.NonceMax["alice"])
	require.Empty(t, a.finished)
	require.Len(t, a.pending, 1)
}

func TestAtomicity_TapByNonJoinedPlayer(t *testing.T) {
	a := newTestApp(t)
	startRace(t, a)
	before := a.st.AppHash()

	res := a.deliverTx(tapTx(t, "carol"), 2, 0)
	requireCode(t, res, race.Codespace, race.ErrNotJoined.ABCICode())
	require.Equal(t, before, a.st.AppHash())
	require.Zero(t, a.st.Game.Team(race.Bitcoin).TotalTaps)
}
